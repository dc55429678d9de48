package dongle

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/moffa90/go-powhsm/protocol"
)

// Transport carries one APDU exchange with the device.
//
// Exchange returns the response data with the trailing status word removed.
// A status word other than 0x9000 is returned as *protocol.StatusError, a
// timeout wraps protocol.ErrTimeout and any other failure wraps
// protocol.ErrCommunication.
type Transport interface {
	Exchange(ctx context.Context, apdu []byte, timeout time.Duration) ([]byte, error)
	Close() error
}

// Opener opens a Transport. See packages transport/hid and transport/tcp.
type Opener func(ctx context.Context) (Transport, error)

// Dongle drives a powHSM device.
//
// The device protocol is half-duplex and stateful: callers must not run
// operations concurrently on the same Dongle.
type Dongle struct {
	open      Opener
	transport Transport
	config    Config
}

// New creates a new Dongle with the given opener and options.
// The transport is not opened until Connect is called.
//
// Example:
//
//	d := dongle.New(tcp.Opener("127.0.0.1", 8888),
//	    dongle.WithTimeout(5*time.Second),
//	)
//	if err := d.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Disconnect()
func New(open Opener, opts ...Option) *Dongle {
	if open == nil {
		panic("opener cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Dongle{
		open:   open,
		config: cfg,
	}
}

// Connect opens the transport. Communication failures are returned as
// *CommError; any other error is returned unchanged.
func (d *Dongle) Connect(ctx context.Context) error {
	t, err := d.open(ctx)
	if err != nil {
		if protocol.IsCommunication(err) {
			return &CommError{Op: "connect", Err: err}
		}
		return err
	}
	d.transport = t
	d.logDebug("connected")
	return nil
}

// Disconnect closes the transport. It is a no-op when not connected.
func (d *Dongle) Disconnect() error {
	if d.transport == nil {
		return nil
	}
	err := d.transport.Close()
	d.transport = nil
	if err != nil {
		return &CommError{Op: "disconnect", Err: err}
	}
	d.logDebug("disconnected")
	return nil
}

var errNotConnected = errors.New("not connected")

// exchange sends one command, prefixing CLA when absent. A zero timeout
// selects the configured default.
//
// Device status words are returned as *protocol.StatusError for the caller
// to map; timeouts become *TimeoutError and other failures *CommError.
func (d *Dongle) exchange(ctx context.Context, op string, cmd []byte, timeout time.Duration) (protocol.Response, error) {
	if d.transport == nil {
		return nil, &CommError{Op: op, Err: errNotConnected}
	}
	if timeout <= 0 {
		timeout = d.config.Timeout
	}

	apdu := protocol.WithCLA(cmd)
	d.logDebug("exchange", "op", op, "command", hex.EncodeToString(apdu), "timeout", timeout)

	resp, err := d.transport.Exchange(ctx, apdu, timeout)
	if err != nil {
		d.logDebug("exchange failed", "op", op, "error", err)

		var se *protocol.StatusError
		switch {
		case errors.As(err, &se):
			return nil, &protocol.StatusError{Operation: op, StatusWord: se.StatusWord}
		case protocol.IsTimeout(err):
			return nil, &TimeoutError{Op: op, Timeout: timeout, Err: err}
		default:
			return nil, &CommError{Op: op, Err: err}
		}
	}

	d.logDebug("exchange done", "op", op, "response", hex.EncodeToString(resp))
	return protocol.Response(resp), nil
}

// call is exchange for operations that report every failure as an error.
// Status words become *Error.
func (d *Dongle) call(ctx context.Context, op string, cmd []byte, timeout time.Duration) (protocol.Response, error) {
	resp, err := d.exchange(ctx, op, cmd, timeout)
	if err != nil {
		if protocol.IsStatusError(err) {
			return nil, &Error{Op: op, Msg: "device error", Err: err}
		}
		return nil, err
	}
	return resp, nil
}

// reportProgress calls the progress callback if configured.
func (d *Dongle) reportProgress(progress Progress) {
	if d.config.ProgressCallback != nil {
		d.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (d *Dongle) logDebug(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (d *Dongle) logInfo(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (d *Dongle) logError(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Error(msg, keysAndValues...)
	}
}
