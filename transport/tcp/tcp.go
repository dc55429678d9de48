// Package tcp carries APDU exchanges over a TCP socket, as spoken by the
// device simulator and TCP-hosted signers.
//
// Frame structure (host to device):
//
//	[LEN(4, big-endian)][APDU...]
//
// Frame structure (device to host):
//
//	[LEN(4, big-endian)][DATA...][SW(2, big-endian)]
//
// LEN never counts the status word.
package tcp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/moffa90/go-powhsm/dongle"
	"github.com/moffa90/go-powhsm/protocol"
)

// MaxFrameSize bounds the length prefix accepted from the peer.
const MaxFrameSize = 64 * 1024

// Transport is a dongle.Transport over a TCP connection.
type Transport struct {
	conn net.Conn
}

// Opener returns a dongle.Opener that dials host:port.
func Opener(host string, port int) dongle.Opener {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return func(ctx context.Context) (dongle.Transport, error) {
		return Dial(ctx, addr)
	}
}

// Dial connects to a device listening on addr.
func Dial(ctx context.Context, addr string) (*Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %v: %w", addr, err, protocol.ErrCommunication)
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Transport {
	return &Transport{conn: conn}
}

// Exchange sends apdu and waits up to timeout for the reply.
func (t *Transport) Exchange(ctx context.Context, apdu []byte, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %v: %w", err, protocol.ErrCommunication)
	}

	stop := context.AfterFunc(ctx, func() {
		t.conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := WriteFrame(t.conn, apdu); err != nil {
		return nil, classify(ctx, "write", err)
	}
	raw, err := readReply(t.conn)
	if err != nil {
		return nil, classify(ctx, "read", err)
	}
	return protocol.SplitStatus(raw)
}

// Close closes the connection.
func (t *Transport) Close() error {
	return t.conn.Close()
}

func classify(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %v: %w", op, ctx.Err(), protocol.ErrCommunication)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%s: %w", op, protocol.ErrTimeout)
	}
	return fmt.Errorf("%s: %v: %w", op, err, protocol.ErrCommunication)
}

// WriteFrame writes a length-prefixed frame.
func WriteFrame(w io.Writer, data []byte) error {
	frame := make([]byte, 0, 4+len(data))
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(data)))
	frame = append(frame, data...)
	_, err := w.Write(frame)
	return err
}

// ReadFrame reads a length-prefixed frame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("frame too large: %d bytes", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteReply writes a device reply: the data frame followed by the status word.
func WriteReply(w io.Writer, data []byte, sw uint16) error {
	frame := make([]byte, 0, 4+len(data)+2)
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(data)))
	frame = append(frame, data...)
	frame = binary.BigEndian.AppendUint16(frame, sw)
	_, err := w.Write(frame)
	return err
}

// readReply reads a device reply and returns the data with the status word appended.
func readReply(r io.Reader) ([]byte, error) {
	data, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	var sw [2]byte
	if _, err := io.ReadFull(r, sw[:]); err != nil {
		return nil, err
	}
	return append(data, sw[:]...), nil
}
