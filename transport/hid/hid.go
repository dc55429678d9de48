// Package hid carries APDU exchanges to a USB-attached device using the
// Ledger HID report framing.
package hid

import (
	"context"
	"fmt"
	"time"

	flynnhid "github.com/flynn/hid"

	"github.com/moffa90/go-powhsm/dongle"
	"github.com/moffa90/go-powhsm/protocol"
)

// USB identifiers of supported devices.
const (
	VendorID  = 0x2c97
	UsagePage = 0xffa0
)

// device is the subset of flynnhid.Device used by the transport.
type device interface {
	Write([]byte) error
	ReadCh() <-chan []byte
	ReadError() error
	Close()
}

// Transport is a dongle.Transport over a HID device.
type Transport struct {
	dev device
}

// Devices lists the attached devices.
func Devices() ([]*flynnhid.DeviceInfo, error) {
	all, err := flynnhid.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %v: %w", err, protocol.ErrCommunication)
	}
	var found []*flynnhid.DeviceInfo
	for _, d := range all {
		if d.VendorID == VendorID && d.UsagePage == UsagePage {
			found = append(found, d)
		}
	}
	return found, nil
}

// Open opens the device at path, or the first attached device when path is empty.
func Open(path string) (*Transport, error) {
	devices, err := Devices()
	if err != nil {
		return nil, err
	}
	for _, info := range devices {
		if path != "" && info.Path != path {
			continue
		}
		dev, err := info.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %v: %w", info.Path, err, protocol.ErrCommunication)
		}
		return &Transport{dev: dev}, nil
	}
	if path != "" {
		return nil, fmt.Errorf("device %s not found: %w", path, protocol.ErrCommunication)
	}
	return nil, fmt.Errorf("no device found: %w", protocol.ErrCommunication)
}

// Opener returns a dongle.Opener for the device at path (any device when empty).
func Opener(path string) dongle.Opener {
	return func(ctx context.Context) (dongle.Transport, error) {
		return Open(path)
	}
}

// Exchange sends apdu and waits up to timeout for the full reply.
func (t *Transport) Exchange(ctx context.Context, apdu []byte, timeout time.Duration) ([]byte, error) {
	reports, err := wrapCommand(apdu)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, protocol.ErrCommunication)
	}
	for _, report := range reports {
		// Leading zero is the report ID.
		if err := t.dev.Write(append([]byte{0x00}, report...)); err != nil {
			return nil, fmt.Errorf("write: %v: %w", err, protocol.ErrCommunication)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var r reassembler
	for {
		select {
		case report, ok := <-t.dev.ReadCh():
			if !ok {
				return nil, fmt.Errorf("read: %v: %w", t.dev.ReadError(), protocol.ErrCommunication)
			}
			done, err := r.add(report)
			if err != nil {
				return nil, fmt.Errorf("read: %v: %w", err, protocol.ErrCommunication)
			}
			if done {
				return protocol.SplitStatus(r.data)
			}
		case <-timer.C:
			return nil, fmt.Errorf("no reply after %s: %w", timeout, protocol.ErrTimeout)
		case <-ctx.Done():
			return nil, fmt.Errorf("read: %v: %w", ctx.Err(), protocol.ErrCommunication)
		}
	}
}

// Close closes the device.
func (t *Transport) Close() error {
	t.dev.Close()
	return nil
}
