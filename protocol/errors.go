package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is wrapped by transports when an exchange does not complete in time.
	ErrTimeout = errors.New("exchange timed out")

	// ErrCommunication is wrapped by transports for any other I/O failure,
	// including failing to open the device.
	ErrCommunication = errors.New("communication failure")
)

// StatusError represents a status word other than StatusOK returned by the device.
type StatusError struct {
	// Operation is the command that failed (optional)
	Operation string

	// StatusWord is the 2-byte status word from the device
	StatusWord uint16
}

func (e *StatusError) Error() string {
	op := e.Operation
	if op == "" {
		op = "exchange"
	}
	return fmt.Sprintf("%s failed: %s (0x%04X)", op, StatusName(e.StatusWord), e.StatusWord)
}

// IsStatusError returns true if err is or wraps a StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// StatusWordOf extracts the device status word from err.
// The second return value is false when err carries no status word.
func StatusWordOf(err error) (uint16, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusWord, true
	}
	return 0, false
}

// IsTimeout returns true if err is or wraps ErrTimeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCommunication returns true if err is or wraps ErrCommunication.
func IsCommunication(err error) bool {
	return errors.Is(err, ErrCommunication)
}
