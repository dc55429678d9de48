package dongle

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-powhsm/protocol"
)

// ErrDongle matches every error type returned by this package.
//
//	if errors.Is(err, dongle.ErrDongle) { ... }
var ErrDongle = errors.New("dongle error")

// CommError indicates that the transport failed to carry an exchange.
type CommError struct {
	Op  string
	Err error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("%s: communication error: %v", e.Op, e.Err)
}

func (e *CommError) Unwrap() error { return e.Err }

func (e *CommError) Is(target error) bool { return target == ErrDongle }

// TimeoutError indicates that the device did not answer in time.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Is(target error) bool { return target == ErrDongle }

// ErrorResult indicates a known device rejection for an operation that
// reports failures as errors.
type ErrorResult struct {
	Op         string
	StatusWord uint16
}

func (e *ErrorResult) Error() string {
	return fmt.Sprintf("%s: device rejected request: %s (0x%04X)",
		e.Op, protocol.StatusName(e.StatusWord), e.StatusWord)
}

func (e *ErrorResult) Is(target error) bool { return target == ErrDongle }

// Error indicates an unexpected device response or an unknown status word.
type Error struct {
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrDongle }

// unexpected builds an *Error for a response of the wrong shape.
func unexpected(op string, resp []byte) error {
	return &Error{Op: op, Msg: fmt.Sprintf("unexpected response %X", resp)}
}
