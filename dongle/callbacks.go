package dongle

import (
	"time"

	"k8s.io/klog/v2"
)

// Progress phases reported during advance-blockchain uploads.
const (
	PhaseInit     = "init"
	PhaseBlock    = "block"
	PhaseBrother  = "brother"
	PhaseComplete = "complete"
	PhaseFailed   = "failed"
)

// Progress contains information about an advance-blockchain upload.
// Passed to ProgressCallback after every exchange.
type Progress struct {
	// Phase is one of the Phase* constants
	Phase string

	// CurrentBlock is the 1-based index of the block being uploaded, 0 before the first
	CurrentBlock int

	// TotalBlocks is the number of blocks in the upload
	TotalBlocks int

	// CurrentBrother is the 1-based index of the brother being uploaded, 0 when none
	CurrentBrother int

	// BytesSent is the number of block and brother bytes sent so far
	BytesSent int

	// ElapsedTime is the time elapsed since the upload started
	ElapsedTime time.Duration
}

// ProgressCallback is called during advance-blockchain uploads to report progress.
// Implementations should return quickly; the device is waiting on the next exchange.
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the driver.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	d := dongle.New(opener, dongle.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// KlogLogger returns a Logger backed by klog structured logging.
// Debug messages are emitted at verbosity 4.
func KlogLogger() Logger {
	return klogLogger{}
}

type klogLogger struct{}

func (klogLogger) Debug(msg string, keysAndValues ...interface{}) {
	klog.V(4).InfoS(msg, keysAndValues...)
}

func (klogLogger) Info(msg string, keysAndValues ...interface{}) {
	klog.InfoS(msg, keysAndValues...)
}

func (klogLogger) Error(msg string, keysAndValues ...interface{}) {
	klog.ErrorS(nil, msg, keysAndValues...)
}
