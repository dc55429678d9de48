package dongle

import (
	"time"

	"github.com/moffa90/go-powhsm/rskblock"
)

// Default exchange timeouts.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultOnboardTimeout = 180 * time.Second
	DefaultUnlockTimeout  = 30 * time.Second
)

// Config holds the driver configuration.
type Config struct {
	// ProgressCallback is called during advance-blockchain uploads (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations. Defaults to klog.
	Logger Logger

	// Inspector derives block metadata for advance-blockchain uploads.
	// Defaults to rskblock.Inspector.
	Inspector BlockInspector

	// Timeout is the default timeout for a single exchange
	Timeout time.Duration

	// OnboardTimeout applies to the onboarding finalize exchange
	OnboardTimeout time.Duration

	// UnlockTimeout applies to the unlock finalize exchange
	UnlockTimeout time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Logger:         KlogLogger(),
		Inspector:      rskblock.Inspector{},
		Timeout:        DefaultTimeout,
		OnboardTimeout: DefaultOnboardTimeout,
		UnlockTimeout:  DefaultUnlockTimeout,
	}
}

// Option is a functional option for configuring the Dongle.
type Option func(*Config)

// WithProgressCallback sets a callback function to track advance-blockchain progress.
//
// Example:
//
//	d := dongle.New(opener,
//	    dongle.WithProgressCallback(func(p dongle.Progress) {
//	        fmt.Printf("[%s] block %d/%d\n", p.Phase, p.CurrentBlock, p.TotalBlocks)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the driver operations. A nil logger
// disables logging.
//
// Example:
//
//	d := dongle.New(opener, dongle.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithBlockInspector replaces the functions used to derive block and
// brother metadata.
func WithBlockInspector(inspector BlockInspector) Option {
	return func(c *Config) {
		if inspector != nil {
			c.Inspector = inspector
		}
	}
}

// WithTimeout sets the default exchange timeout.
//
// Example:
//
//	d := dongle.New(opener, dongle.WithTimeout(5*time.Second))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithOnboardTimeout sets the timeout of the onboarding finalize exchange.
func WithOnboardTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.OnboardTimeout = timeout
		}
	}
}

// WithUnlockTimeout sets the timeout of the unlock finalize exchange.
func WithUnlockTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.UnlockTimeout = timeout
		}
	}
}
