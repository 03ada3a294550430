package middlewares

import (
	"runtime"

	"github.com/dmitrymomot/fuzzfleet/internal"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	StackSize         int  // Max stack trace size (default: 4096)
	DisablePrintStack bool // Disable stack trace in logs
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.StackSize = size
	}
}

// WithRecoverDisablePrintStack disables including stack trace in logs.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisablePrintStack = true
	}
}

// Recover turns a panic in a handler into a *PanicError for the app's
// ErrorHandler, logging it with the request's context attributes.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &RecoverConfig{
		StackSize: DefaultStackSize,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					pe := &PanicError{Value: r}
					if cfg.DisablePrintStack {
						c.LogError("panic recovered", "panic", r, "path", c.Request().URL.Path)
					} else {
						buf := make([]byte, cfg.StackSize)
						pe.Stack = buf[:runtime.Stack(buf, false)]
						c.LogError("panic recovered", "panic", r, "path", c.Request().URL.Path, "stack", string(pe.Stack))
					}
					err = pe
				}
			}()

			return next(c)
		}
	}
}
