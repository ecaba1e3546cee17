package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	registry        *backend.Registry
	gracefulTimeout *time.Duration
	output          io.Writer
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is initialized from the config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout bounds the time the stop hooks may take.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithRegistry replaces the built-in registry. Configured plugins are still
// installed into it.
func WithRegistry(r *backend.Registry) Option {
	return func(o *appOptions) {
		o.registry = r
	}
}

// WithOutput sets where stdout sinks of executable backends print.
func WithOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.output = w
	}
}
