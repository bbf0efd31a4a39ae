package worker

import (
	"github.com/okian/strokeheat/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithErrorHandler registers a callback for failed jobs.
func WithErrorHandler(h ErrorHandler) Option {
	return func(w *InMemoryWorker) {
		w.onError = h
	}
}

func withOnDone(fn func()) Option {
	return func(w *InMemoryWorker) {
		w.onDone = fn
	}
}
