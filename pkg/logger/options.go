package logger

import "io"

type config struct {
	format string
	writer io.Writer
	level  string
}

// Option applies a configuration option to Init.
type Option func(*config)

// WithFormat selects "text" or "json" output.
func WithFormat(format string) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithWriter redirects log output.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.writer = w
		}
	}
}

// WithLevel sets the initial level name.
func WithLevel(level string) Option {
	return func(c *config) {
		c.level = level
	}
}
