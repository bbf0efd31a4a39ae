// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory analysis queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the number of remembered document digests.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxListLimit caps GET /scripts?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// StoreDriver selects the library backend: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// Theme names the render theme: dark or light.
	Theme string `koanf:"theme"`

	StripWidth     int `koanf:"strip_width"`
	StripHeight    int `koanf:"strip_height"`
	MaxStripHeight int `koanf:"max_strip_height"`

	// MaxBodyBytes caps uploaded documents.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// SortActions makes the decoder sort out-of-order actions by timestamp.
	SortActions bool `koanf:"sort_actions"`
}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9090",
		QueueSize:      10_000,
		WorkerCount:    runtime.NumCPU(),
		DedupeSize:     50_000,
		MaxListLimit:   100,
		StoreDriver:    DriverMemory,
		SQLitePath:     "strokeheat.db",
		Theme:          "dark",
		StripWidth:     400,
		StripHeight:    150,
		MaxStripHeight: 150,
		MaxBodyBytes:   16 << 20,
		SortActions:    true,
	}
}

// Validate reports the first invalid setting, wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.QueueSize < 1:
		return invalid("queue_size must be positive, got %d", c.QueueSize)
	case c.WorkerCount < 1:
		return invalid("worker_count must be positive, got %d", c.WorkerCount)
	case c.MaxListLimit < 1:
		return invalid("max_list_limit must be positive, got %d", c.MaxListLimit)
	case c.StripWidth < 1 || c.StripHeight < 1:
		return invalid("strip size must be positive, got %dx%d", c.StripWidth, c.StripHeight)
	case c.MaxStripHeight < 1:
		return invalid("max_strip_height must be positive, got %d", c.MaxStripHeight)
	case c.MaxBodyBytes < 1:
		return invalid("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}

	switch strings.ToLower(c.StoreDriver) {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return invalid("sqlite_path is required for the sqlite driver")
		}
	default:
		return invalid("unknown store_driver %q", c.StoreDriver)
	}

	switch strings.ToLower(c.Theme) {
	case "dark", "light":
	default:
		return invalid("unknown theme %q", c.Theme)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
