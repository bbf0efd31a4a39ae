package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrInvalidConfig is returned for unusable batch settings.
var ErrInvalidConfig = errors.New("invalid batch config")

// MaxStripHeight caps the strip height, matching the server's limit.
const MaxStripHeight = 150

// Config holds configuration for one batch run.
type Config struct {
	Input   string // a .funscript file or a directory of them
	Output  string // directory receiving <name>.png and <name>.txt
	Width   int    // strip width, or card width with Card set
	Height  int    // strip height, capped at MaxStripHeight
	Theme   string // dark or light
	Workers int    // concurrent workers; below one uses runtime.NumCPU()
	Card    bool   // render the strip with its summary panel
	Verbose bool   // enable debug logging
}

// Validate reports the first unusable setting and caps Height at
// MaxStripHeight.
func (c *Config) Validate() error {
	switch {
	case c.Input == "":
		return fmt.Errorf("%w: missing input", ErrInvalidConfig)
	case c.Output == "":
		return fmt.Errorf("%w: missing output", ErrInvalidConfig)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	c.Height = min(c.Height, MaxStripHeight)
	return nil
}

// Report holds batch statistics.
type Report struct {
	Files        int
	Rendered     int
	Failed       int
	BytesWritten int64
	StartTime    time.Time
	Duration     time.Duration
}

// String renders the report for humans.
func (r *Report) String() string {
	return fmt.Sprintf("rendered %s of %s files, %s failed, wrote %s in %s",
		humanize.Comma(int64(r.Rendered)),
		humanize.Comma(int64(r.Files)),
		humanize.Comma(int64(r.Failed)),
		humanize.Bytes(uint64(r.BytesWritten)),
		r.Duration.Round(time.Millisecond),
	)
}
