package batch

import (
	"fmt"
	"io"

	"github.com/okian/strokeheat/pkg/logger"
)

// SetupLogging initializes the process logger for the batch tool.
func SetupLogging(w io.Writer, verbose bool) error {
	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithWriter(w), logger.WithLevel(level)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the batch tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `strokeheat batch renderer
=========================

Renders heatmap strips and summaries for funscript files.

Usage:
  strokeheat-batch -in <file|dir> -out <dir> [options]

Options:
  -in string
        A .funscript file or a directory of them
  -out string
        Output directory (default ".")
  -width int
        Strip or card width in pixels (default 400)
  -height int
        Strip height in pixels, at most 150 (default 150)
  -theme string
        Color theme: dark or light (default "dark")
  -workers int
        Number of concurrent workers (default CPU cores)
  -card
        Render the strip together with its summary panel
  -verbose
        Enable verbose logging
  -help
        Show this help message

For every input <name>.funscript the tool writes <name>.png and <name>.txt.

Examples:
  strokeheat-batch -in ./scripts -out ./previews
  strokeheat-batch -in ./scripts -out ./cards -card -width 800 -theme light
`)
}
