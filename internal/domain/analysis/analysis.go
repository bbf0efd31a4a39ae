// Package analysis runs the core pipeline over a decoded script and reports
// its statistics, gap count and summary text.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/strokeheat/internal/domain/heatmap"
	"github.com/okian/strokeheat/internal/domain/model"
	"github.com/okian/strokeheat/internal/domain/motion"
	"github.com/okian/strokeheat/internal/domain/summary"
)

const (
	defaultStripWidth  = 400
	defaultStripHeight = 150
)

// ErrNoScript is returned when there is nothing to analyze.
var ErrNoScript = errors.New("no script")

// Report is the outcome of analyzing one script.
type Report struct {
	Stats    model.Stats
	Gaps     int
	Segments int
	Summary  string
}

// Analyzer computes a Report for a script.
type Analyzer interface {
	Analyze(ctx context.Context, script *model.Script) (Report, error)
}

// Option applies a configuration option to the InMemoryAnalyzer.
type Option func(*InMemoryAnalyzer)

// WithStripSize sets the raster used when counting drawn segments.
func WithStripSize(width, height int) Option {
	return func(a *InMemoryAnalyzer) {
		if width > 0 && height > 0 {
			a.width = width
			a.height = height
		}
	}
}

// InMemoryAnalyzer implements Analyzer synchronously.
type InMemoryAnalyzer struct {
	width  int
	height int
}

// NewInMemoryAnalyzer creates an analyzer.
func NewInMemoryAnalyzer(opts ...Option) *InMemoryAnalyzer {
	a := &InMemoryAnalyzer{width: defaultStripWidth, height: defaultStripHeight}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes statistics and counts the segments a strip of the
// configured size would draw.
func (a *InMemoryAnalyzer) Analyze(ctx context.Context, script *model.Script) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("analyze: %w", err)
	}
	if script == nil {
		return Report{}, ErrNoScript
	}

	stats := motion.Summarize(script.Actions)
	segments := heatmap.Compose(script.Actions, heatmap.Options{Width: a.width, Height: a.height})
	return Report{
		Stats:    stats,
		Gaps:     heatmap.Gaps(script.Actions),
		Segments: len(segments),
		Summary:  summary.Render(script, stats),
	}, nil
}
