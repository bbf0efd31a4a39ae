// Package render rasterizes heatmap segments and summary text into images.
package render

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/wcharczuk/go-chart/v2/drawing"
	xdraw "golang.org/x/image/draw"

	"github.com/okian/strokeheat/internal/domain/heatmap"
	"github.com/okian/strokeheat/internal/domain/model"
	"github.com/okian/strokeheat/pkg/metrics"
)

// Default rendering limits.
const (
	defaultMaxDimension = 8192
)

// Renderer draws heatmap strips and preview cards.
type Renderer struct {
	theme        Theme
	maxDimension int
}

// NewRenderer creates a renderer using the dark theme unless configured otherwise.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		theme:        Dark,
		maxDimension: defaultMaxDimension,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Theme returns the active theme.
func (r *Renderer) Theme() Theme { return r.theme }

// StripOptions describes one strip raster.
type StripOptions struct {
	Width   int
	Height  int
	YOffset int
}

// Strip renders the heatmap of actions onto a new image filled with the
// panel background. Series too short to draw yield a blank strip.
func (r *Renderer) Strip(actions []model.Action, opts StripOptions) (*image.RGBA, error) {
	if err := r.checkSize(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	fill(img, img.Bounds(), r.theme.PanelBackground)

	segments := heatmap.Compose(actions, heatmap.Options{
		Width:   opts.Width,
		Height:  opts.Height,
		YOffset: opts.YOffset,
	})
	if err := Draw(img, segments); err != nil {
		return nil, err
	}
	metrics.RecordSegments(len(segments))
	return img, nil
}

// Draw strokes each segment as an anti-aliased line of heatmap.LineWidth
// with round caps, in order. Segments are clipped to the raster first, so
// off-canvas geometry costs no more than a border-to-border line.
func Draw(dst *image.RGBA, segments []heatmap.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	gc, err := drawing.NewRasterGraphicContext(dst)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRaster, err)
	}
	gc.SetLineWidth(heatmap.LineWidth)
	gc.SetLineCap(drawing.RoundCap)

	bounds := dst.Bounds()
	for _, s := range segments {
		x0, y0, x1, y1, ok := clipLine(s.From, s.To, bounds, heatmap.LineWidth)
		if !ok {
			continue
		}
		gc.BeginPath()
		gc.SetStrokeColor(s.Color)
		gc.MoveTo(x0, y0)
		gc.LineTo(x1, y1)
		gc.Stroke()
	}
	return nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (r *Renderer) checkSize(width, height int) error {
	if width <= 0 || height <= 0 || width > r.maxDimension || height > r.maxDimension {
		return fmt.Errorf("%w: %dx%d (max %d)", ErrInvalidSize, width, height, r.maxDimension)
	}
	return nil
}

func fill(dst *image.RGBA, rect image.Rectangle, c drawing.Color) {
	xdraw.Draw(dst, rect, image.NewUniform(c), image.Point{}, xdraw.Src)
}
