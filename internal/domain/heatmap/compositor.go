package heatmap

import (
	"image"

	"github.com/okian/strokeheat/internal/domain/model"
	"github.com/okian/strokeheat/internal/domain/motion"
)

// Layout and smoothing constants.
const (
	// Padding is the margin kept free on every side of the strip.
	Padding = 8
	// LineWidth is the stroke width a rasterizer must use for segments.
	LineWidth = 2
	// SpeedWindow bounds the trailing speed samples averaged into intensity.
	SpeedWindow = 20
	// PositionWindow bounds the trailing position samples. The window is
	// maintained but nothing reads it yet.
	PositionWindow = 10
	// GapThresholdMS is the largest time delta still drawn as a line.
	GapThresholdMS = 5000
)

// Segment is a colored line between two plotted points.
type Segment struct {
	From  image.Point
	To    image.Point
	Color RGB
}

// Options describes the target raster.
type Options struct {
	Width   int
	Height  int
	YOffset int
}

// scanState is the accumulator carried through one compositing pass.
type scanState struct {
	speeds    window
	positions window
	last      image.Point
}

func freshState(last image.Point) scanState {
	return scanState{
		speeds:    newWindow(SpeedWindow),
		positions: newWindow(PositionWindow),
		last:      last,
	}
}

// advance folds one non-gap transition into the state and returns the color
// of the segment ending at cur.
func (s scanState) advance(prev, cur model.Action, at image.Point) (scanState, RGB) {
	next := scanState{
		speeds:    s.speeds.push(motion.Speed(prev, cur)),
		positions: s.positions.push(float64(cur.Pos)),
		last:      at,
	}
	return next, ColorAt(next.speeds.mean())
}

// projection maps timeline coordinates into pixel space.
type projection struct {
	scale   float64
	height  int
	yOffset int
}

func newProjection(actions []model.Action, opts Options) projection {
	p := projection{height: opts.Height, yOffset: opts.YOffset}
	if last := actions[len(actions)-1].At; last > 0 {
		p.scale = float64(opts.Width-2*Padding) / float64(last)
	}
	return p
}

func (p projection) point(a model.Action) image.Point {
	x := Padding + int(p.scale*float64(a.At))
	y := p.height - Padding - int(float64(p.height-2*Padding)*(float64(a.Pos)/100)) + p.yOffset
	return image.Point{X: x, Y: y}
}

// Compose produces the ordered segments of one heatmap strip.
//
// Series with fewer than two actions produce no segments. The time axis is
// scaled once so that the final action lands at the right padding edge; when
// the final timestamp is not positive every point collapses onto the left
// edge. Transitions longer than GapThresholdMS are not drawn and reset the
// smoothing windows. Actions are expected in chronological order; other
// orders are drawn as given.
func Compose(actions []model.Action, opts Options) []Segment {
	if len(actions) < 2 {
		return nil
	}

	proj := newProjection(actions, opts)
	state := freshState(proj.point(actions[0]))
	segments := make([]Segment, 0, len(actions)-1)

	for i := 1; i < len(actions); i++ {
		prev, cur := actions[i-1], actions[i]
		at := proj.point(cur)

		if isGap(prev, cur) {
			state = freshState(at)
			continue
		}

		from := state.last
		var color RGB
		state, color = state.advance(prev, cur, at)
		segments = append(segments, Segment{From: from, To: at, Color: color})
	}
	return segments
}

// Gaps counts the transitions that Compose leaves undrawn.
func Gaps(actions []model.Action) int {
	n := 0
	for i := 1; i < len(actions); i++ {
		if isGap(actions[i-1], actions[i]) {
			n++
		}
	}
	return n
}

func isGap(prev, cur model.Action) bool {
	return cur.At-prev.At > GapThresholdMS
}
