// Package heatmap turns an action series into colored line segments that
// visualize local motion intensity along the timeline.
package heatmap

import "math"

// stepSize is the intensity span covered by one ramp bracket.
const stepSize = 120.0

// RGB is an opaque 8-bit color. It satisfies color.Color.
type RGB struct {
	R, G, B uint8
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// ramp holds the anchor colors from calm to frantic.
var ramp = [...]RGB{
	{0, 0, 0},       // black
	{30, 144, 255},  // dodger blue
	{34, 139, 34},   // forest green
	{255, 215, 0},   // gold
	{220, 20, 60},   // crimson
	{147, 112, 219}, // medium purple
	{37, 22, 122},   // deep blue-purple
}

// Anchors returns a copy of the color ramp.
func Anchors() []RGB {
	out := make([]RGB, len(ramp))
	copy(out, ramp[:])
	return out
}

// ColorAt maps an intensity (speed in units per second) to a ramp color.
//
// Non-positive intensities map to the first anchor and intensities above five
// steps saturate at the last one. In between, the value is shifted by half a
// step before the bracket is chosen, so colors blend around anchor midpoints
// rather than anchor boundaries.
func ColorAt(intensity float64) RGB {
	if intensity <= 0 || math.IsNaN(intensity) {
		return ramp[0]
	}
	if intensity > 5*stepSize {
		return ramp[len(ramp)-1]
	}

	shifted := intensity + stepSize/2
	idx := int(math.Floor(shifted / stepSize))
	if idx > len(ramp)-2 {
		idx = len(ramp) - 2
	}
	t := (shifted - float64(idx)*stepSize) / stepSize
	t = math.Max(0, math.Min(1, t))

	return lerp(ramp[idx], ramp[idx+1], t)
}

// lerp interpolates each channel independently, truncating toward zero.
func lerp(a, b RGB, t float64) RGB {
	return RGB{
		R: lerpChannel(a.R, b.R, t),
		G: lerpChannel(a.G, b.G, t),
		B: lerpChannel(a.B, b.B, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	return uint8(int(float64(a) + (float64(b)-float64(a))*t))
}
