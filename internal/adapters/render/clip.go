package render

import "image"

// clipLine clips the segment p0-p1 to r grown by margin on every side using
// the Liang-Barsky parametric test. It reports false when nothing of the
// segment is inside.
func clipLine(p0, p1 image.Point, r image.Rectangle, margin float64) (x0, y0, x1, y1 float64, ok bool) {
	x0, y0 = float64(p0.X), float64(p0.Y)
	x1, y1 = float64(p1.X), float64(p1.Y)
	minX, minY := float64(r.Min.X)-margin, float64(r.Min.Y)-margin
	maxX, maxY := float64(r.Max.X)+margin, float64(r.Max.Y)+margin

	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0 - minX},
		{dx, maxX - x0},
		{-dy, y0 - minY},
		{dy, maxY - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}
