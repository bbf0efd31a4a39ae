package heatmap_test

import (
	"image/color"
	"math"
	"strconv"
	"testing"

	"github.com/okian/strokeheat/internal/domain/heatmap"
	. "github.com/smartystreets/goconvey/convey"
)

func TestColorAt_Saturation(t *testing.T) {
	Convey("Given the heatmap color ramp", t, func() {
		anchors := heatmap.Anchors()
		So(len(anchors), ShouldEqual, 7)

		Convey("When intensity is zero or negative", func() {
			Convey("Then the first anchor is returned exactly", func() {
				for _, v := range []float64{0, -0.0001, -1, -1e9} {
					So(heatmap.ColorAt(v), ShouldResemble, anchors[0])
				}
			})
		})

		Convey("When intensity exceeds five steps", func() {
			Convey("Then the last anchor is returned exactly", func() {
				for _, v := range []float64{601, 600.0001, 1000, 1e12, math.Inf(1)} {
					So(heatmap.ColorAt(v), ShouldResemble, anchors[6])
				}
			})
		})

		Convey("When intensity is NaN", func() {
			So(heatmap.ColorAt(math.NaN()), ShouldResemble, anchors[0])
		})
	})
}

func TestColorAt_CenteredInterpolation(t *testing.T) {
	Convey("Given intensities that land on shifted bracket starts", t, func() {
		anchors := heatmap.Anchors()

		Convey("Then half a step below each anchor boundary yields the anchor itself", func() {
			So(heatmap.ColorAt(60), ShouldResemble, anchors[1])
			So(heatmap.ColorAt(180), ShouldResemble, anchors[2])
			So(heatmap.ColorAt(300), ShouldResemble, anchors[3])
			So(heatmap.ColorAt(420), ShouldResemble, anchors[4])
			So(heatmap.ColorAt(540), ShouldResemble, anchors[5])
		})
	})

	Convey("Given intensities in the middle of a bracket", t, func() {
		Convey("Then channels are interpolated and truncated", func() {
			// blue -> green at t=0.5: (32, 141.5, 144.5)
			So(heatmap.ColorAt(120), ShouldResemble, heatmap.RGB{R: 32, G: 141, B: 144})
			// purple -> deep blue-purple at t=0.5: (92, 67, 170.5)
			So(heatmap.ColorAt(600), ShouldResemble, heatmap.RGB{R: 92, G: 67, B: 170})
		})

		Convey("Then small positive intensities already blend halfway out of black", func() {
			// shifted 90 of 120 -> t=0.75 between black and blue
			So(heatmap.ColorAt(30), ShouldResemble, heatmap.RGB{R: 22, G: 108, B: 191})
		})
	})
}

func TestColorAt_ContinuousAtBoundaries(t *testing.T) {
	Convey("Given each bracket transition", t, func() {
		for _, boundary := range []float64{60, 180, 300, 420, 540} {
			below := heatmap.ColorAt(boundary - 1e-9)
			at := heatmap.ColorAt(boundary)
			above := heatmap.ColorAt(boundary + 1e-9)

			Convey("Then colors on both sides differ by at most truncation at "+strconv.FormatFloat(boundary, 'f', 0, 64), func() {
				So(channelDistance(below, at), ShouldBeLessThanOrEqualTo, 1)
				So(channelDistance(at, above), ShouldBeLessThanOrEqualTo, 1)
			})
		}
	})
}

func TestRGB_IsColor(t *testing.T) {
	var c color.Color = heatmap.RGB{R: 255, G: 0, B: 128}
	r, g, b, a := c.RGBA()
	if r != 0xffff || g != 0 || b != 0x8080 || a != 0xffff {
		t.Fatalf("unexpected RGBA: %x %x %x %x", r, g, b, a)
	}
}

func channelDistance(a, b heatmap.RGB) int {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	m := d(a.R, b.R)
	if v := d(a.G, b.G); v > m {
		m = v
	}
	if v := d(a.B, b.B); v > m {
		m = v
	}
	return m
}
