package render_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/okian/strokeheat/internal/adapters/render"
	"github.com/okian/strokeheat/internal/domain/heatmap"
	"github.com/okian/strokeheat/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRenderer_Strip(t *testing.T) {
	Convey("Given a dark renderer", t, func() {
		r := render.NewRenderer()

		Convey("When rendering a series too short to draw", func() {
			img, err := r.Strip([]model.Action{{At: 0, Pos: 10}}, render.StripOptions{Width: 40, Height: 20})

			Convey("Then the strip is filled with the panel background", func() {
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 40)
				So(img.Bounds().Dy(), ShouldEqual, 20)
				So(rgbAt(img, 0, 0), ShouldResemble, rgbOf(render.Dark.PanelBackground))
				So(rgbAt(img, 39, 19), ShouldResemble, rgbOf(render.Dark.PanelBackground))
			})
		})

		Convey("When rendering a flat series", func() {
			actions := []model.Action{{At: 0, Pos: 50}, {At: 1000, Pos: 50}, {At: 2000, Pos: 50}}
			img, err := r.Strip(actions, render.StripOptions{Width: 400, Height: 150})

			Convey("Then a black two pixel line runs through the middle", func() {
				So(err, ShouldBeNil)
				black := heatmap.ColorAt(0)
				So(rgbAt(img, 100, 74), ShouldResemble, black)
				So(rgbAt(img, 100, 75), ShouldResemble, black)
				So(rgbAt(img, 100, 20), ShouldResemble, rgbOf(render.Dark.PanelBackground))
			})
		})

		Convey("When the size is invalid", func() {
			_, err := r.Strip(nil, render.StripOptions{Width: 0, Height: 150})
			So(errors.Is(err, render.ErrInvalidSize), ShouldBeTrue)

			_, err = r.Strip(nil, render.StripOptions{Width: 100000, Height: 150})
			So(errors.Is(err, render.ErrInvalidSize), ShouldBeTrue)
		})
	})
}

func TestDraw_DiagonalSegment(t *testing.T) {
	Convey("Given a 45 degree segment", t, func() {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		want := heatmap.RGB{R: 255, G: 215, B: 0}
		err := render.Draw(img, []heatmap.Segment{{
			From:  image.Point{X: 10, Y: 10},
			To:    image.Point{X: 50, Y: 50},
			Color: want,
		}})
		So(err, ShouldBeNil)

		Convey("Then pixels centered on the line take the segment color", func() {
			So(closeTo(rgbAt(img, 30, 30), want, 2), ShouldBeTrue)
		})

		Convey("And pixels far from the line stay untouched", func() {
			So(img.RGBAAt(50, 10), ShouldResemble, color.RGBA{})
		})
	})
}

func TestRenderer_StripOutOfRangePositions(t *testing.T) {
	Convey("Given positions far outside the nominal range", t, func() {
		r := render.NewRenderer()

		for _, pos := range []int{1_000_000_000, -1_000_000_000} {
			actions := []model.Action{{At: 0, Pos: 0}, {At: 1000, Pos: pos}, {At: 2000, Pos: 5}}

			start := time.Now()
			img, err := r.Strip(actions, render.StripOptions{Width: 400, Height: 150})
			elapsed := time.Since(start)

			So(err, ShouldBeNil)
			So(img.Bounds().Dx(), ShouldEqual, 400)
			So(elapsed, ShouldBeLessThan, 2*time.Second)
		}
	})
}

func TestDraw_ClipsToRaster(t *testing.T) {
	Convey("Given a vertical segment spanning far beyond the raster", t, func() {
		img := image.NewRGBA(image.Rect(0, 0, 40, 40))
		want := heatmap.RGB{R: 220, G: 20, B: 60}
		err := render.Draw(img, []heatmap.Segment{{
			From:  image.Point{X: 20, Y: -2_000_000_000},
			To:    image.Point{X: 20, Y: 2_000_000_000},
			Color: want,
		}})
		So(err, ShouldBeNil)

		Convey("Then the visible part is still drawn", func() {
			So(closeTo(rgbAt(img, 20, 20), want, 2), ShouldBeTrue)
			So(closeTo(rgbAt(img, 20, 0), want, 2), ShouldBeTrue)
		})
	})

	Convey("Given a segment entirely outside the raster", t, func() {
		img := image.NewRGBA(image.Rect(0, 0, 40, 40))
		err := render.Draw(img, []heatmap.Segment{{
			From:  image.Point{X: -500, Y: -500},
			To:    image.Point{X: -100, Y: -900},
			Color: heatmap.RGB{R: 255},
		}})

		Convey("Then nothing is drawn", func() {
			So(err, ShouldBeNil)
			So(img.RGBAAt(0, 0), ShouldResemble, color.RGBA{})
		})
	})
}

func TestRenderer_Card(t *testing.T) {
	Convey("Given a light renderer and a script with a title", t, func() {
		r := render.NewRenderer(render.WithTheme(render.Light))
		script := &model.Script{
			Actions:  []model.Action{{At: 0, Pos: 0}, {At: 1000, Pos: 100}},
			Metadata: &model.Metadata{Title: "Card", Tags: []string{"x"}},
		}
		stats := model.Stats{DurationMS: 1000, ActionCount: 2, AverageSpeed: 100}

		Convey("When rendering a card", func() {
			img, err := r.Card(script, stats, 500, 150)

			Convey("Then the card has the requested width and room for the text", func() {
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 500)
				So(img.Bounds().Dy(), ShouldBeGreaterThan, 150+2*15)
			})

			Convey("And the outer margin uses the main background", func() {
				So(rgbAt(img, 2, 2), ShouldResemble, rgbOf(render.Light.MainBackground))
			})

			Convey("And the strip panel has a border", func() {
				So(rgbAt(img, 15, 15), ShouldResemble, rgbOf(render.Light.PanelBorder))
			})

			Convey("And it encodes as PNG", func() {
				var buf bytes.Buffer
				So(render.EncodePNG(&buf, img), ShouldBeNil)
				decoded, err := png.Decode(&buf)
				So(err, ShouldBeNil)
				So(decoded.Bounds(), ShouldResemble, img.Bounds())
			})
		})

		Convey("When the width cannot fit the layout", func() {
			_, err := r.Card(script, stats, 40, 150)
			So(errors.Is(err, render.ErrInvalidSize), ShouldBeTrue)
		})
	})
}

func TestThemeByName(t *testing.T) {
	Convey("Given theme names", t, func() {
		dark, err := render.ThemeByName("")
		So(err, ShouldBeNil)
		So(dark.Name, ShouldEqual, "dark")

		light, err := render.ThemeByName(" LIGHT ")
		So(err, ShouldBeNil)
		So(light.Name, ShouldEqual, "light")

		_, err = render.ThemeByName("sepia")
		So(errors.Is(err, render.ErrUnknownTheme), ShouldBeTrue)
	})
}

func rgbAt(img *image.RGBA, x, y int) heatmap.RGB {
	c := img.RGBAAt(x, y)
	return heatmap.RGB{R: c.R, G: c.G, B: c.B}
}

func rgbOf(c color.Color) heatmap.RGB {
	r, g, b, _ := c.RGBA()
	return heatmap.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

func closeTo(a, b heatmap.RGB, tol int) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) <= tol && d(a.G, b.G) <= tol && d(a.B, b.B) <= tol
}
