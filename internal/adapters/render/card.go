package render

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/okian/strokeheat/internal/domain/model"
	"github.com/okian/strokeheat/internal/domain/summary"
)

// Card layout in pixels.
const (
	cardMargin    = 15 // outer margin around both panels
	panelBorder   = 1  // border drawn around each panel
	panelSpacing  = 10 // gap between strip panel and text panel
	textPadding   = 15 // inner padding of the text panel
	lineSpacing   = 4  // extra leading between text lines
	ellipsis      = "..."
	minCardLayout = 2*cardMargin + 2*panelBorder + 2*textPadding
)

// Card renders the preview layout: the strip in a bordered panel on top and
// the summary text in a bordered panel below it.
func (r *Renderer) Card(script *model.Script, stats model.Stats, width, stripHeight int) (*image.RGBA, error) {
	if width <= minCardLayout {
		return nil, fmt.Errorf("%w: card width %d", ErrInvalidSize, width)
	}
	innerWidth := width - 2*cardMargin - 2*panelBorder
	var actions []model.Action
	if script != nil {
		actions = script.Actions
	}
	strip, err := r.Strip(actions, StripOptions{Width: innerWidth, Height: stripHeight})
	if err != nil {
		return nil, err
	}

	face := basicfont.Face7x13
	lines := summary.Lines(summary.Render(script, stats))
	lineHeight := face.Metrics().Height.Ceil() + lineSpacing
	textHeight := 2*textPadding + len(lines)*lineHeight

	height := cardMargin +
		stripHeight + 2*panelBorder +
		panelSpacing +
		textHeight + 2*panelBorder +
		cardMargin
	if err := r.checkSize(width, height); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(img, img.Bounds(), r.theme.MainBackground)

	stripPanel := image.Rect(cardMargin, cardMargin, width-cardMargin, cardMargin+stripHeight+2*panelBorder)
	r.panel(img, stripPanel)
	xdraw.Draw(img, stripPanel.Inset(panelBorder), strip, image.Point{}, xdraw.Src)

	textTop := stripPanel.Max.Y + panelSpacing
	textPanel := image.Rect(cardMargin, textTop, width-cardMargin, textTop+textHeight+2*panelBorder)
	r.panel(img, textPanel)

	inner := textPanel.Inset(panelBorder + textPadding)
	maxChars := inner.Dx() / face.Advance
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(r.theme.Text),
		Face: face,
	}
	baseline := inner.Min.Y + face.Ascent
	for _, line := range lines {
		d.Dot = fixed.P(inner.Min.X, baseline)
		d.DrawString(clip(line, maxChars))
		baseline += lineHeight
	}
	return img, nil
}

// panel draws a one pixel border filled with the panel background.
func (r *Renderer) panel(dst *image.RGBA, rect image.Rectangle) {
	fill(dst, rect, r.theme.PanelBorder)
	fill(dst, rect.Inset(panelBorder), r.theme.PanelBackground)
}

// clip shortens s to at most n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	runes := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(runes) <= n {
		return s
	}
	if n <= len(ellipsis) {
		return string(runes[:n])
	}
	return string(runes[:n-len(ellipsis)]) + ellipsis
}
