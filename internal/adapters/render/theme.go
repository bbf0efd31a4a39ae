package render

import (
	"fmt"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Theme holds the colors used around the heatmap.
type Theme struct {
	Name            string
	MainBackground  drawing.Color
	PanelBorder     drawing.Color
	PanelBackground drawing.Color
	Text            drawing.Color
}

// Built-in themes.
var (
	Dark = Theme{
		Name:            "dark",
		MainBackground:  drawing.ColorFromHex("161616"),
		PanelBorder:     drawing.ColorFromHex("323232"),
		PanelBackground: drawing.ColorFromHex("1c1c1c"),
		Text:            drawing.ColorFromHex("dcdcdc"),
	}
	Light = Theme{
		Name:            "light",
		MainBackground:  drawing.ColorFromHex("f0f0f0"),
		PanelBorder:     drawing.ColorFromHex("b4b4b4"),
		PanelBackground: drawing.ColorFromHex("ffffff"),
		Text:            drawing.ColorFromHex("1e1e1e"),
	}
)

// ThemeByName resolves "dark" or "light" (case-insensitive). An empty name
// selects the dark theme.
func ThemeByName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dark":
		return Dark, nil
	case "light":
		return Light, nil
	default:
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
}
