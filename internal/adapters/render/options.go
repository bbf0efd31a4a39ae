package render

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithTheme sets the color theme.
func WithTheme(t Theme) Option {
	return func(r *Renderer) {
		if t.Name != "" {
			r.theme = t
		}
	}
}

// WithMaxDimension bounds the width and height accepted for a raster.
func WithMaxDimension(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.maxDimension = px
		}
	}
}
