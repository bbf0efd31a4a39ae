package render

import "errors"

// Sentinel kinds for rendering errors.
var (
	ErrInvalidSize  = errors.New("invalid raster size")
	ErrUnknownTheme = errors.New("unknown theme")
	ErrRaster       = errors.New("rasterization failed")
)
