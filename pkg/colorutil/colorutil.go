// Package colorutil provides the shared overlay palette.
package colorutil

import "image/color"

// Overlay colors used by the viewfinder and the photo annotator.
var (
	BoxOutline = color.RGBA{R: 0, G: 220, B: 90, A: 255}
	Arrow      = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	Label      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black      = color.RGBA{A: 255}
	White      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// WithAlpha returns c with its alpha channel replaced.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}
