package geometry

import "math"

// The text recognizer reports boxes in a normalized unit square whose
// origin is the bottom-left corner. Screen coordinates put the origin at
// the top-left, so converting between the two flips the vertical axis.

// NormalizedToPixel converts a normalized, bottom-left-origin box into
// pixel coordinates (top-left origin) for an image of the given size.
// A degenerate image size yields a zero rect; callers filter those out
// before anything reaches the renderer.
func NormalizedToPixel(b Rect, img Size) Rect {
	if img.Empty() {
		return Rect{}
	}
	return Rect{
		X:      b.X * img.Width,
		Y:      (1 - b.Y - b.Height) * img.Height,
		Width:  b.Width * img.Width,
		Height: b.Height * img.Height,
	}
}

// PixelToNormalized is the inverse of NormalizedToPixel.
func PixelToNormalized(b Rect, img Size) Rect {
	if img.Empty() {
		return Rect{}
	}
	h := b.Height / img.Height
	return Rect{
		X:      b.X / img.Width,
		Y:      1 - b.Y/img.Height - h,
		Width:  b.Width / img.Width,
		Height: h,
	}
}

// PixelToDisplay converts a pixel-space box into display coordinates
// within a container, given the rectangle the image is actually drawn
// into and the fit/fill scale factors.
func PixelToDisplay(b Rect, drawn Rect, scaleX, scaleY float64) Rect {
	return Rect{
		X:      drawn.X + b.X*scaleX,
		Y:      drawn.Y + b.Y*scaleY,
		Width:  b.Width * scaleX,
		Height: b.Height * scaleY,
	}
}

// FitRect computes the rectangle an image of size img occupies when
// scaled to fit inside a container, preserving aspect ratio and
// centering, along with the applied scale factor.
func FitRect(img Size, container Size) (Rect, float64) {
	if img.Empty() || container.Empty() {
		return Rect{}, 0
	}
	scale := math.Min(container.Width/img.Width, container.Height/img.Height)
	w := img.Width * scale
	h := img.Height * scale
	return Rect{
		X:      (container.Width - w) / 2,
		Y:      (container.Height - h) / 2,
		Width:  w,
		Height: h,
	}, scale
}

// panEpsilon is the zoom margin below which panning is meaningless; the
// pan offset resets instead of accumulating drift at zoom 1.
const panEpsilon = 0.01

// ViewTransform describes the live zoom and pan applied to the rendered
// layer (image plus overlay) on top of the base fit transform. It scales
// the whole layer uniformly, so boxes computed at zoom 1 stay correct
// after the layer transform is applied; it is never applied per box.
type ViewTransform struct {
	Zoom float64
	Pan  Point2D
}

// IdentityView returns the neutral transform.
func IdentityView() ViewTransform {
	return ViewTransform{Zoom: 1}
}

// Clamp limits zoom to [1, maxZoom] and resets pan when zoom is at (or
// effectively at) 1.
func (v ViewTransform) Clamp(maxZoom float64) ViewTransform {
	if v.Zoom < 1 {
		v.Zoom = 1
	}
	if maxZoom >= 1 && v.Zoom > maxZoom {
		v.Zoom = maxZoom
	}
	if v.Zoom <= 1+panEpsilon {
		v.Pan = Point2D{}
	}
	return v
}

// Apply maps a display-space point through the zoom/pan transform.
func (v ViewTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: p.X*v.Zoom + v.Pan.X,
		Y: p.Y*v.Zoom + v.Pan.Y,
	}
}

// ApplyRect maps a display-space rectangle through the zoom/pan transform.
func (v ViewTransform) ApplyRect(r Rect) Rect {
	o := v.Apply(Point2D{X: r.X, Y: r.Y})
	return Rect{X: o.X, Y: o.Y, Width: r.Width * v.Zoom, Height: r.Height * v.Zoom}
}
