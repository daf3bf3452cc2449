// Package overlay computes the drawable primitives for the detection
// overlay: which boxes to show, how large to draw them, and where each
// pointer arrow starts. It is pure geometry; rasterizing happens in the
// viewfinder widget.
package overlay

import (
	"math"

	"github.com/iamethanf20-hub/seeklens/internal/detect"
	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
)

const (
	// DefaultEnlargement scales each drawn box about its center for
	// legibility. Cosmetic only; matching and hit-testing upstream use
	// the unscaled geometry.
	DefaultEnlargement = 1.1

	// borderMargin is the minimum clearance to the drawn-image edge
	// before an angled arrow is allowed.
	borderMargin = 24.0

	// safetyGap keeps arrow starts off the exact edge of the available
	// space.
	safetyGap = 8.0

	maxReachX = 80.0
	maxReachY = 60.0

	// straightLength is the preferred length of the short vertical
	// arrow used near borders.
	straightLength = 28.0
)

// Box is one detection prepared for drawing.
type Box struct {
	Detection detect.Detection

	// Frame is the exact display-space box; hit-testing uses this.
	Frame geometry.Rect

	// Outline is Frame enlarged about its center; drawing uses this.
	Outline geometry.Rect
}

// Arrow points at a box from open space above it.
type Arrow struct {
	Start    geometry.Point2D
	Tip      geometry.Point2D
	Straight bool
}

// VisibleBoxes converts detections into drawable boxes: confidence
// thresholding, normalized → pixel → display transforms, and the
// cosmetic enlargement. Degenerate geometry never survives this stage.
func VisibleBoxes(dets []detect.Detection, minConfidence float64, img geometry.Size, drawn geometry.Rect, scale, enlargement float64) []Box {
	if img.Empty() || drawn.Empty() || scale <= 0 {
		return nil
	}
	if enlargement <= 0 {
		enlargement = DefaultEnlargement
	}

	out := make([]Box, 0, len(dets))
	for _, d := range dets {
		if d.Confidence < minConfidence {
			continue
		}
		pixel := geometry.NormalizedToPixel(d.Box, img)
		if pixel.Empty() {
			continue
		}
		frame := geometry.PixelToDisplay(pixel, drawn, scale, scale)
		out = append(out, Box{
			Detection: d,
			Frame:     frame,
			Outline:   frame.ScaledAbout(enlargement),
		})
	}
	return out
}

// PlaceArrow computes the pointer arrow for a box within the drawn-image
// rectangle. The tip sits at the box's top-center. Near any border the
// arrow degrades to a short straight vertical one so it cannot escape
// the visible image; otherwise it angles toward whichever side has more
// room, with its reach clamped to the available space.
func PlaceArrow(box geometry.Rect, container geometry.Rect) Arrow {
	tip := geometry.Point2D{X: box.X + box.Width/2, Y: box.Y}

	spaceAbove := tip.Y - container.Y
	spaceLeft := tip.X - container.X
	spaceRight := container.MaxX() - tip.X

	if spaceAbove < borderMargin || spaceLeft < borderMargin || spaceRight < borderMargin {
		length := straightLength
		if max := spaceAbove - safetyGap; length > max {
			length = max
		}
		if length < 0 {
			length = 0
		}
		return Arrow{
			Start:    geometry.Point2D{X: tip.X, Y: tip.Y - length},
			Tip:      tip,
			Straight: true,
		}
	}

	side := 1.0 // angle toward the roomier side
	avail := spaceRight
	if spaceLeft > spaceRight {
		side = -1.0
		avail = spaceLeft
	}
	reachX := math.Min(maxReachX, avail-safetyGap)
	reachY := math.Min(maxReachY, spaceAbove-safetyGap)

	start := clampPoint(geometry.Point2D{
		X: tip.X + side*reachX,
		Y: tip.Y - reachY,
	}, container)
	return Arrow{Start: start, Tip: tip}
}

func clampPoint(p geometry.Point2D, r geometry.Rect) geometry.Point2D {
	if p.X < r.X {
		p.X = r.X
	}
	if p.X > r.MaxX() {
		p.X = r.MaxX()
	}
	if p.Y < r.Y {
		p.Y = r.Y
	}
	if p.Y > r.MaxY() {
		p.Y = r.MaxY()
	}
	return p
}
