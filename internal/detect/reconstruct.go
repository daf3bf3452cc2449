package detect

import (
	"errors"

	"github.com/iamethanf20-hub/seeklens/internal/recog"
	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
)

// Reconstruction tuning. Word-level geometry from the engine is
// unreliable for very short tokens, so those always take the
// character-union path; the union is then validated against ceilings so
// a wrong box is dropped rather than drawn.
const (
	// fastPathMinRunes is the smallest token length allowed to use the
	// engine's word-level lookup directly.
	fastPathMinRunes = 4

	minBoxDim = 1e-4

	fastAspectMin = 0.5
	fastAspectMax = 20.0
	fastPadding   = 0.02

	unionWidthMaxShort = 0.30 // tokens of 1-2 runes
	unionWidthMax      = 0.95
	unionHeightMax     = 0.35
	unionPadding       = 0.01
)

// ErrReconstructFailed is returned when no plausible box could be
// produced for the requested range.
var ErrReconstructFailed = errors.New("detect: box reconstruction failed")

// ReconstructBox produces a tight, visually plausible box for the rune
// range [start, end) of a recognized line.
//
// Tokens of four or more runes first try the engine's own sub-range
// lookup; shorter tokens, and tokens whose engine box fails validation,
// fall back to unioning per-character boxes. Every returned box lies
// within the unit square.
func ReconstructBox(boxes recog.BoxProvider, start, end int) (geometry.Rect, error) {
	runes := end - start
	if runes <= 0 {
		return geometry.Rect{}, ErrReconstructFailed
	}

	if runes >= fastPathMinRunes {
		if box, err := boxes.BoxFor(start, end); err == nil && fastPathValid(box) {
			return box.Inset(-fastPadding).ClampToUnit(), nil
		}
	}

	var union geometry.Rect
	resolved := false
	for i := start; i < end; i++ {
		c, err := boxes.BoxFor(i, i+1)
		if err != nil {
			continue
		}
		if !resolved {
			union = c
			resolved = true
		} else {
			union = union.Union(c)
		}
	}
	if !resolved {
		return geometry.Rect{}, ErrReconstructFailed
	}
	if !unionValid(union, runes) {
		return geometry.Rect{}, ErrReconstructFailed
	}
	return union.Inset(-unionPadding).ClampToUnit(), nil
}

func fastPathValid(b geometry.Rect) bool {
	if b.Width <= minBoxDim || b.Height <= minBoxDim {
		return false
	}
	aspect := b.Width / b.Height
	return aspect >= fastAspectMin && aspect <= fastAspectMax
}

// unionValid checks a character-union box against length-dependent
// ceilings. A two-character token simply cannot span a third of the
// frame; when it appears to, some character box was garbage.
func unionValid(b geometry.Rect, runes int) bool {
	if b.Width <= minBoxDim || b.Height <= minBoxDim {
		return false
	}
	widthMax := unionWidthMax
	if runes <= 2 {
		widthMax = unionWidthMaxShort
	}
	if b.Width > widthMax || b.Height > unionHeightMax {
		return false
	}
	return b.Width/b.Height <= aspectCeiling(runes)
}

// aspectCeiling grows with token length; long words are legitimately
// wide, short ones are not.
func aspectCeiling(runes int) float64 {
	c := 2.5 * float64(runes)
	if c < 8 {
		c = 8
	}
	return c
}
