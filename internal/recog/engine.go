// Package recog defines the boundary to the text recognition engine and
// provides a Tesseract-backed implementation.
package recog

import (
	"context"
	"errors"

	"gocv.io/x/gocv"

	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
)

// Accuracy selects the speed/quality trade-off for a recognition pass.
type Accuracy int

const (
	// AccuracyFast favors latency; used for the continuous live preview.
	AccuracyFast Accuracy = iota
	// AccuracyAccurate favors quality; used for static photos.
	AccuracyAccurate
)

// Options configures a single recognition pass.
type Options struct {
	// Languages in priority order ("eng", "deu", ...). Empty means "eng".
	Languages []string
	Accuracy  Accuracy
	// MinTextHeight drops lines whose normalized height is below this
	// value (0 keeps everything).
	MinTextHeight float64
	// CustomWords biases recognition toward domain vocabulary.
	CustomWords []string
}

// BoxProvider looks up the bounding box of a rune range within a
// recognized line. Offsets are rune indices into the line's text.
// Returned boxes are normalized to the unit square with a bottom-left
// origin, matching RecognizedLine.Box.
type BoxProvider interface {
	BoxFor(start, end int) (geometry.Rect, error)
}

// ErrNoBox is returned by a BoxProvider when no geometry could be
// resolved for the requested range.
var ErrNoBox = errors.New("recog: no box for range")

// RecognizedLine is one line-level result from a recognition pass.
// Lines are built fresh for every frame and never mutated; they carry no
// identity across frames.
type RecognizedLine struct {
	Text       string
	Confidence float64       // 0..1
	Box        geometry.Rect // normalized, bottom-left origin
	Boxes      BoxProvider   // sub-range lookup within this line
}

// Recognizer produces line-level text observations from a frame.
type Recognizer interface {
	Recognize(ctx context.Context, frame gocv.Mat, opts Options) ([]RecognizedLine, error)
}
