package detect

import (
	"errors"
	"math"
	"testing"

	"github.com/iamethanf20-hub/seeklens/internal/recog"
	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
)

// boxFunc adapts a function to recog.BoxProvider.
type boxFunc func(start, end int) (geometry.Rect, error)

func (f boxFunc) BoxFor(start, end int) (geometry.Rect, error) { return f(start, end) }

func TestReconstructShortTokenUsesCharFallback(t *testing.T) {
	wordBox := geometry.NewRect(0.1, 0.5, 0.1, 0.05)
	charBoxes := map[int]geometry.Rect{
		0: geometry.NewRect(0.10, 0.50, 0.04, 0.05),
		1: geometry.NewRect(0.15, 0.50, 0.04, 0.05),
	}
	var wordLookups int
	boxes := boxFunc(func(start, end int) (geometry.Rect, error) {
		if end-start == 1 {
			return charBoxes[start], nil
		}
		wordLookups++
		return wordBox, nil
	})

	// "ok": two runes, so the word-level lookup must be bypassed even
	// though it would succeed.
	got, err := ReconstructBox(boxes, 0, 2)
	if err != nil {
		t.Fatalf("ReconstructBox: %v", err)
	}
	if wordLookups != 0 {
		t.Errorf("word-level lookup used %d times for a 2-rune token", wordLookups)
	}
	// Union spans [0.10, 0.19] plus the fallback padding.
	if math.Abs(got.X-0.09) > 1e-9 || math.Abs(got.MaxX()-0.20) > 1e-9 {
		t.Errorf("reconstructed box = %+v, want padded char union", got)
	}
}

func TestReconstructFastPath(t *testing.T) {
	wordBox := geometry.NewRect(0.2, 0.4, 0.2, 0.05)
	var charLookups int
	boxes := boxFunc(func(start, end int) (geometry.Rect, error) {
		if end-start == 1 {
			charLookups++
			return geometry.Rect{}, recog.ErrNoBox
		}
		return wordBox, nil
	})

	got, err := ReconstructBox(boxes, 0, 5)
	if err != nil {
		t.Fatalf("ReconstructBox: %v", err)
	}
	if charLookups != 0 {
		t.Errorf("char lookups = %d on a valid fast path", charLookups)
	}
	want := wordBox.Inset(-fastPadding)
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Width-want.Width) > 1e-9 {
		t.Errorf("fast path box = %+v, want %+v", got, want)
	}
}

func TestReconstructFastPathRejectsBadAspect(t *testing.T) {
	// Engine word box is a sliver (aspect 40); chars are sane.
	boxes := boxFunc(func(start, end int) (geometry.Rect, error) {
		if end-start == 1 {
			return geometry.NewRect(0.1+float64(start)*0.02, 0.5, 0.018, 0.04), nil
		}
		return geometry.NewRect(0.1, 0.5, 0.4, 0.01), nil
	})

	got, err := ReconstructBox(boxes, 0, 6)
	if err != nil {
		t.Fatalf("ReconstructBox: %v", err)
	}
	if got.Width > 0.2 {
		t.Errorf("box %+v looks like the rejected engine sliver", got)
	}
}

func TestReconstructRejectsUnionAspectCeiling(t *testing.T) {
	// A 2-rune token whose char union is 0.2 x 0.01 (aspect 20) exceeds
	// the short-token ceiling and must be dropped, not emitted.
	boxes := boxFunc(func(start, end int) (geometry.Rect, error) {
		if start == 0 {
			return geometry.NewRect(0.1, 0.5, 0.05, 0.01), nil
		}
		return geometry.NewRect(0.25, 0.5, 0.05, 0.01), nil
	})

	_, err := ReconstructBox(boxes, 0, 2)
	if !errors.Is(err, ErrReconstructFailed) {
		t.Fatalf("err = %v, want ErrReconstructFailed", err)
	}
}

func TestReconstructRejectsOversizedUnion(t *testing.T) {
	// Union width 0.5 for a 2-rune token exceeds the short-token width
	// ceiling.
	boxes := boxFunc(func(start, end int) (geometry.Rect, error) {
		if start == 0 {
			return geometry.NewRect(0.1, 0.5, 0.05, 0.05), nil
		}
		return geometry.NewRect(0.55, 0.5, 0.05, 0.05), nil
	})

	if _, err := ReconstructBox(boxes, 0, 2); !errors.Is(err, ErrReconstructFailed) {
		t.Fatalf("err = %v, want ErrReconstructFailed", err)
	}
}

func TestReconstructFailsWhenNoCharResolves(t *testing.T) {
	boxes := boxFunc(func(start, end int) (geometry.Rect, error) {
		return geometry.Rect{}, recog.ErrNoBox
	})

	if _, err := ReconstructBox(boxes, 0, 3); !errors.Is(err, ErrReconstructFailed) {
		t.Fatalf("err = %v, want ErrReconstructFailed", err)
	}
}

func TestReconstructSkipsUnresolvedChars(t *testing.T) {
	// Middle char unresolved; the union still forms from the rest.
	boxes := boxFunc(func(start, end int) (geometry.Rect, error) {
		if start == 1 {
			return geometry.Rect{}, recog.ErrNoBox
		}
		return geometry.NewRect(0.1+float64(start)*0.04, 0.5, 0.03, 0.04), nil
	})

	got, err := ReconstructBox(boxes, 0, 3)
	if err != nil {
		t.Fatalf("ReconstructBox: %v", err)
	}
	if got.Empty() {
		t.Errorf("got empty box %+v", got)
	}
}

func TestReconstructStaysInUnitSquare(t *testing.T) {
	// Char boxes hugging the unit-square edge; padding must clamp.
	boxes := boxFunc(func(start, end int) (geometry.Rect, error) {
		return geometry.NewRect(0.97-float64(start)*0.02, 0.0, 0.03, 0.04), nil
	})

	got, err := ReconstructBox(boxes, 0, 2)
	if err != nil {
		t.Fatalf("ReconstructBox: %v", err)
	}
	if got.X < 0 || got.Y < 0 || got.MaxX() > 1 || got.MaxY() > 1 {
		t.Errorf("box %+v escapes the unit square", got)
	}
}
