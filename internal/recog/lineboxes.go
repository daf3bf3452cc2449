package recog

import (
	"fmt"

	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
)

// wordSpan is one recognized word with its rune range within the line.
type wordSpan struct {
	start, end int // rune offsets, half-open
	box        geometry.Rect
}

// lineBoxes implements BoxProvider for one recognized line. Word boxes
// answer exact word-range lookups directly; everything else is answered
// from per-rune symbol boxes. Runes without a resolved symbol box (the
// spaces between words, glyphs Tesseract merged) have a nil entry.
type lineBoxes struct {
	runeCount int
	words     []wordSpan
	chars     []*geometry.Rect
}

// BoxFor returns the normalized box covering the rune range [start, end).
func (lb *lineBoxes) BoxFor(start, end int) (geometry.Rect, error) {
	if start < 0 || end > lb.runeCount || start >= end {
		return geometry.Rect{}, fmt.Errorf("recog: range [%d,%d) outside line of %d runes", start, end, lb.runeCount)
	}

	// Exact word ranges come straight from the word-level geometry.
	for _, w := range lb.words {
		if w.start == start && w.end == end {
			return w.box, nil
		}
	}

	var union geometry.Rect
	found := false
	for i := start; i < end; i++ {
		c := lb.chars[i]
		if c == nil {
			continue
		}
		if !found {
			union = *c
			found = true
		} else {
			union = union.Union(*c)
		}
	}
	if !found {
		return geometry.Rect{}, ErrNoBox
	}
	return union, nil
}
