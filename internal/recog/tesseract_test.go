package recog

import (
	"image"
	"math"
	"testing"

	"github.com/otiai10/gosseract/v2"

	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
)

func word(text string, x1, y1, x2, y2 int) gosseract.BoundingBox {
	return gosseract.BoundingBox{
		Box:        image.Rect(x1, y1, x2, y2),
		Word:       text,
		Confidence: 90,
		BlockNum:   1,
		ParNum:     1,
		LineNum:    1,
	}
}

func symbol(x1, y1, x2, y2 int) gosseract.BoundingBox {
	return gosseract.BoundingBox{Box: image.Rect(x1, y1, x2, y2), Confidence: 90}
}

func TestAssembleLinesGroupsWordsIntoLines(t *testing.T) {
	words := []gosseract.BoundingBox{
		word("NEW", 100, 100, 200, 140),
		word("YORK", 220, 100, 350, 140),
	}

	lines := assembleLines(words, nil, geometry.NewSize(1000, 500))
	if len(lines) != 1 {
		t.Fatalf("assembleLines produced %d lines, want 1", len(lines))
	}
	ln := lines[0]
	if ln.Text != "NEW YORK" {
		t.Errorf("line text = %q", ln.Text)
	}
	if math.Abs(ln.Confidence-0.9) > 1e-9 {
		t.Errorf("confidence = %v, want 0.9", ln.Confidence)
	}
	// Union of both word boxes, normalized with the bottom-left flip.
	if math.Abs(ln.Box.X-0.1) > 1e-9 || math.Abs(ln.Box.Width-0.25) > 1e-9 {
		t.Errorf("line box = %+v", ln.Box)
	}
	if math.Abs(ln.Box.Y-(1-140.0/500)) > 1e-9 {
		t.Errorf("line box Y = %v", ln.Box.Y)
	}
}

func TestAssembleLinesSkipsStraySymbols(t *testing.T) {
	words := []gosseract.BoundingBox{
		word("NEW", 100, 100, 200, 140),
		word("YORK", 220, 100, 350, 140),
	}
	symbols := []gosseract.BoundingBox{
		symbol(10, 10, 20, 20), // noise above every word
		symbol(105, 105, 130, 135),
		symbol(135, 105, 160, 135),
		symbol(165, 105, 195, 135),
		symbol(205, 108, 215, 132), // noise between the words
		symbol(225, 105, 255, 135),
		symbol(258, 105, 285, 135),
		symbol(288, 105, 315, 135),
		symbol(318, 105, 345, 135),
	}

	lines := assembleLines(words, symbols, geometry.NewSize(1000, 500))
	if len(lines) != 1 {
		t.Fatalf("assembleLines produced %d lines, want 1", len(lines))
	}
	boxes := lines[0].Boxes

	// Char geometry for the first rune must resolve despite the leading
	// noise symbol.
	b, err := boxes.BoxFor(0, 1)
	if err != nil {
		t.Fatalf("BoxFor(0,1): %v", err)
	}
	if math.Abs(b.X-0.105) > 1e-9 || math.Abs(b.Width-0.025) > 1e-9 {
		t.Errorf("first char box = %+v", b)
	}

	// And runes in the second word must resolve despite the noise symbol
	// sitting between the words.
	b, err = boxes.BoxFor(4, 5)
	if err != nil {
		t.Fatalf("BoxFor(4,5): %v", err)
	}
	if math.Abs(b.X-0.225) > 1e-9 || math.Abs(b.Width-0.030) > 1e-9 {
		t.Errorf("'Y' char box = %+v", b)
	}
}

func TestSymbolBefore(t *testing.T) {
	w := geometry.NewRect(220, 100, 130, 40)
	tests := []struct {
		name string
		s    geometry.Rect
		want bool
	}{
		{"above", geometry.NewRect(10, 10, 10, 10), true},
		{"same band, left", geometry.NewRect(205, 108, 10, 24), true},
		{"inside", geometry.NewRect(225, 105, 30, 30), false},
		{"same band, right", geometry.NewRect(360, 105, 10, 30), false},
		{"below", geometry.NewRect(10, 200, 10, 10), false},
	}
	for _, tt := range tests {
		if got := symbolBefore(tt.s, w); got != tt.want {
			t.Errorf("%s: symbolBefore = %v, want %v", tt.name, got, tt.want)
		}
	}
}
