package viewfinder

import (
	"image"
	"image/color"
	"testing"

	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
	"github.com/iamethanf20-hub/seeklens/ui/overlay"
)

var red = color.RGBA{R: 255, A: 255}

func countColored(img *image.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == red {
				n++
			}
		}
	}
	return n
}

func TestDrawLineHorizontal(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	drawLine(img, 10, 50, 90, 50, red, 1)

	for x := 10; x <= 90; x++ {
		if img.RGBAAt(x, 50) != red {
			t.Fatalf("gap in line at x=%d", x)
		}
	}
}

func TestDrawLineStaysInBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	// Endpoints well outside the image must not panic.
	drawLine(img, -20, -20, 80, 80, red, 3)
	if countColored(img) == 0 {
		t.Fatal("clipped line drew nothing inside the image")
	}
}

func TestDrawRectOutlineCorners(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	drawRectOutline(img, geometry.NewRect(20, 30, 40, 20), red, 1)

	for _, p := range []image.Point{{20, 30}, {60, 30}, {60, 50}, {20, 50}} {
		if img.RGBAAt(p.X, p.Y) != red {
			t.Errorf("corner %v not drawn", p)
		}
	}
	if img.RGBAAt(40, 40) == red {
		t.Error("outline filled the interior")
	}
}

func TestDrawArrowMarksTip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	a := overlay.Arrow{
		Start: geometry.Point2D{X: 20, Y: 20},
		Tip:   geometry.Point2D{X: 60, Y: 70},
	}
	drawArrow(img, a, red, 1)

	if img.RGBAAt(60, 70) != red {
		t.Error("tip pixel not drawn")
	}
	if img.RGBAAt(20, 20) != red {
		t.Error("start pixel not drawn")
	}
}

func TestDrawLabelRendersGlyphs(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 60))
	drawLabel(img, "EXIT 9", 100, 30, red, 2)
	if countColored(img) == 0 {
		t.Fatal("label drew nothing")
	}

	// Unknown glyphs fall back to blank rather than garbage.
	blank := image.NewRGBA(image.Rect(0, 0, 200, 60))
	drawLabel(blank, "???", 100, 30, red, 2)
	if countColored(blank) != 0 {
		t.Error("unsupported characters drew pixels")
	}
}

func TestGetCharPatternCaseFolds(t *testing.T) {
	if getCharPattern('e') != getCharPattern('E') {
		t.Error("lowercase not folded to uppercase")
	}
	if getCharPattern('7') != digitPatterns[7] {
		t.Error("digit lookup broken")
	}
}
