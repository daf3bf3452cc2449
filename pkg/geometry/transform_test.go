package geometry

import (
	"math"
	"testing"
)

const tol = 1e-9

func rectsClose(a, b Rect) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol &&
		math.Abs(a.Width-b.Width) < tol && math.Abs(a.Height-b.Height) < tol
}

func TestNormalizedToPixelFlipsVerticalAxis(t *testing.T) {
	// A box hugging the bottom of the unit square lands at the bottom of
	// the pixel image (large Y in top-left coordinates).
	b := NewRect(0.1, 0.0, 0.2, 0.1)
	img := NewSize(1000, 500)

	got := NormalizedToPixel(b, img)
	want := NewRect(100, 450, 200, 50)
	if !rectsClose(got, want) {
		t.Errorf("NormalizedToPixel(%+v) = %+v, want %+v", b, got, want)
	}
}

func TestNormalizedPixelRoundTrip(t *testing.T) {
	img := NewSize(1920, 1080)
	boxes := []Rect{
		{X: 0, Y: 0, Width: 1, Height: 1},
		{X: 0.25, Y: 0.5, Width: 0.3, Height: 0.1},
		{X: 0.9, Y: 0.05, Width: 0.1, Height: 0.02},
		{X: 0.333, Y: 0.667, Width: 0.001, Height: 0.25},
	}
	for _, b := range boxes {
		back := PixelToNormalized(NormalizedToPixel(b, img), img)
		if !rectsClose(b, back) {
			t.Errorf("round trip of %+v returned %+v", b, back)
		}
	}
}

func TestNormalizedToPixelDegenerateImage(t *testing.T) {
	got := NormalizedToPixel(NewRect(0.1, 0.1, 0.5, 0.5), Size{})
	if !got.Empty() {
		t.Errorf("expected empty rect for zero image size, got %+v", got)
	}
}

func TestPixelToDisplay(t *testing.T) {
	b := NewRect(100, 50, 200, 100)
	drawn := NewRect(20, 10, 960, 540)

	got := PixelToDisplay(b, drawn, 0.5, 0.5)
	want := NewRect(70, 35, 100, 50)
	if !rectsClose(got, want) {
		t.Errorf("PixelToDisplay = %+v, want %+v", got, want)
	}
}

func TestFitRectCentersAndPreservesAspect(t *testing.T) {
	drawn, scale := FitRect(NewSize(400, 300), NewSize(800, 800))
	if math.Abs(scale-2.0) > tol {
		t.Fatalf("scale = %v, want 2.0", scale)
	}
	want := NewRect(0, 100, 800, 600)
	if !rectsClose(drawn, want) {
		t.Errorf("FitRect = %+v, want %+v", drawn, want)
	}
}

func TestViewTransformClamp(t *testing.T) {
	tests := []struct {
		name     string
		in       ViewTransform
		maxZoom  float64
		wantZoom float64
		wantPan  Point2D
	}{
		{"below minimum", ViewTransform{Zoom: 0.5}, 4, 1, Point2D{}},
		{"above maximum", ViewTransform{Zoom: 10}, 4, 4, Point2D{}},
		{"pan survives when zoomed", ViewTransform{Zoom: 2, Pan: Point2D{X: 30, Y: -10}}, 4, 2, Point2D{X: 30, Y: -10}},
		{"pan resets at zoom 1", ViewTransform{Zoom: 1, Pan: Point2D{X: 30, Y: -10}}, 4, 1, Point2D{}},
		{"pan resets just above 1", ViewTransform{Zoom: 1.005, Pan: Point2D{X: 5, Y: 5}}, 4, 1.005, Point2D{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Clamp(tt.maxZoom)
			if math.Abs(got.Zoom-tt.wantZoom) > tol {
				t.Errorf("zoom = %v, want %v", got.Zoom, tt.wantZoom)
			}
			if got.Pan != tt.wantPan {
				t.Errorf("pan = %+v, want %+v", got.Pan, tt.wantPan)
			}
		})
	}
}

func TestViewTransformApplyRect(t *testing.T) {
	v := ViewTransform{Zoom: 2, Pan: Point2D{X: 10, Y: 20}}
	got := v.ApplyRect(NewRect(5, 5, 50, 25))
	want := NewRect(20, 30, 100, 50)
	if !rectsClose(got, want) {
		t.Errorf("ApplyRect = %+v, want %+v", got, want)
	}
}

func TestRectScaledAbout(t *testing.T) {
	r := NewRect(10, 10, 20, 10)
	got := r.ScaledAbout(1.1)
	if !rectsClose(got, NewRect(9, 9.5, 22, 11)) {
		t.Errorf("ScaledAbout = %+v", got)
	}
	if got.Center() != r.Center() {
		t.Errorf("center moved: %+v -> %+v", r.Center(), got.Center())
	}
}

func TestRectClampToUnit(t *testing.T) {
	r := NewRect(-0.05, 0.9, 0.3, 0.3)
	got := r.ClampToUnit()
	if !rectsClose(got, NewRect(0, 0.9, 0.25, 0.1)) {
		t.Errorf("ClampToUnit = %+v", got)
	}
}
