// Package photo runs the detection path against static images: the same
// recognize, filter, and reconstruct steps the live pipeline uses, fed
// from files instead of camera frames.
package photo

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff" // register TIFF decoding

	"github.com/iamethanf20-hub/seeklens/internal/detect"
	"github.com/iamethanf20-hub/seeklens/internal/recog"
	"github.com/iamethanf20-hub/seeklens/pkg/colorutil"
	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
	"github.com/iamethanf20-hub/seeklens/ui/overlay"
)

// Result is the outcome of scanning one photo.
type Result struct {
	Path       string
	Size       geometry.Size // pixel size actually scanned
	Detections []detect.Detection
}

// Load reads a photo from disk with its EXIF orientation applied. When
// maxEdge is positive the image is downscaled so its longest edge does
// not exceed it; recognition gains nothing from full-resolution photos.
func Load(path string, maxEdge int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("cannot load photo %s: %w", path, err)
	}
	b := img.Bounds()
	if maxEdge > 0 && (b.Dx() > maxEdge || b.Dy() > maxEdge) {
		if b.Dx() >= b.Dy() {
			img = imaging.Resize(img, maxEdge, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxEdge, imaging.Lanczos)
		}
	}
	return img, nil
}

// Scan loads a photo and runs the full detection path over it.
func Scan(ctx context.Context, rec recog.Recognizer, path string, cfg detect.MatchConfig, opts recog.Options, maxEdge int) (*Result, error) {
	img, err := Load(path, maxEdge)
	if err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("cannot convert photo %s: %w", path, err)
	}
	defer mat.Close()

	lines, err := rec.Recognize(ctx, mat, opts)
	if err != nil {
		return nil, fmt.Errorf("recognition failed for %s: %w", path, err)
	}

	b := img.Bounds()
	return &Result{
		Path:       path,
		Size:       geometry.NewSize(float64(b.Dx()), float64(b.Dy())),
		Detections: detect.Build(lines, cfg),
	}, nil
}

// Annotate returns a copy of img with detection outlines burned in.
func Annotate(img image.Image, dets []detect.Detection, minConfidence float64) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	size := geometry.NewSize(float64(b.Dx()), float64(b.Dy()))
	drawn := geometry.NewRect(0, 0, size.Width, size.Height)
	col := colorutil.BoxOutline

	for _, box := range overlay.VisibleBoxes(dets, minConfidence, size, drawn, 1, overlay.DefaultEnlargement) {
		drawRectOutline(out, box.Outline, col, 3)
	}
	return out
}

// SaveAnnotated writes an annotated copy of a scanned photo. The format
// follows the destination extension.
func SaveAnnotated(src image.Image, dets []detect.Detection, minConfidence float64, dst string) error {
	if err := imaging.Save(Annotate(src, dets, minConfidence), dst); err != nil {
		return fmt.Errorf("cannot save annotated photo %s: %w", dst, err)
	}
	return nil
}

func drawRectOutline(out *image.RGBA, r geometry.Rect, col color.RGBA, thickness int) {
	x1, y1 := int(r.X), int(r.Y)
	x2, y2 := int(r.MaxX()), int(r.MaxY())
	for t := 0; t < thickness; t++ {
		for x := x1; x <= x2; x++ {
			setPixel(out, x, y1+t, col)
			setPixel(out, x, y2-t, col)
		}
		for y := y1; y <= y2; y++ {
			setPixel(out, x1+t, y, col)
			setPixel(out, x2-t, y, col)
		}
	}
}

func setPixel(out *image.RGBA, x, y int, col color.RGBA) {
	if image.Pt(x, y).In(out.Bounds()) {
		out.SetRGBA(x, y, col)
	}
}
