package viewfinder

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/iamethanf20-hub/seeklens/internal/detect"
	"github.com/iamethanf20-hub/seeklens/pkg/colorutil"
	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
	"github.com/iamethanf20-hub/seeklens/ui/overlay"
)

const (
	zoomStep = 1.25

	boxThickness   = 3
	arrowThickness = 2
	labelScale     = 2
	labelGap       = 10
)

var (
	boxColor   = colorutil.BoxOutline
	arrowColor = colorutil.Arrow
	labelColor = colorutil.Label
)

// Viewfinder displays the live camera frame with the detection overlay.
// The whole layer (frame plus boxes) moves through one zoom/pan
// transform; overlay geometry is computed at zoom 1 and mapped through
// the same transform the frame uses, so boxes never drift off their
// text while zooming.
type Viewfinder struct {
	widget.BaseWidget

	mu            sync.RWMutex
	frame         image.Image
	detections    []detect.Detection
	minConfidence float64
	view          geometry.ViewTransform
	maxZoom       float64

	raster *fynecanvas.Raster

	dragging bool

	onViewChange func(geometry.ViewTransform)
}

// New creates a viewfinder with no frame and an identity view.
func New(maxZoom float64) *Viewfinder {
	v := &Viewfinder{
		view:    geometry.IdentityView(),
		maxZoom: maxZoom,
	}
	v.raster = fynecanvas.NewRaster(v.draw)
	v.raster.ScaleMode = fynecanvas.ImageScalePixels
	v.raster.SetMinSize(fyne.NewSize(400, 300))
	v.ExtendBaseWidget(v)
	return v
}

func (v *Viewfinder) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// SetFrame replaces the displayed camera frame. Safe to call from the
// pipeline's update callback.
func (v *Viewfinder) SetFrame(img image.Image) {
	v.mu.Lock()
	v.frame = img
	v.mu.Unlock()
	v.raster.Refresh()
}

// SetDetections replaces the overlay contents.
func (v *Viewfinder) SetDetections(dets []detect.Detection) {
	v.mu.Lock()
	v.detections = dets
	v.mu.Unlock()
	v.raster.Refresh()
}

// SetMinConfidence sets the overlay confidence threshold.
func (v *Viewfinder) SetMinConfidence(threshold float64) {
	v.mu.Lock()
	v.minConfidence = threshold
	v.mu.Unlock()
	v.raster.Refresh()
}

// SetMaxZoom sets the upper zoom bound and re-clamps the current view.
func (v *Viewfinder) SetMaxZoom(maxZoom float64) {
	v.mu.Lock()
	v.maxZoom = maxZoom
	v.view = v.view.Clamp(maxZoom)
	v.mu.Unlock()
	v.raster.Refresh()
}

// View returns the current zoom/pan transform.
func (v *Viewfinder) View() geometry.ViewTransform {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.view
}

// OnViewChange sets a callback invoked after zoom or pan changes.
func (v *Viewfinder) OnViewChange(callback func(geometry.ViewTransform)) {
	v.onViewChange = callback
}

// ZoomIn increases the view zoom by one wheel step.
func (v *Viewfinder) ZoomIn() {
	v.applyZoom(zoomStep)
}

// ZoomOut decreases the view zoom by one wheel step.
func (v *Viewfinder) ZoomOut() {
	v.applyZoom(1 / zoomStep)
}

// ResetView returns to zoom 1 with no pan.
func (v *Viewfinder) ResetView() {
	v.mu.Lock()
	v.view = geometry.IdentityView()
	v.mu.Unlock()
	v.notifyView()
	v.raster.Refresh()
}

func (v *Viewfinder) applyZoom(factor float64) {
	v.mu.Lock()
	// Zoom about the viewport center so the subject stays put.
	size := v.Size()
	cx := float64(size.Width) / 2
	cy := float64(size.Height) / 2
	next := v.view
	next.Zoom *= factor
	next.Pan.X = cx - (cx-v.view.Pan.X)*(next.Zoom/v.view.Zoom)
	next.Pan.Y = cy - (cy-v.view.Pan.Y)*(next.Zoom/v.view.Zoom)
	v.view = next.Clamp(v.maxZoom)
	v.mu.Unlock()
	v.notifyView()
	v.raster.Refresh()
}

// Scrolled zooms with the mouse wheel.
func (v *Viewfinder) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		v.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		v.ZoomOut()
	}
}

// Dragged pans the zoomed view. At zoom 1 there is nothing to pan.
func (v *Viewfinder) Dragged(ev *fyne.DragEvent) {
	v.mu.Lock()
	if v.view.Zoom <= 1 {
		v.mu.Unlock()
		return
	}
	v.dragging = true
	v.view.Pan.X += float64(ev.Dragged.DX)
	v.view.Pan.Y += float64(ev.Dragged.DY)
	v.view = v.view.Clamp(v.maxZoom)
	v.mu.Unlock()
	v.notifyView()
	v.raster.Refresh()
}

func (v *Viewfinder) DragEnd() {
	v.mu.Lock()
	v.dragging = false
	v.mu.Unlock()
}

func (v *Viewfinder) notifyView() {
	if v.onViewChange != nil {
		v.onViewChange(v.View())
	}
}

// draw renders the composited output: frame, boxes, labels, arrows.
func (v *Viewfinder) draw(w, h int) image.Image {
	v.mu.RLock()
	frame := v.frame
	dets := v.detections
	threshold := v.minConfidence
	view := v.view
	v.mu.RUnlock()

	output := image.NewRGBA(image.Rect(0, 0, w, h))
	if frame == nil || w <= 0 || h <= 0 {
		return output
	}

	fb := frame.Bounds()
	imgSize := geometry.NewSize(float64(fb.Dx()), float64(fb.Dy()))
	containerSize := geometry.NewSize(float64(w), float64(h))

	base, scale := geometry.FitRect(imgSize, containerSize)
	if scale <= 0 {
		return output
	}
	layer := view.ApplyRect(base)

	v.drawFrame(output, frame, layer)

	boxes := overlay.VisibleBoxes(dets, threshold, imgSize, base, scale, overlay.DefaultEnlargement)
	for _, box := range boxes {
		outline := view.ApplyRect(box.Outline)
		drawRectOutline(output, outline, boxColor, boxThickness)

		arrow := overlay.PlaceArrow(view.ApplyRect(box.Frame), layer)
		drawArrow(output, arrow, arrowColor, arrowThickness)

		labelY := int(outline.Y) - labelGap
		if labelY < 8 {
			labelY = int(outline.MaxY()) + labelGap
		}
		drawLabel(output, box.Detection.Text, int(outline.Center().X), labelY, labelColor, labelScale)
	}
	return output
}

// drawFrame scales the frame into the layer rectangle with
// nearest-neighbor sampling.
func (v *Viewfinder) drawFrame(output *image.RGBA, frame image.Image, layer geometry.Rect) {
	if layer.Empty() {
		return
	}
	fb := frame.Bounds()
	bounds := output.Bounds()

	x0 := clampInt(int(layer.X), bounds.Min.X, bounds.Max.X)
	y0 := clampInt(int(layer.Y), bounds.Min.Y, bounds.Max.Y)
	x1 := clampInt(int(layer.MaxX()), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(layer.MaxY()), bounds.Min.Y, bounds.Max.Y)

	sx := float64(fb.Dx()) / layer.Width
	sy := float64(fb.Dy()) / layer.Height

	for y := y0; y < y1; y++ {
		srcY := fb.Min.Y + int((float64(y)-layer.Y)*sy)
		if srcY < fb.Min.Y {
			srcY = fb.Min.Y
		}
		if srcY >= fb.Max.Y {
			srcY = fb.Max.Y - 1
		}
		for x := x0; x < x1; x++ {
			srcX := fb.Min.X + int((float64(x)-layer.X)*sx)
			if srcX < fb.Min.X {
				srcX = fb.Min.X
			}
			if srcX >= fb.Max.X {
				srcX = fb.Max.X - 1
			}
			output.Set(x, y, frame.At(srcX, srcY))
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
