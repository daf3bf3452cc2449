// Package pipeline runs the live capture session: frame throttling,
// off-thread recognition, and epoch-guarded publishing of detections.
package pipeline

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// Orientation describes how a frame is rotated or mirrored relative to
// the sensor's native orientation. It travels with each frame
// explicitly; nothing infers it from ambient device state.
type Orientation int

const (
	OrientationIdentity Orientation = iota
	OrientationRotate90
	OrientationRotate180
	OrientationRotate270
	OrientationMirrored
	OrientationMirroredRotate90
	OrientationMirroredRotate180
	OrientationMirroredRotate270
)

// Frame is one captured camera image with its capture timestamp.
type Frame struct {
	Mat         gocv.Mat
	Timestamp   time.Time
	Orientation Orientation
}

// Camera abstracts the capture device: a stream of frames plus zoom
// control.
type Camera interface {
	// Open acquires the device. It is called once, from Setup.
	Open() error
	// Read fills mat with the next frame, blocking at device rate.
	// It returns false when the device has no more frames.
	Read(mat *gocv.Mat) bool
	// SetZoom applies an optical/digital zoom factor on the device.
	SetZoom(factor float64) error
	// ZoomRange returns the device's supported zoom span.
	ZoomRange() (min, max float64)
	Close() error
}

// Webcam is a Camera over an OpenCV video capture device.
type Webcam struct {
	deviceID int
	maxZoom  float64
	cap      *gocv.VideoCapture
}

// NewWebcam creates a webcam camera for the given device ID. OpenCV
// does not report a zoom range, so the device ceiling is configured.
func NewWebcam(deviceID int, maxZoom float64) *Webcam {
	if maxZoom < 1 {
		maxZoom = 1
	}
	return &Webcam{deviceID: deviceID, maxZoom: maxZoom}
}

// Open acquires the capture device. Re-opening releases any handle
// still held from a previous run.
func (w *Webcam) Open() error {
	if w.cap != nil {
		w.cap.Close()
		w.cap = nil
	}
	cap, err := gocv.OpenVideoCapture(w.deviceID)
	if err != nil {
		return fmt.Errorf("cannot open camera %d: %w", w.deviceID, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("camera %d is not available", w.deviceID)
	}
	w.cap = cap
	return nil
}

// Read fills mat with the next frame.
func (w *Webcam) Read(mat *gocv.Mat) bool {
	if w.cap == nil {
		return false
	}
	return w.cap.Read(mat)
}

// SetZoom applies a zoom factor through the capture property.
func (w *Webcam) SetZoom(factor float64) error {
	if w.cap == nil {
		return fmt.Errorf("camera not open")
	}
	w.cap.Set(gocv.VideoCaptureZoom, factor)
	return nil
}

// ZoomRange returns the supported zoom span.
func (w *Webcam) ZoomRange() (float64, float64) {
	return 1, w.maxZoom
}

// Close releases the device.
func (w *Webcam) Close() error {
	if w.cap == nil {
		return nil
	}
	err := w.cap.Close()
	w.cap = nil
	return err
}

// orient returns a copy of mat with the frame orientation applied, so
// recognition always sees upright text. Identity frames are returned
// as-is without a copy.
func orient(mat gocv.Mat, o Orientation) gocv.Mat {
	if o == OrientationIdentity {
		return mat
	}

	out := gocv.NewMat()
	switch o {
	case OrientationRotate90:
		gocv.Rotate(mat, &out, gocv.Rotate90Clockwise)
	case OrientationRotate180:
		gocv.Rotate(mat, &out, gocv.Rotate180Clockwise)
	case OrientationRotate270:
		gocv.Rotate(mat, &out, gocv.Rotate90CounterClockwise)
	case OrientationMirrored:
		gocv.Flip(mat, &out, 1)
	case OrientationMirroredRotate90:
		gocv.Rotate(mat, &out, gocv.Rotate90Clockwise)
		gocv.Flip(out, &out, 1)
	case OrientationMirroredRotate180:
		gocv.Flip(mat, &out, 0)
	case OrientationMirroredRotate270:
		gocv.Rotate(mat, &out, gocv.Rotate90CounterClockwise)
		gocv.Flip(out, &out, 1)
	default:
		mat.CopyTo(&out)
	}
	return out
}
