package pipeline

import (
	"math"
	"testing"
	"time"
)

func TestClampZoom(t *testing.T) {
	tests := []struct {
		name                              string
		requested, configuredMax, deviceMax, want float64
	}{
		{"request above both ceilings", 10, 4, 4, 4},
		{"device ceiling lower", 5, 6, 2, 2},
		{"configured ceiling lower", 5, 3, 6, 3},
		{"below minimum", 0.5, 4, 4, 1},
		{"within range", 2.5, 4, 4, 2.5},
		{"ignores bogus ceilings", 3, 0, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampZoom(tt.requested, tt.configuredMax, tt.deviceMax)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ClampZoom(%v, %v, %v) = %v, want %v",
					tt.requested, tt.configuredMax, tt.deviceMax, got, tt.want)
			}
		})
	}
}

func TestRampTowardConvergesMonotonically(t *testing.T) {
	applied := 1.0
	target := 3.0
	steps := 0
	for {
		next, settled := rampToward(applied, target)
		if next < applied {
			t.Fatalf("ramp moved backwards: %v -> %v", applied, next)
		}
		if next-applied > rampStep+1e-12 {
			t.Fatalf("ramp step too large: %v -> %v", applied, next)
		}
		applied = next
		steps++
		if settled {
			break
		}
		if steps > 1000 {
			t.Fatal("ramp never settled")
		}
	}
	if applied != target {
		t.Errorf("settled at %v, want %v", applied, target)
	}
}

func TestRampTowardDownward(t *testing.T) {
	applied, settled := rampToward(2.0, 1.0)
	if settled || applied >= 2.0 || applied < 1.0 {
		t.Errorf("rampToward(2, 1) = (%v, %v)", applied, settled)
	}
}

func TestSessionZoomClampAndRamp(t *testing.T) {
	cam := newFakeCamera(0)
	defer cam.release()
	s := newTestSession(cam, &fakeRecognizer{})
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer s.Close()

	s.SetZoom(10)
	if got := s.ZoomTarget(); got != 4 {
		t.Fatalf("ZoomTarget = %v, want 4 (configuredMax=4, deviceMax=4)", got)
	}

	// The ramp loop should carry the applied factor to the target.
	deadline := time.After(3 * time.Second)
	for s.Zoom() != 4 {
		select {
		case <-deadline:
			t.Fatalf("applied zoom stuck at %v, want 4", s.Zoom())
		case <-time.After(10 * time.Millisecond):
		}
	}

	// The device saw the final factor too.
	cam.mu.Lock()
	devZoom := cam.zoom
	cam.mu.Unlock()
	if devZoom != 4 {
		t.Errorf("device zoom = %v, want 4", devZoom)
	}
}
