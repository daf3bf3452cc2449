package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/iamethanf20-hub/seeklens/internal/detect"
	"github.com/iamethanf20-hub/seeklens/internal/recog"
)

// State is the capture session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConfiguring
	StateRunning
	StateStopped
	// StateError is terminal until a fresh Setup call.
	StateError
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfiguring:
		return "configuring"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrDeviceUnavailable means the camera could not be acquired (missing
	// device, permission denied). Fatal to the session; the user must fix
	// the cause and set up again. Never retried automatically.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrConfiguration means the session could not be assembled.
	ErrConfiguration = errors.New("capture session configuration failed")
)

// Defaults for session configuration.
const (
	DefaultMinInterval = 300 * time.Millisecond
	DefaultMaxZoom     = 4.0
)

// Config assembles a capture session.
type Config struct {
	Camera     Camera
	Recognizer recog.Recognizer

	// Match is the initial filter; changeable at runtime via
	// SetMatchConfig.
	Match detect.MatchConfig

	// Recognition options passed to every recognition pass.
	Recognition recog.Options

	// MinInterval is the frame throttle (DefaultMinInterval when zero).
	MinInterval time.Duration

	// MaxZoom is the configured zoom ceiling (DefaultMaxZoom when zero).
	MaxZoom float64
}

type workItem struct {
	frame Frame
	epoch uint64
}

// Session owns the live detection pipeline for one camera. All mutable
// state lives on the session and dies with it; there are no package
// globals. The frame-delivery goroutine shares exactly one piece of
// state with the throttle decision — the last accepted timestamp —
// guarded by the session mutex.
type Session struct {
	cfg   Config
	clock func() time.Time

	mu           sync.Mutex
	state        State
	epoch        uint64
	lastAccepted time.Time
	match        detect.MatchConfig
	lastErr      error

	ctx    context.Context
	cancel context.CancelFunc
	work   chan workItem
	wg     sync.WaitGroup

	readyOnce sync.Once
	ready     chan struct{}

	// Publish point: single writer (the recognition worker), read-mostly.
	pubMu      sync.RWMutex
	lines      []recog.RecognizedLine
	detections []detect.Detection
	onUpdate   func([]detect.Detection)
	onFrame    func(image.Image)

	zoomMu      sync.Mutex
	zoomTarget  float64
	zoomApplied float64
}

// NewSession creates a session in the Idle state.
func NewSession(cfg Config) *Session {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.MaxZoom < 1 {
		cfg.MaxZoom = DefaultMaxZoom
	}
	return &Session{
		cfg:         cfg,
		clock:       time.Now,
		state:       StateIdle,
		match:       cfg.Match,
		ready:       make(chan struct{}),
		zoomTarget:  1,
		zoomApplied: 1,
	}
}

// Setup acquires the camera and starts the capture and recognition
// goroutines, moving the session to Running. Allowed from Idle and from
// Error (a fresh setup is the only way out of Error).
func (s *Session) Setup() error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateError {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: setup from state %s", ErrConfiguration, state)
	}
	s.state = StateConfiguring
	s.lastErr = nil
	cancel := s.cancel
	s.mu.Unlock()

	// A session recovering from Error may still have workers parked on
	// the previous context; they must be gone before the context and
	// work channel are replaced, or two recognition workers would share
	// one channel.
	if cancel != nil {
		cancel()
		s.wg.Wait()
	}

	if s.cfg.Camera == nil || s.cfg.Recognizer == nil {
		err := fmt.Errorf("%w: camera and recognizer are required", ErrConfiguration)
		s.setError(err)
		return err
	}
	if err := s.cfg.Camera.Open(); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		s.setError(wrapped)
		return wrapped
	}

	s.mu.Lock()
	s.state = StateRunning
	s.epoch++
	s.lastAccepted = time.Time{}
	s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.work = make(chan workItem)

	s.wg.Add(3)
	go s.captureLoop()
	go s.recognitionLoop()
	go s.zoomLoop()
	return nil
}

// Stop pauses detection. Idempotent; in-flight recognition results are
// discarded by the state guard in publishLines.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StateStopped
	}
}

// Start resumes a stopped session. The epoch bump invalidates any
// recognition still in flight from before the stop.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStopped {
		return fmt.Errorf("%w: start from state %s", ErrConfiguration, s.state)
	}
	s.state = StateRunning
	s.epoch++
	s.lastAccepted = time.Time{}
	return nil
}

// Close tears the session down and releases the camera.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateRunning {
		s.state = StateStopped
	}
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	if s.cfg.Camera != nil {
		return s.cfg.Camera.Close()
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that moved the session to StateError, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Ready is closed when the first camera frame has been received; the
// view layer uses it instead of a readiness timer.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Detections returns the latest published detection set.
func (s *Session) Detections() []detect.Detection {
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()
	out := make([]detect.Detection, len(s.detections))
	copy(out, s.detections)
	return out
}

// OnUpdate registers a callback fired (outside any lock) whenever a new
// detection set is published. The callback must not mutate the slice.
func (s *Session) OnUpdate(fn func([]detect.Detection)) {
	s.pubMu.Lock()
	s.onUpdate = fn
	s.pubMu.Unlock()
}

// OnFrame registers a callback fired at capture rate with each decoded
// frame, independent of the recognition throttle. The view layer uses it
// to keep the live picture smooth while detection runs at its own pace.
func (s *Session) OnFrame(fn func(image.Image)) {
	s.pubMu.Lock()
	s.onFrame = fn
	s.pubMu.Unlock()
}

// SetMatchConfig swaps the filter and re-evaluates it against the most
// recent recognized lines, so a query change updates the overlay without
// waiting for the next accepted frame.
func (s *Session) SetMatchConfig(cfg detect.MatchConfig) {
	s.mu.Lock()
	s.match = cfg
	s.mu.Unlock()

	s.pubMu.Lock()
	s.detections = detect.Build(s.lines, cfg)
	dets := s.detections
	cb := s.onUpdate
	s.pubMu.Unlock()
	if cb != nil {
		cb(dets)
	}
}

// MatchConfig returns the active filter configuration.
func (s *Session) MatchConfig() detect.MatchConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match
}

// acceptFrame is the throttle: a frame passes only when the session is
// running and at least MinInterval has elapsed since the last accepted
// frame. The timestamp is recorded before recognition starts, so an
// overlapping late frame is rejected rather than queued.
func (s *Session) acceptFrame(ts time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false
	}
	if !s.lastAccepted.IsZero() && ts.Sub(s.lastAccepted) < s.cfg.MinInterval {
		return false
	}
	s.lastAccepted = ts
	return true
}

func (s *Session) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	s.state = StateError
	s.lastErr = err
	cancel := s.cancel
	s.mu.Unlock()

	// Error is terminal until a fresh Setup; stop the remaining workers
	// now instead of leaving them running against a failed session.
	if cancel != nil {
		cancel()
	}
	log.Printf("capture session error: %v", err)
}

// captureLoop drains the camera at device rate and offers accepted
// frames to the recognition worker. Frames arriving while recognition is
// busy are dropped, never buffered; the newest frame always wins.
func (s *Session) captureLoop() {
	defer s.wg.Done()
	misses := 0
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		mat := gocv.NewMat()
		if !s.cfg.Camera.Read(&mat) {
			mat.Close()
			misses++
			if misses >= 30 {
				s.setError(fmt.Errorf("%w: camera stopped delivering frames", ErrDeviceUnavailable))
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		misses = 0
		s.readyOnce.Do(func() { close(s.ready) })

		s.pubMu.RLock()
		fcb := s.onFrame
		s.pubMu.RUnlock()
		if fcb != nil {
			if img, err := mat.ToImage(); err == nil {
				fcb(img)
			}
		}

		ts := s.clock()
		if !s.acceptFrame(ts) {
			mat.Close()
			continue
		}

		item := workItem{
			frame: Frame{Mat: mat, Timestamp: ts, Orientation: OrientationIdentity},
			epoch: s.currentEpoch(),
		}
		select {
		case s.work <- item:
		case <-s.ctx.Done():
			mat.Close()
			return
		default:
			// Recognition still busy with the previous frame.
			mat.Close()
		}
	}
}

// recognitionLoop is the single dedicated worker; at most one
// recognition is ever in flight.
func (s *Session) recognitionLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case item := <-s.work:
			s.processFrame(item)
		}
	}
}

func (s *Session) processFrame(item workItem) {
	defer item.frame.Mat.Close()

	upright := orient(item.frame.Mat, item.frame.Orientation)
	if item.frame.Orientation != OrientationIdentity {
		defer upright.Close()
	}

	lines, err := s.cfg.Recognizer.Recognize(s.ctx, upright, s.cfg.Recognition)
	if err != nil {
		// One bad frame must not blank the overlay; keep what we have.
		log.Printf("recognition failed, keeping previous detections: %v", err)
		return
	}
	s.publishLines(lines, item.epoch)
}

// publishLines installs a new recognition result unless it is stale: a
// result computed under an older epoch, or landing after a stop, is
// discarded.
func (s *Session) publishLines(lines []recog.RecognizedLine, epoch uint64) {
	s.mu.Lock()
	if epoch != s.epoch || s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	match := s.match
	s.mu.Unlock()

	dets := detect.Build(lines, match)

	s.pubMu.Lock()
	s.lines = lines
	s.detections = dets
	cb := s.onUpdate
	s.pubMu.Unlock()
	if cb != nil {
		cb(dets)
	}
}

// SetZoom requests a zoom factor. The request is clamped to
// [1, min(configured ceiling, device ceiling)] and ramped smoothly by
// the zoom loop rather than applied as a step.
func (s *Session) SetZoom(requested float64) {
	_, deviceMax := s.cfg.Camera.ZoomRange()
	target := ClampZoom(requested, s.cfg.MaxZoom, deviceMax)

	s.zoomMu.Lock()
	s.zoomTarget = target
	s.zoomMu.Unlock()
}

// Zoom returns the currently applied zoom factor, which trails the
// target while a ramp is in progress.
func (s *Session) Zoom() float64 {
	s.zoomMu.Lock()
	defer s.zoomMu.Unlock()
	return s.zoomApplied
}

// ZoomTarget returns the clamped target of the latest zoom request.
func (s *Session) ZoomTarget() float64 {
	s.zoomMu.Lock()
	defer s.zoomMu.Unlock()
	return s.zoomTarget
}

// zoomLoop ramps the applied zoom toward the target and pushes each step
// to the device.
func (s *Session) zoomLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(rampIntervalMillis * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.zoomMu.Lock()
			applied, _ := rampToward(s.zoomApplied, s.zoomTarget)
			changed := applied != s.zoomApplied
			s.zoomApplied = applied
			s.zoomMu.Unlock()

			if changed {
				if err := s.cfg.Camera.SetZoom(applied); err != nil {
					log.Printf("zoom apply failed: %v", err)
				}
			}
		}
	}
}
