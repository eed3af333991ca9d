// Package tracking runs the capture and landmark inference loop on its own
// goroutine and publishes classified hand snapshots for the interaction tick.
package tracking

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/starkcad/internal/capture"
	"github.com/ayusman/starkcad/internal/detector"
	"github.com/ayusman/starkcad/internal/gesture"
	"github.com/ayusman/starkcad/internal/metrics"
	"gocv.io/x/gocv"
)

// ErrNoDetector is returned by Start when no landmark source is configured.
var ErrNoDetector = errors.New("no hand detector configured")

// Observation is one hand from a single inference with its derived gesture.
type Observation struct {
	Hand    detector.HandLandmarks `json:"hand"`
	Gesture gesture.Label          `json:"gesture"`
}

// Snapshot is the complete result of one inference. Published snapshots are
// never mutated.
type Snapshot struct {
	Hands     []Observation `json:"hands"`
	Timestamp time.Time     `json:"timestamp"`
}

var emptySnapshot = &Snapshot{}

// Primary returns the snapshot's primary hand.
func (s *Snapshot) Primary() (Observation, bool) {
	if s == nil {
		return Observation{}, false
	}
	return PrimaryHand(s.Hands)
}

// PrimaryHand picks the first hand labeled Right, else the first hand.
func PrimaryHand(hands []Observation) (Observation, bool) {
	if len(hands) == 0 {
		return Observation{}, false
	}
	for _, h := range hands {
		if h.Hand.Handedness == detector.HandRight {
			return h, true
		}
	}
	return hands[0], true
}

// Config controls the inference loop.
type Config struct {
	// FPS is the capture and inference rate.
	FPS int

	// MotionGate skips inference while the scene is still. The last snapshot
	// stays published.
	MotionGate      bool
	MotionThreshold float64
	MotionLinger    time.Duration

	// Preview keeps the latest captured frame as a JPEG for the viewport
	// stream.
	Preview bool
}

// DefaultConfig runs inference on every frame at the capture default rate.
func DefaultConfig() Config {
	return Config{
		FPS:             capture.DefaultFPS,
		MotionThreshold: capture.DefaultMotion,
		MotionLinger:    capture.DefaultLinger,
	}
}

// Tracker owns the camera and detector while running.
type Tracker struct {
	cfg        Config
	camera     capture.Camera
	detector   detector.Detector
	classifier *gesture.Classifier
	metrics    *metrics.Manager

	latest  atomic.Pointer[Snapshot]
	preview atomic.Pointer[[]byte]
	running atomic.Bool

	// mu serializes Start and Stop, which may block on the camera and the
	// detector. Nothing on the tick path takes it.
	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
	gate   *capture.MotionGate
	now    func() time.Time
}

// New creates a stopped tracker. m may be nil.
func New(cfg Config, cam capture.Camera, det detector.Detector, cls *gesture.Classifier, m *metrics.Manager) *Tracker {
	if cfg.FPS <= 0 {
		cfg.FPS = capture.DefaultFPS
	}
	if cls == nil {
		cls = gesture.NewClassifier(gesture.DefaultThresholds())
	}
	t := &Tracker{
		cfg:        cfg,
		camera:     cam,
		detector:   det,
		classifier: cls,
		metrics:    m,
		now:        time.Now,
	}
	t.latest.Store(emptySnapshot)
	return t
}

// Start opens the camera and launches the inference loop. Starting a running
// tracker is a no-op.
func (t *Tracker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopCh != nil {
		return nil
	}
	if t.detector == nil {
		return fmt.Errorf("start tracking: %w", ErrNoDetector)
	}
	if t.camera == nil {
		return fmt.Errorf("start tracking: %w", capture.ErrCameraNotOpen)
	}
	if err := t.camera.Open(); err != nil {
		return fmt.Errorf("start tracking: %w", err)
	}
	t.camera.SetFPS(t.cfg.FPS)

	if t.cfg.MotionGate {
		t.gate = capture.NewMotionGate(t.cfg.MotionThreshold, t.cfg.MotionLinger)
	}

	t.stopCh = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.stopCh, t.done)
	t.running.Store(true)

	t.metrics.TrackingActive(true)
	log.Printf("tracking: started at %d fps", t.cfg.FPS)
	return nil
}

// Stop halts the loop, waits for it to exit, releases the camera and detector
// and publishes an empty snapshot. Safe to call repeatedly or before Start.
// Running reports false as soon as Stop begins.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopCh == nil {
		return
	}
	t.running.Store(false)
	close(t.stopCh)
	<-t.done
	t.stopCh = nil
	t.done = nil

	if err := t.camera.Close(); err != nil {
		log.Printf("tracking: close camera: %v", err)
	}
	if err := t.detector.Close(); err != nil {
		log.Printf("tracking: close detector: %v", err)
	}
	if t.gate != nil {
		t.gate.Close()
		t.gate = nil
	}

	t.latest.Store(emptySnapshot)
	t.preview.Store(nil)
	t.metrics.TrackingActive(false)
	log.Println("tracking: stopped")
}

// Running reports whether the inference loop is active. It never waits on
// Start or Stop, so the interaction tick can call it freely.
func (t *Tracker) Running() bool {
	return t.running.Load()
}

// Latest returns the most recently published snapshot. Never nil.
func (t *Tracker) Latest() *Snapshot {
	return t.latest.Load()
}

// Preview returns the most recent frame as JPEG bytes, or nil when previews
// are disabled or tracking is stopped.
func (t *Tracker) Preview() []byte {
	if p := t.preview.Load(); p != nil {
		return *p
	}
	return nil
}

func (t *Tracker) storePreview(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		t.metrics.TrackingError("preview")
		return
	}
	defer buf.Close()

	jpg := append([]byte(nil), buf.GetBytes()...)
	t.preview.Store(&jpg)
}

func (t *Tracker) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(t.cfg.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.step()
		}
	}
}

// step runs one capture and inference. A failed frame publishes nothing.
func (t *Tracker) step() {
	frame, err := t.camera.ReadFrame()
	if err != nil {
		t.metrics.TrackingError("capture")
		return
	}
	defer frame.Close()

	if t.cfg.Preview {
		t.storePreview(frame)
	}

	if t.gate != nil && !t.gate.Open(frame) {
		t.metrics.FrameSkipped()
		return
	}

	start := t.now()
	hands, err := t.detector.Detect(frame)
	if err != nil {
		t.metrics.TrackingError("detect")
		return
	}
	t.metrics.Inference(t.now().Sub(start), len(hands))

	t.publish(hands)
}

// publish classifies every hand and swaps in the new snapshot.
func (t *Tracker) publish(hands []detector.HandLandmarks) {
	snap := &Snapshot{
		Hands:     make([]Observation, len(hands)),
		Timestamp: t.now(),
	}
	for i, h := range hands {
		snap.Hands[i] = Observation{
			Hand:    h.Clone(),
			Gesture: t.classifier.ClassifyHand(h),
		}
	}
	t.latest.Store(snap)
}
