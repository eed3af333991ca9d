package tracking

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/starkcad/internal/capture"
	"github.com/ayusman/starkcad/internal/detector"
	"github.com/ayusman/starkcad/internal/gesture"
)

func observation(handedness string, g gesture.Label) Observation {
	h := detector.PointLandmarks()
	h.Handedness = handedness
	return Observation{Hand: h, Gesture: g}
}

func TestPrimaryHand(t *testing.T) {
	tests := []struct {
		name   string
		hands  []Observation
		want   gesture.Label
		wantOK bool
	}{
		{name: "no hands"},
		{
			name:   "single left hand",
			hands:  []Observation{observation(detector.HandLeft, gesture.Fist)},
			want:   gesture.Fist,
			wantOK: true,
		},
		{
			name: "right preferred over earlier left",
			hands: []Observation{
				observation(detector.HandLeft, gesture.Fist),
				observation(detector.HandRight, gesture.Pinch),
			},
			want:   gesture.Pinch,
			wantOK: true,
		},
		{
			name: "first of two rights",
			hands: []Observation{
				observation(detector.HandRight, gesture.Clutch),
				observation(detector.HandRight, gesture.Pinch),
			},
			want:   gesture.Clutch,
			wantOK: true,
		},
		{
			name: "unlabeled falls back to first",
			hands: []Observation{
				observation("", gesture.Point),
				observation(detector.HandLeft, gesture.Pinch),
			},
			want:   gesture.Point,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PrimaryHand(tt.hands)
			if ok != tt.wantOK {
				t.Fatalf("PrimaryHand() ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Gesture != tt.want {
				t.Errorf("PrimaryHand() gesture = %s, want %s", got.Gesture, tt.want)
			}
		})
	}
}

func TestSnapshot_PrimaryNil(t *testing.T) {
	var s *Snapshot
	if _, ok := s.Primary(); ok {
		t.Error("nil snapshot should have no primary hand")
	}
}

func TestTracker_LatestBeforeStart(t *testing.T) {
	tr := New(DefaultConfig(), capture.NewMockCamera(nil, false), detector.NewMockDetector(), nil, nil)

	s := tr.Latest()
	if s == nil {
		t.Fatal("Latest() must never be nil")
	}
	if len(s.Hands) != 0 {
		t.Errorf("Latest() = %+v, want empty", s)
	}
	if tr.Running() {
		t.Error("tracker should not be running before Start")
	}
}

func TestTracker_StartErrors(t *testing.T) {
	t.Run("no detector", func(t *testing.T) {
		tr := New(DefaultConfig(), capture.NewMockCamera(nil, false), nil, nil, nil)
		if err := tr.Start(); !errors.Is(err, ErrNoDetector) {
			t.Errorf("Start() = %v, want ErrNoDetector", err)
		}
	})

	t.Run("camera unavailable", func(t *testing.T) {
		cam := capture.NewMockCamera(nil, false)
		busy := errors.New("device busy")
		cam.SetOpenError(busy)

		tr := New(DefaultConfig(), cam, detector.NewMockDetector(), nil, nil)
		err := tr.Start()
		if !errors.Is(err, busy) {
			t.Errorf("Start() = %v, want wrapped %v", err, busy)
		}
		if tr.Running() {
			t.Error("tracker should not run after a failed Start")
		}
	})
}

func TestTracker_StopIdempotent(t *testing.T) {
	cam := capture.NewMockCamera(nil, false)
	det := detector.NewMockDetector()
	tr := New(Config{FPS: 50}, cam, det, nil, nil)

	tr.Stop()
	if cam.Closes() != 0 || det.Closed() != 0 {
		t.Fatal("Stop() before Start must not touch collaborators")
	}

	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := tr.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if cam.Opens() != 1 {
		t.Errorf("Opens() = %d, second Start must be a no-op", cam.Opens())
	}

	tr.Stop()
	tr.Stop()

	if cam.Closes() != 1 {
		t.Errorf("camera closed %d times, want 1", cam.Closes())
	}
	if det.Closed() != 1 {
		t.Errorf("detector closed %d times, want 1", det.Closed())
	}
	if tr.Running() {
		t.Error("tracker should not be running after Stop")
	}
}

func TestTracker_PublishClassifies(t *testing.T) {
	tr := New(DefaultConfig(), nil, nil, nil, nil)
	left := detector.FistLandmarks()
	left.Handedness = detector.HandLeft

	tr.publish([]detector.HandLandmarks{left, detector.PinchLandmarks()})

	s := tr.Latest()
	if len(s.Hands) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(s.Hands))
	}
	if s.Hands[0].Gesture != gesture.Fist || s.Hands[1].Gesture != gesture.Pinch {
		t.Errorf("gestures = [%s %s], want [FIST PINCH]", s.Hands[0].Gesture, s.Hands[1].Gesture)
	}
	if s.Timestamp.IsZero() {
		t.Error("snapshot should carry a timestamp")
	}

	p, ok := s.Primary()
	if !ok || p.Gesture != gesture.Pinch {
		t.Errorf("Primary() = %s, want the right hand's PINCH", p.Gesture)
	}
}

func TestTracker_PublishUsesConfiguredThresholds(t *testing.T) {
	h := detector.PointLandmarks()
	tip, _ := h.Point(detector.IndexTip)
	h.Points[detector.ThumbTip] = detector.Point3D{X: tip.X + 0.08, Y: tip.Y}

	loose := gesture.NewClassifier(gesture.Thresholds{Pinch: 0.1, Clutch: 0.05})
	tr := New(DefaultConfig(), nil, nil, loose, nil)
	tr.publish([]detector.HandLandmarks{h})

	if got := tr.Latest().Hands[0].Gesture; got != gesture.Pinch {
		t.Errorf("gesture = %s, want PINCH with a 0.1 pinch threshold", got)
	}
}

func TestTracker_FailedFramePublishesNothing(t *testing.T) {
	cam := capture.NewMockCamera(nil, false)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.PinchLandmarks()})
	tr := New(DefaultConfig(), cam, det, nil, nil)
	cam.Open()
	defer cam.Close()

	tr.step()
	before := tr.Latest()
	if len(before.Hands) != 1 {
		t.Fatalf("expected a published hand, got %+v", before)
	}

	det.SetError(errors.New("inference crashed"))
	tr.step()
	if tr.Latest() != before {
		t.Error("a failed inference must not replace the snapshot")
	}

	det.SetError(nil)
	cam.SetReadError(capture.ErrEmptyFrame)
	tr.step()
	if tr.Latest() != before {
		t.Error("a failed capture must not replace the snapshot")
	}
}

func TestTracker_Loop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-dependent test")
	}

	cam := capture.NewMockCamera(nil, false)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.ClutchLandmarks()})
	tr := New(Config{FPS: 100}, cam, det, nil, nil)

	if err := tr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(tr.Latest().Hands) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p, ok := tr.Latest().Primary(); !ok || p.Gesture != gesture.Clutch {
		t.Fatalf("Latest() primary = %+v, want CLUTCH", p)
	}

	tr.Stop()

	if len(tr.Latest().Hands) != 0 {
		t.Error("Stop() should publish an empty snapshot")
	}
}

func TestTracker_Preview(t *testing.T) {
	cam := capture.NewMockCamera(nil, false)
	det := detector.NewMockDetector()
	cam.Open()
	defer cam.Close()

	off := New(DefaultConfig(), cam, det, nil, nil)
	off.step()
	if off.Preview() != nil {
		t.Error("Preview() should be nil when previews are disabled")
	}

	cfg := DefaultConfig()
	cfg.Preview = true
	on := New(cfg, cam, det, nil, nil)
	on.step()

	jpg := on.Preview()
	if len(jpg) < 2 || jpg[0] != 0xFF || jpg[1] != 0xD8 {
		t.Errorf("Preview() does not start with a JPEG marker: % x", jpg[:min(len(jpg), 4)])
	}
}
