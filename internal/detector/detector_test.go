package detector

import (
	"errors"
	"testing"
)

func TestHandLandmarks_Complete(t *testing.T) {
	tests := []struct {
		name   string
		points int
		want   bool
	}{
		{name: "full set", points: NumLandmarks, want: true},
		{name: "partial set", points: 12, want: false},
		{name: "empty", points: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HandLandmarks{Points: make([]Point3D, tt.points)}
			if got := h.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandLandmarks_Point(t *testing.T) {
	h := HandLandmarks{Points: []Point3D{{X: 0.1}, {X: 0.2}}}

	if p, ok := h.Point(1); !ok || p.X != 0.2 {
		t.Errorf("Point(1) = %v, %v; want {0.2 0 0}, true", p, ok)
	}
	if _, ok := h.Point(IndexTip); ok {
		t.Error("Point(IndexTip) should be missing on a partial hand")
	}
	if _, ok := h.Point(-1); ok {
		t.Error("Point(-1) should be missing")
	}
}

func TestHandLandmarks_Clone(t *testing.T) {
	orig := PointLandmarks()
	clone := orig.Clone()

	clone.Points[IndexTip].X = 0.99

	if orig.Points[IndexTip].X == 0.99 {
		t.Error("mutating the clone changed the original")
	}
}

func TestDistance(t *testing.T) {
	d := Distance(Point3D{X: 0, Y: 0, Z: 0}, Point3D{X: 3, Y: 4, Z: 0})
	if d != 5 {
		t.Errorf("Distance() = %f, want 5", d)
	}
}

func TestConfig_FilterHands(t *testing.T) {
	left := OpenHandLandmarks()
	left.Handedness = HandLeft
	weak := PointLandmarks()
	weak.Score = 0.2
	right := PinchLandmarks()

	t.Run("drops hands below confidence", func(t *testing.T) {
		cfg := Config{MaxHands: 2, MinConfidence: 0.5}
		got := cfg.filterHands([]HandLandmarks{weak, right})
		if len(got) != 1 || got[0].Handedness != HandRight {
			t.Errorf("filterHands() = %v, want only the confident right hand", got)
		}
	})

	t.Run("caps hand count in model order", func(t *testing.T) {
		cfg := Config{MaxHands: 1, MinConfidence: 0.5}
		got := cfg.filterHands([]HandLandmarks{left, right})
		if len(got) != 1 || got[0].Handedness != HandLeft {
			t.Errorf("filterHands() = %v, want the first hand only", got)
		}
	})
}

func TestDecodeResponse(t *testing.T) {
	t.Run("full hand", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[` + points(NumLandmarks) + `],"handedness":"Left","score":0.9}]}` + "\n")
		hands, err := decodeResponse(line)
		if err != nil {
			t.Fatalf("decodeResponse() error = %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if !hands[0].Complete() {
			t.Error("expected a complete hand")
		}
		if hands[0].Handedness != HandLeft {
			t.Errorf("handedness = %s, want Left", hands[0].Handedness)
		}
	})

	t.Run("partial hand is kept", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[` + points(5) + `],"handedness":"Right","score":0.9}]}`)
		hands, err := decodeResponse(line)
		if err != nil {
			t.Fatalf("decodeResponse() error = %v", err)
		}
		if len(hands[0].Points) != 5 {
			t.Errorf("expected 5 points, got %d", len(hands[0].Points))
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := decodeResponse([]byte(`{"hands":[]}`))
		if err != nil {
			t.Fatalf("decodeResponse() error = %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := decodeResponse([]byte(`{"hands":`)); err == nil {
			t.Error("expected an error for truncated JSON")
		}
	})
}

func points(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += `{"x":0.5,"y":0.5,"z":0}`
	}
	return s
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{PinchLandmarks(), OpenHandLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close is counted", func(t *testing.T) {
		mock := NewMockDetector()
		mock.Close()
		mock.Close()
		if mock.Closed() != 2 {
			t.Errorf("Closed() = %d, want 2", mock.Closed())
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestPoseFixtures(t *testing.T) {
	curled := func(h HandLandmarks, tip, mcp int) bool {
		return Distance(h.Points[Wrist], h.Points[tip]) < Distance(h.Points[Wrist], h.Points[mcp])
	}

	t.Run("open hand has no curled finger", func(t *testing.T) {
		h := OpenHandLandmarks()
		for _, f := range [][2]int{{IndexTip, IndexMCP}, {MiddleTip, MiddleMCP}, {RingTip, RingMCP}, {PinkyTip, PinkyMCP}} {
			if curled(h, f[0], f[1]) {
				t.Errorf("finger with tip %d is curled", f[0])
			}
		}
	})

	t.Run("fist has every finger curled", func(t *testing.T) {
		h := FistLandmarks()
		for _, f := range [][2]int{{IndexTip, IndexMCP}, {MiddleTip, MiddleMCP}, {RingTip, RingMCP}, {PinkyTip, PinkyMCP}} {
			if !curled(h, f[0], f[1]) {
				t.Errorf("finger with tip %d is extended", f[0])
			}
		}
	})

	t.Run("WithIndexTip keeps the pose", func(t *testing.T) {
		h := PinchLandmarks()
		moved := WithIndexTip(h, 0.2, 0.3)
		if moved.Points[IndexTip].X != 0.2 || moved.Points[IndexTip].Y != 0.3 {
			t.Errorf("index tip = %v, want (0.2, 0.3)", moved.Points[IndexTip])
		}
		before := Distance(h.Points[ThumbTip], h.Points[IndexTip])
		after := Distance(moved.Points[ThumbTip], moved.Points[IndexTip])
		if diff := before - after; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("pinch distance changed from %f to %f", before, after)
		}
	})
}
