package gesture

import (
	"testing"

	"github.com/ayusman/starkcad/internal/detector"
)

func TestClassifier_Poses(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	tests := []struct {
		name string
		hand detector.HandLandmarks
		want Label
	}{
		{name: "fist", hand: detector.FistLandmarks(), want: Fist},
		{name: "clutch", hand: detector.ClutchLandmarks(), want: Clutch},
		{name: "pinch", hand: detector.PinchLandmarks(), want: Pinch},
		{name: "point", hand: detector.PointLandmarks(), want: Point},
		{name: "open hand resolves to point", hand: detector.OpenHandLandmarks(), want: Point},
		{name: "relaxed", hand: detector.RelaxedLandmarks(), want: Idle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ClassifyHand(tt.hand); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifier_DegradedInput(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	full := detector.PinchLandmarks().Points

	for n := 0; n < detector.NumLandmarks; n++ {
		if got := c.Classify(full[:n]); got != Idle {
			t.Errorf("Classify(%d points) = %s, want IDLE", n, got)
		}
	}

	if got := c.Classify(nil); got != Idle {
		t.Errorf("Classify(nil) = %s, want IDLE", got)
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	hand := detector.ClutchLandmarks()
	before := hand.Clone()

	first := c.ClassifyHand(hand)
	for i := 0; i < 100; i++ {
		if got := c.ClassifyHand(hand); got != first {
			t.Fatalf("call %d returned %s, first call returned %s", i, got, first)
		}
	}

	for i := range hand.Points {
		if hand.Points[i] != before.Points[i] {
			t.Fatalf("landmark %d was modified by Classify", i)
		}
	}
}

func TestClassifier_FistBeatsClutch(t *testing.T) {
	hand := detector.FistLandmarks()
	f := extract(hand.Points)

	// Both predicates must hold for this to exercise the priority order.
	if !(f.indexCurled && f.middleCurled && f.ringCurled && f.pinkyCurled) {
		t.Fatal("fixture is not a fist")
	}
	if f.clutchDist >= DefaultClutchThreshold {
		t.Fatalf("fixture clutch distance %f is not within threshold", f.clutchDist)
	}
	if f.pinchDist >= DefaultPinchThreshold {
		t.Fatalf("fixture pinch distance %f is not within threshold", f.pinchDist)
	}

	if got := NewClassifier(DefaultThresholds()).ClassifyHand(hand); got != Fist {
		t.Errorf("Classify() = %s, want FIST", got)
	}
}

func TestClassifier_ClutchBeatsPinch(t *testing.T) {
	hand := detector.OpenHandLandmarks()
	// Bring index and middle tips together under the thumb.
	hand.Points[detector.ThumbTip] = detector.Point3D{X: 0.54, Y: 0.40}
	hand.Points[detector.IndexTip] = detector.Point3D{X: 0.55, Y: 0.39}
	hand.Points[detector.MiddleTip] = detector.Point3D{X: 0.53, Y: 0.39}

	if got := NewClassifier(DefaultThresholds()).ClassifyHand(hand); got != Clutch {
		t.Errorf("Classify() = %s, want CLUTCH", got)
	}
}

func TestClassifier_Thresholds(t *testing.T) {
	hand := detector.PointLandmarks()
	// Thumb 0.08 from the index tip: outside the default, inside a loose calibration.
	hand.Points[detector.ThumbTip] = detector.Point3D{X: 0.58, Y: 0.43}

	if got := NewClassifier(DefaultThresholds()).ClassifyHand(hand); got != Point {
		t.Errorf("default thresholds: Classify() = %s, want POINT", got)
	}

	loose := NewClassifier(Thresholds{Pinch: 0.1, Clutch: 0.05})
	if got := loose.ClassifyHand(hand); got != Pinch {
		t.Errorf("loose thresholds: Classify() = %s, want PINCH", got)
	}
}

func TestNewClassifier_Defaults(t *testing.T) {
	c := NewClassifier(Thresholds{})
	if got := c.Thresholds(); got != DefaultThresholds() {
		t.Errorf("Thresholds() = %+v, want %+v", got, DefaultThresholds())
	}
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		t       Thresholds
		wantErr bool
	}{
		{name: "defaults", t: DefaultThresholds(), wantErr: false},
		{name: "zero pinch", t: Thresholds{Pinch: 0, Clutch: 0.05}, wantErr: true},
		{name: "negative clutch", t: Thresholds{Pinch: 0.05, Clutch: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.t.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRules_OpenPalmPredicate(t *testing.T) {
	f := extract(detector.OpenHandLandmarks().Points)

	var openPalm *rule
	for i := range rules {
		if rules[i].label == OpenPalm {
			openPalm = &rules[i]
		}
	}
	if openPalm == nil {
		t.Fatal("no OPEN_PALM rule in the table")
	}
	if !openPalm.match(f, DefaultThresholds()) {
		t.Error("OPEN_PALM predicate should hold for an open hand")
	}
}

func TestRules_NoDuplicateLabels(t *testing.T) {
	seen := make(map[Label]bool)
	for _, r := range rules {
		if seen[r.label] {
			t.Errorf("label %s appears more than once", r.label)
		}
		seen[r.label] = true
	}
}

func TestLabel_Valid(t *testing.T) {
	for _, l := range Labels {
		if !l.Valid() {
			t.Errorf("%s should be valid", l)
		}
	}
	if Label("WAVE").Valid() {
		t.Error("WAVE should not be valid")
	}
}
