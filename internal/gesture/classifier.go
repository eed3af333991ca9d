package gesture

import (
	"errors"

	"github.com/ayusman/starkcad/internal/detector"
)

// Default contact thresholds, in the same normalized units as landmark
// coordinates.
const (
	DefaultPinchThreshold  = 0.05
	DefaultClutchThreshold = 0.05
)

// Thresholds holds the fingertip contact distances used by the classifier.
type Thresholds struct {
	// Pinch is the maximum thumb-tip to index-tip distance for PINCH.
	Pinch float64
	// Clutch is the maximum thumb-tip to middle-tip distance for CLUTCH.
	Clutch float64
}

// DefaultThresholds returns the stock calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Pinch:  DefaultPinchThreshold,
		Clutch: DefaultClutchThreshold,
	}
}

// Validate rejects non-positive thresholds.
func (t Thresholds) Validate() error {
	if t.Pinch <= 0 {
		return errors.New("pinch threshold must be positive")
	}
	if t.Clutch <= 0 {
		return errors.New("clutch threshold must be positive")
	}
	return nil
}

// features are the geometric facts every rule is evaluated against.
// They are computed once per classification.
type features struct {
	indexCurled  bool
	middleCurled bool
	ringCurled   bool
	pinkyCurled  bool
	pinchDist    float64
	clutchDist   float64
}

// rule is one row of the priority table.
type rule struct {
	label Label
	match func(f features, t Thresholds) bool
}

// rules is evaluated top to bottom; the first match wins. Overlaps are
// expected (a fist usually also has the thumb within clutch range) and are
// resolved by position alone.
var rules = []rule{
	{Fist, func(f features, _ Thresholds) bool {
		return f.indexCurled && f.middleCurled && f.ringCurled && f.pinkyCurled
	}},
	{Clutch, func(f features, t Thresholds) bool {
		return f.clutchDist < t.Clutch
	}},
	{Pinch, func(f features, t Thresholds) bool {
		return f.pinchDist < t.Pinch
	}},
	{Point, func(f features, _ Thresholds) bool {
		return !f.indexCurled
	}},
	// Unreachable while Point precedes it.
	{OpenPalm, func(f features, _ Thresholds) bool {
		return !f.indexCurled && !f.middleCurled && !f.ringCurled && !f.pinkyCurled
	}},
}

// Classifier maps a landmark set to a Label. It holds only configuration and
// is safe for concurrent use.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a Classifier. Non-positive thresholds fall back to
// the defaults.
func NewClassifier(t Thresholds) *Classifier {
	if t.Pinch <= 0 {
		t.Pinch = DefaultPinchThreshold
	}
	if t.Clutch <= 0 {
		t.Clutch = DefaultClutchThreshold
	}
	return &Classifier{thresholds: t}
}

// Thresholds returns the active calibration.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify returns the gesture for one hand. Fewer than
// detector.NumLandmarks points is degraded input and yields Idle.
func (c *Classifier) Classify(points []detector.Point3D) Label {
	if len(points) < detector.NumLandmarks {
		return Idle
	}

	f := extract(points)
	for _, r := range rules {
		if r.match(f, c.thresholds) {
			return r.label
		}
	}
	return Idle
}

// ClassifyHand is Classify on a hand's landmark list.
func (c *Classifier) ClassifyHand(h detector.HandLandmarks) Label {
	return c.Classify(h.Points)
}

func extract(p []detector.Point3D) features {
	wrist := p[detector.Wrist]
	curled := func(tip, mcp int) bool {
		return detector.Distance(wrist, p[tip]) < detector.Distance(wrist, p[mcp])
	}

	return features{
		indexCurled:  curled(detector.IndexTip, detector.IndexMCP),
		middleCurled: curled(detector.MiddleTip, detector.MiddleMCP),
		ringCurled:   curled(detector.RingTip, detector.RingMCP),
		pinkyCurled:  curled(detector.PinkyTip, detector.PinkyMCP),
		pinchDist:    detector.Distance(p[detector.ThumbTip], p[detector.IndexTip]),
		clutchDist:   detector.Distance(p[detector.ThumbTip], p[detector.MiddleTip]),
	}
}
