package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	err    error
	calls  int
	closed int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.hands == nil {
		return nil, nil
	}
	out := make([]HandLandmarks, len(m.hands))
	for i, h := range m.hands {
		out[i] = h.Clone()
	}
	return out, nil
}

// Close records the call; the mock holds no resources.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed returns how many times Close has been invoked.
func (m *MockDetector) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Poses below are right hands, palm toward the camera, fingers up (image Y
// grows downward). The MCP knuckles sit ~0.16 from the wrist; an extended
// fingertip sits >0.4 away, a curled one <0.1.

func baseHand() HandLandmarks {
	h := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: HandRight,
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}

	h.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.76}
	h.Points[ThumbMCP] = Point3D{X: 0.61, Y: 0.71}
	h.Points[ThumbIP] = Point3D{X: 0.64, Y: 0.66}

	h.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.65}
	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.63}
	h.Points[RingMCP] = Point3D{X: 0.45, Y: 0.65}
	h.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.68}

	return h
}

func extend(h *HandLandmarks, mcp int, tip Point3D) {
	base := h.Points[mcp]
	for i := 1; i <= 2; i++ {
		f := float64(i) / 3
		h.Points[mcp+i] = Point3D{
			X: base.X + (tip.X-base.X)*f,
			Y: base.Y + (tip.Y-base.Y)*f,
			Z: base.Z + (tip.Z-base.Z)*f,
		}
	}
	h.Points[mcp+3] = tip
}

func curl(h *HandLandmarks, mcp int, tip Point3D) {
	base := h.Points[mcp]
	h.Points[mcp+1] = Point3D{X: base.X, Y: base.Y - 0.04, Z: -0.04}
	h.Points[mcp+2] = Point3D{X: (base.X + tip.X) / 2, Y: base.Y + 0.01, Z: -0.05}
	h.Points[mcp+3] = tip
}

var (
	indexUp  = Point3D{X: 0.58, Y: 0.35}
	middleUp = Point3D{X: 0.50, Y: 0.30}
	ringUp   = Point3D{X: 0.42, Y: 0.35}
	pinkyUp  = Point3D{X: 0.34, Y: 0.42}

	indexDown  = Point3D{X: 0.53, Y: 0.72, Z: -0.02}
	middleDown = Point3D{X: 0.50, Y: 0.71, Z: -0.02}
	ringDown   = Point3D{X: 0.47, Y: 0.72, Z: -0.02}
	pinkyDown  = Point3D{X: 0.43, Y: 0.74, Z: -0.02}
)

// OpenHandLandmarks returns a hand with every finger extended and the thumb
// spread to the side.
func OpenHandLandmarks() HandLandmarks {
	h := baseHand()
	h.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60}
	extend(&h, IndexMCP, indexUp)
	extend(&h, MiddleMCP, middleUp)
	extend(&h, RingMCP, ringUp)
	extend(&h, PinkyMCP, pinkyUp)
	return h
}

// PointLandmarks returns a hand with only the index finger extended.
func PointLandmarks() HandLandmarks {
	h := baseHand()
	h.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.66}
	extend(&h, IndexMCP, indexUp)
	curl(&h, MiddleMCP, middleDown)
	curl(&h, RingMCP, ringDown)
	curl(&h, PinkyMCP, pinkyDown)
	return h
}

// PinchLandmarks returns a hand whose thumb tip touches the extended index tip.
func PinchLandmarks() HandLandmarks {
	h := OpenHandLandmarks()
	h.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.37}
	return h
}

// ClutchLandmarks returns a hand whose thumb tip touches the middle fingertip
// while the index stays extended.
func ClutchLandmarks() HandLandmarks {
	h := OpenHandLandmarks()
	extend(&h, MiddleMCP, Point3D{X: 0.50, Y: 0.45})
	h.Points[ThumbTip] = Point3D{X: 0.51, Y: 0.46}
	return h
}

// FistLandmarks returns a closed fist. The thumb is tucked over the curled
// fingertips, so it also sits within pinch and clutch range.
func FistLandmarks() HandLandmarks {
	h := baseHand()
	h.Points[ThumbTip] = Point3D{X: 0.52, Y: 0.70}
	curl(&h, IndexMCP, indexDown)
	curl(&h, MiddleMCP, middleDown)
	curl(&h, RingMCP, ringDown)
	curl(&h, PinkyMCP, pinkyDown)
	return h
}

// RelaxedLandmarks returns a hand with the index curled and the other fingers
// extended, a pose no gesture claims.
func RelaxedLandmarks() HandLandmarks {
	h := baseHand()
	h.Points[ThumbTip] = Point3D{X: 0.65, Y: 0.62}
	curl(&h, IndexMCP, indexDown)
	extend(&h, MiddleMCP, middleUp)
	extend(&h, RingMCP, ringUp)
	extend(&h, PinkyMCP, pinkyUp)
	return h
}

// WithIndexTip returns a copy of h whose index fingertip is moved to (x, y).
// Used to steer the cursor without changing the pose class.
func WithIndexTip(h HandLandmarks, x, y float64) HandLandmarks {
	c := h.Clone()
	dx := x - c.Points[IndexTip].X
	dy := y - c.Points[IndexTip].Y
	for i := range c.Points {
		c.Points[i].X += dx
		c.Points[i].Y += dy
	}
	c.Points[IndexTip].X = x
	c.Points[IndexTip].Y = y
	return c
}
