// Package detector provides hand landmark types and the landmark sources that produce them.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the landmark model.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// Point3D is a normalized landmark: X and Y in [0,1] of the camera frame,
// Z is depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HandLandmarks is one hand reported by a single inference.
// Points normally holds NumLandmarks entries; a partial result from the
// model is kept as-is so consumers can treat it as degraded input.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Complete reports whether the hand carries the full landmark set.
func (h HandLandmarks) Complete() bool {
	return len(h.Points) >= NumLandmarks
}

// Point returns the landmark at idx and whether it was present.
func (h HandLandmarks) Point(idx int) (Point3D, bool) {
	if idx < 0 || idx >= len(h.Points) {
		return Point3D{}, false
	}
	return h.Points[idx], true
}

// Clone returns a deep copy so snapshots never share landmark storage.
func (h HandLandmarks) Clone() HandLandmarks {
	c := h
	if h.Points != nil {
		c.Points = make([]Point3D, len(h.Points))
		copy(c.Points, h.Points)
	}
	return c
}
