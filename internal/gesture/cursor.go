package gesture

import "github.com/ayusman/starkcad/internal/detector"

// Cursor is a normalized screen position, origin top-left, both axes in [0,1].
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HomeCursor is the cursor position before any hand has been seen.
var HomeCursor = Cursor{X: 0.5, Y: 0.5}

// Sub returns c - o.
func (c Cursor) Sub(o Cursor) Cursor {
	return Cursor{X: c.X - o.X, Y: c.Y - o.Y}
}

// Scale returns c scaled by k.
func (c Cursor) Scale(k float64) Cursor {
	return Cursor{X: c.X * k, Y: c.Y * k}
}

// NDC converts the cursor to normalized device coordinates ([-1,1], Y up).
func (c Cursor) NDC() (x, y float64) {
	return c.X*2 - 1, -(c.Y * 2) + 1
}

// MapCursor converts an index fingertip landmark into a screen cursor. X is
// mirrored because the webcam image is mirrored relative to the user.
func MapCursor(indexTip detector.Point3D) Cursor {
	return Cursor{X: 1 - indexTip.X, Y: indexTip.Y}
}

// CursorMapper tracks the cursor across ticks. When no primary hand is
// present the previous position is kept.
type CursorMapper struct {
	current Cursor
}

// NewCursorMapper returns a mapper resting at HomeCursor.
func NewCursorMapper() *CursorMapper {
	return &CursorMapper{current: HomeCursor}
}

// Update maps the hand's index fingertip if present and returns the cursor
// for this tick.
func (m *CursorMapper) Update(hand *detector.HandLandmarks) Cursor {
	if hand == nil {
		return m.current
	}
	if tip, ok := hand.Point(detector.IndexTip); ok {
		m.current = MapCursor(tip)
	}
	return m.current
}

// Current returns the last mapped cursor.
func (m *CursorMapper) Current() Cursor {
	return m.current
}
