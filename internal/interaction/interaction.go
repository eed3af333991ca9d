// Package interaction implements the per-tick interaction state machine:
// camera orbit, hover, selection and sketching driven by gesture labels.
package interaction

import (
	"errors"
	"strings"

	"github.com/ayusman/starkcad/internal/document"
	"github.com/ayusman/starkcad/internal/gesture"
)

// ErrUnknownTool is returned when parsing an unrecognized tool name.
var ErrUnknownTool = errors.New("unknown tool mode")

// ToolMode is the active modeling tool.
type ToolMode string

const (
	ToolSelect       ToolMode = "SELECT"
	ToolSketchLine   ToolMode = "SKETCH_LINE"
	ToolSketchRect   ToolMode = "SKETCH_RECT"
	ToolSketchCircle ToolMode = "SKETCH_CIRCLE"
	ToolExtrude      ToolMode = "EXTRUDE"
	ToolMove         ToolMode = "MOVE"
)

var toolModes = []ToolMode{ToolSelect, ToolSketchLine, ToolSketchRect, ToolSketchCircle, ToolExtrude, ToolMove}

// ToolModes returns every tool mode.
func ToolModes() []ToolMode {
	out := make([]ToolMode, len(toolModes))
	copy(out, toolModes)
	return out
}

// ParseTool converts a tool name (case-insensitive) to a ToolMode.
func ParseTool(s string) (ToolMode, error) {
	t := ToolMode(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range toolModes {
		if t == m {
			return m, nil
		}
	}
	return "", ErrUnknownTool
}

// IsSketch reports whether the tool draws sketch primitives.
func (t ToolMode) IsSketch() bool {
	return strings.HasPrefix(string(t), "SKETCH")
}

// Phase is the state machine's coarse state.
type Phase string

const (
	PhaseIdleTracking Phase = "IDLE_TRACKING"
	PhaseSketching    Phase = "SKETCHING"
)

// Category tags what a ray intersection hit.
type Category string

const (
	CategorySolid       Category = "SOLID"
	CategorySketchPlane Category = "SKETCH_PLANE"
	CategoryOther       Category = "OTHER"
)

// Intersection is one ray hit, as reported by a Raycaster.
type Intersection struct {
	EntityID string
	Category Category
	Point    document.Point
	Distance float64
}

// Raycaster casts a ray through the scene from NDC coordinates using the
// current camera and returns intersections ordered nearest first.
type Raycaster interface {
	Cast(ndcX, ndcY float64) []Intersection
}

// CameraController receives orbit rotations in radians.
type CameraController interface {
	Rotate(azimuth, polar float64)
}

// Document is the part of the CAD document the state machine mutates.
type Document interface {
	AddSolid(spec document.Solid) string
	AddSketch(spec document.Sketch) string
	RemoveEntity(id string) bool
}

// Frame is the per-tick input: the primary hand's gesture and the cursor.
type Frame struct {
	Gesture gesture.Label
	Cursor  gesture.Cursor
}

// Rotation is an orbit delta applied to the camera.
type Rotation struct {
	Azimuth float64 `json:"azimuth"`
	Polar   float64 `json:"polar"`
}

// Effects reports what a tick did.
type Effects struct {
	Orbited          bool
	Orbit            Rotation
	Hover            string
	SelectionChanged bool
	SketchStarted    bool
	Committed        string
	CommittedKind    document.SketchKind
}

// SketchPreview is the in-progress sketch, for rendering only.
type SketchPreview struct {
	Tool   ToolMode       `json:"tool"`
	Anchor document.Point `json:"anchor"`
	End    document.Point `json:"end"`
}

// State is a read-only projection of the session for UI collaborators.
// It shares no memory with the machine.
type State struct {
	Tool      ToolMode       `json:"tool"`
	Phase     Phase          `json:"phase"`
	Gesture   gesture.Label  `json:"gesture"`
	Cursor    gesture.Cursor `json:"cursor"`
	Hover     string         `json:"hover,omitempty"`
	Selection []string       `json:"selection"`
	Sketch    *SketchPreview `json:"sketch,omitempty"`
}
