package interaction

import (
	"github.com/ayusman/starkcad/internal/document"
	"github.com/ayusman/starkcad/internal/gesture"
)

// DefaultOrbitSensitivity converts cursor travel (normalized screen units)
// into orbit radians.
const DefaultOrbitSensitivity = 5.0

// Config holds the state machine's tunables.
type Config struct {
	// OrbitSensitivity scales cursor deltas into camera rotation.
	OrbitSensitivity float64

	// PlaneNormal and PlaneOrigin describe the sketch plane recorded on
	// committed sketches.
	PlaneNormal document.Point
	PlaneOrigin document.Point
}

// DefaultConfig returns the stock configuration: ground-plane sketching.
func DefaultConfig() Config {
	return Config{
		OrbitSensitivity: DefaultOrbitSensitivity,
		PlaneNormal:      document.Point{X: 0, Y: 1, Z: 0},
		PlaneOrigin:      document.Point{X: 0, Y: 0, Z: 0},
	}
}

type sketchSession struct {
	tool   ToolMode
	anchor document.Point
	end    document.Point
}

// Machine is the interaction session. It is not safe for concurrent use; the
// owner serializes Tick and the mutators.
type Machine struct {
	cfg       Config
	raycaster Raycaster
	camera    CameraController
	doc       Document

	tool        ToolMode
	gesture     gesture.Label
	prevGesture gesture.Label
	cursor      gesture.Cursor
	orbitFrom   *gesture.Cursor
	sketch      *sketchSession
	hover       string
	selection   []string
}

// NewMachine creates a session with default state: SELECT tool, nothing
// selected, no sketch in progress.
func NewMachine(cfg Config, rc Raycaster, cam CameraController, doc Document) *Machine {
	if cfg.OrbitSensitivity == 0 {
		cfg.OrbitSensitivity = DefaultOrbitSensitivity
	}
	return &Machine{
		cfg:         cfg,
		raycaster:   rc,
		camera:      cam,
		doc:         doc,
		tool:        ToolSelect,
		gesture:     gesture.Idle,
		prevGesture: gesture.Idle,
		cursor:      gesture.HomeCursor,
	}
}

// Tick advances the session by one frame. Orbit and hover run every tick
// regardless of tool; selection and sketching react to PINCH edges.
func (m *Machine) Tick(f Frame) Effects {
	var fx Effects

	m.gesture = f.Gesture
	m.cursor = f.Cursor

	hits := m.cast(f.Cursor)

	fx.Orbit, fx.Orbited = m.orbit(f)

	m.hover = ""
	if hit, ok := firstOf(hits, CategorySolid); ok {
		m.hover = hit.EntityID
	}
	fx.Hover = m.hover

	pinching := f.Gesture == gesture.Pinch
	wasPinching := m.prevGesture == gesture.Pinch

	switch {
	case m.tool == ToolSelect:
		if pinching && !wasPinching {
			fx.SelectionChanged = m.selectFrom(hits)
		}
	case m.tool.IsSketch():
		switch {
		case pinching && !wasPinching:
			fx.SketchStarted = m.startSketch(hits)
		case pinching && m.sketch != nil:
			if hit, ok := firstOf(hits, CategorySketchPlane); ok {
				m.sketch.end = hit.Point
			}
		case !pinching && wasPinching && m.sketch != nil:
			fx.Committed, fx.CommittedKind = m.commitSketch()
		}
	}

	m.prevGesture = f.Gesture
	return fx
}

func (m *Machine) cast(c gesture.Cursor) []Intersection {
	if m.raycaster == nil {
		return nil
	}
	x, y := c.NDC()
	return m.raycaster.Cast(x, y)
}

// orbit is level-triggered: every CLUTCH tick after the first rotates the
// camera by the cursor travel since the previous CLUTCH tick.
func (m *Machine) orbit(f Frame) (Rotation, bool) {
	if f.Gesture != gesture.Clutch {
		m.orbitFrom = nil
		return Rotation{}, false
	}

	prev := m.orbitFrom
	cur := f.Cursor
	m.orbitFrom = &cur
	if prev == nil {
		return Rotation{}, false
	}

	d := cur.Sub(*prev).Scale(m.cfg.OrbitSensitivity)
	r := Rotation{Azimuth: d.X, Polar: d.Y}
	if m.camera != nil {
		m.camera.Rotate(r.Azimuth, r.Polar)
	}
	return r, true
}

func (m *Machine) selectFrom(hits []Intersection) bool {
	before := m.selection
	if hit, ok := firstOf(hits, CategorySolid); ok {
		m.selection = []string{hit.EntityID}
	} else {
		m.selection = nil
	}
	return !sameIDs(before, m.selection)
}

func (m *Machine) startSketch(hits []Intersection) bool {
	hit, ok := firstOf(hits, CategorySketchPlane)
	if !ok {
		return false
	}
	m.sketch = &sketchSession{tool: m.tool, anchor: hit.Point, end: hit.Point}
	return true
}

func (m *Machine) commitSketch() (string, document.SketchKind) {
	s := m.sketch
	m.sketch = nil

	kind := document.SketchLine
	if s.tool == ToolSketchRect {
		kind = document.SketchRect
	}

	if m.doc == nil {
		return "", kind
	}
	id := m.doc.AddSketch(document.Sketch{
		Kind:        kind,
		Points:      []document.Point{s.anchor, s.end},
		PlaneNormal: m.cfg.PlaneNormal,
		PlaneOrigin: m.cfg.PlaneOrigin,
	})
	return id, kind
}

// SetTool switches the active tool. An in-progress sketch is discarded
// without committing; the return value reports whether one was.
func (m *Machine) SetTool(t ToolMode) bool {
	if t == m.tool {
		return false
	}
	m.tool = t
	discarded := m.sketch != nil
	m.sketch = nil
	return discarded
}

// Tool returns the active tool.
func (m *Machine) Tool() ToolMode {
	return m.tool
}

// Phase returns SKETCHING while a sketch session is open.
func (m *Machine) Phase() Phase {
	if m.sketch != nil {
		return PhaseSketching
	}
	return PhaseIdleTracking
}

// Hover returns the id of the hovered solid, or "".
func (m *Machine) Hover() string {
	return m.hover
}

// Selection returns a copy of the selected ids in selection order.
func (m *Machine) Selection() []string {
	out := make([]string, len(m.selection))
	copy(out, m.selection)
	return out
}

// Select replaces the selection with ids, dropping duplicates.
func (m *Machine) Select(ids ...string) {
	m.selection = nil
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		m.selection = append(m.selection, id)
	}
}

// ClearSelection empties the selection.
func (m *Machine) ClearSelection() {
	m.selection = nil
}

// DeleteSelection removes every selected entity from the document and clears
// the selection. Returns how many entities were removed.
func (m *Machine) DeleteSelection() int {
	removed := 0
	for _, id := range m.selection {
		if m.doc != nil && m.doc.RemoveEntity(id) {
			removed++
		}
		if m.hover == id {
			m.hover = ""
		}
	}
	m.selection = nil
	return removed
}

// RemoveEntity deletes one entity from the document and drops it from the
// selection and hover.
func (m *Machine) RemoveEntity(id string) bool {
	if m.doc == nil || !m.doc.RemoveEntity(id) {
		return false
	}
	m.forget(id)
	return true
}

func (m *Machine) forget(id string) {
	if m.hover == id {
		m.hover = ""
	}
	kept := m.selection[:0]
	for _, s := range m.selection {
		if s != id {
			kept = append(kept, s)
		}
	}
	m.selection = kept
}

// State returns a detached snapshot of the session.
func (m *Machine) State() State {
	s := State{
		Tool:      m.tool,
		Phase:     m.Phase(),
		Gesture:   m.gesture,
		Cursor:    m.cursor,
		Hover:     m.hover,
		Selection: m.Selection(),
	}
	if m.sketch != nil {
		s.Sketch = &SketchPreview{
			Tool:   m.sketch.tool,
			Anchor: m.sketch.anchor,
			End:    m.sketch.end,
		}
	}
	return s
}

func firstOf(hits []Intersection, c Category) (Intersection, bool) {
	for _, h := range hits {
		if h.Category == c {
			return h, true
		}
	}
	return Intersection{}, false
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
