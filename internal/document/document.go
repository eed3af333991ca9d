// Package document holds the CAD document: the solids and sketch primitives
// created through gestures and commands.
package document

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// DefaultCubeID is the id of the cube every new document starts with.
const DefaultCubeID = "default-cube"

// Point is a position in world space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SolidKind identifies the primitive a solid is built from.
type SolidKind string

const (
	SolidCube    SolidKind = "CUBE"
	SolidSphere  SolidKind = "SPHERE"
	SolidExtrude SolidKind = "EXTRUDE"
)

// SketchKind identifies a sketch primitive.
type SketchKind string

const (
	SketchLine   SketchKind = "LINE"
	SketchRect   SketchKind = "RECT"
	SketchCircle SketchKind = "CIRCLE"
)

// Solid is a solid descriptor. Geometry is derived by the renderer.
type Solid struct {
	ID       string         `json:"id"`
	Kind     SolidKind      `json:"type"`
	Position Point          `json:"position"`
	Rotation Point          `json:"rotation"`
	Scale    Point          `json:"scale"`
	SketchID string         `json:"sketchId,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
	Color    string         `json:"color"`
}

// Sketch is a sketch primitive lying on a plane. A RECT stores two diagonal
// corners; the renderer derives the closed quad.
type Sketch struct {
	ID          string         `json:"id"`
	Kind        SketchKind     `json:"type"`
	Points      []Point        `json:"points"`
	PlaneNormal Point          `json:"planeNormal"`
	PlaneOrigin Point          `json:"planeOrigin"`
	Params      map[string]any `json:"params,omitempty"`
}

// SolidUpdate is a partial update; nil fields are left unchanged.
type SolidUpdate struct {
	Position *Point
	Rotation *Point
	Scale    *Point
	Color    *string
	Params   map[string]any
}

// Recorder receives every mutation after it is applied in memory.
type Recorder interface {
	SaveSolid(s Solid) error
	SaveSketch(s Sketch) error
	DeleteEntity(id string) error
}

// Document is the in-memory CAD document. Mutations are applied in memory
// first and then written through to the Recorder, if any; a Recorder
// failure is logged and does not undo the mutation.
type Document struct {
	mu       sync.RWMutex
	solids   []Solid
	sketches []Sketch
	recorder Recorder
	newID    func() string
}

// New creates an empty document writing through to r. r may be nil.
func New(r Recorder) *Document {
	return &Document{
		recorder: r,
		newID:    func() string { return uuid.New().String() },
	}
}

// Restore replaces the document contents without notifying the recorder.
func (d *Document) Restore(solids []Solid, sketches []Sketch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.solids = make([]Solid, len(solids))
	for i, s := range solids {
		d.solids[i] = cloneSolid(s)
	}
	d.sketches = make([]Sketch, len(sketches))
	for i, s := range sketches {
		d.sketches[i] = cloneSketch(s)
	}
}

// SeedDefault adds the default cube if the document is empty.
func (d *Document) SeedDefault() {
	d.mu.RLock()
	empty := len(d.solids) == 0 && len(d.sketches) == 0
	d.mu.RUnlock()
	if !empty {
		return
	}

	d.add(Solid{
		ID:       DefaultCubeID,
		Kind:     SolidCube,
		Position: Point{X: 0, Y: 0.5, Z: 0},
		Scale:    Point{X: 1, Y: 1, Z: 1},
		Params:   map[string]any{"size": 1.0},
		Color:    "orange",
	})
}

// AddSolid stores a new solid and returns its id. Any id on spec is replaced.
func (d *Document) AddSolid(spec Solid) string {
	spec.ID = d.newID()
	d.add(spec)
	return spec.ID
}

func (d *Document) add(s Solid) {
	s = cloneSolid(s)

	d.mu.Lock()
	d.solids = append(d.solids, s)
	d.mu.Unlock()

	if d.recorder != nil {
		if err := d.recorder.SaveSolid(s); err != nil {
			log.Printf("document: persist solid %s: %v", s.ID, err)
		}
	}
}

// AddSketch stores a new sketch primitive and returns its id.
func (d *Document) AddSketch(spec Sketch) string {
	spec = cloneSketch(spec)
	spec.ID = d.newID()

	d.mu.Lock()
	d.sketches = append(d.sketches, spec)
	d.mu.Unlock()

	if d.recorder != nil {
		if err := d.recorder.SaveSketch(spec); err != nil {
			log.Printf("document: persist sketch %s: %v", spec.ID, err)
		}
	}

	return spec.ID
}

// UpdateSolid applies u to the solid with the given id. Returns false if no
// such solid exists.
func (d *Document) UpdateSolid(id string, u SolidUpdate) bool {
	d.mu.Lock()
	idx := -1
	for i := range d.solids {
		if d.solids[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		d.mu.Unlock()
		return false
	}

	s := &d.solids[idx]
	if u.Position != nil {
		s.Position = *u.Position
	}
	if u.Rotation != nil {
		s.Rotation = *u.Rotation
	}
	if u.Scale != nil {
		s.Scale = *u.Scale
	}
	if u.Color != nil {
		s.Color = *u.Color
	}
	if u.Params != nil {
		s.Params = cloneParams(u.Params)
	}
	updated := cloneSolid(*s)
	d.mu.Unlock()

	if d.recorder != nil {
		if err := d.recorder.SaveSolid(updated); err != nil {
			log.Printf("document: persist solid %s: %v", id, err)
		}
	}
	return true
}

// RemoveEntity deletes the solid or sketch with the given id. Returns false
// if nothing was removed.
func (d *Document) RemoveEntity(id string) bool {
	d.mu.Lock()
	removed := false
	for i := range d.solids {
		if d.solids[i].ID == id {
			d.solids = append(d.solids[:i], d.solids[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		for i := range d.sketches {
			if d.sketches[i].ID == id {
				d.sketches = append(d.sketches[:i], d.sketches[i+1:]...)
				removed = true
				break
			}
		}
	}
	d.mu.Unlock()

	if removed && d.recorder != nil {
		if err := d.recorder.DeleteEntity(id); err != nil {
			log.Printf("document: delete entity %s: %v", id, err)
		}
	}
	return removed
}

// Solid returns a copy of the solid with the given id.
func (d *Document) Solid(id string) (Solid, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.solids {
		if s.ID == id {
			return cloneSolid(s), true
		}
	}
	return Solid{}, false
}

// Sketch returns a copy of the sketch with the given id.
func (d *Document) Sketch(id string) (Sketch, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.sketches {
		if s.ID == id {
			return cloneSketch(s), true
		}
	}
	return Sketch{}, false
}

// Solids returns a copy of every solid in insertion order.
func (d *Document) Solids() []Solid {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Solid, len(d.solids))
	for i, s := range d.solids {
		out[i] = cloneSolid(s)
	}
	return out
}

// Sketches returns a copy of every sketch in insertion order.
func (d *Document) Sketches() []Sketch {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Sketch, len(d.sketches))
	for i, s := range d.sketches {
		out[i] = cloneSketch(s)
	}
	return out
}

func cloneSolid(s Solid) Solid {
	s.Params = cloneParams(s.Params)
	return s
}

func cloneSketch(s Sketch) Sketch {
	if s.Points != nil {
		pts := make([]Point, len(s.Points))
		copy(pts, s.Points)
		s.Points = pts
	}
	s.Params = cloneParams(s.Params)
	return s
}

func cloneParams(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
