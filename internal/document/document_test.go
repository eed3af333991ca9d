package document

import (
	"errors"
	"testing"
)

type recordingRecorder struct {
	solids   []Solid
	sketches []Sketch
	deleted  []string
	err      error
}

func (r *recordingRecorder) SaveSolid(s Solid) error {
	r.solids = append(r.solids, s)
	return r.err
}

func (r *recordingRecorder) SaveSketch(s Sketch) error {
	r.sketches = append(r.sketches, s)
	return r.err
}

func (r *recordingRecorder) DeleteEntity(id string) error {
	r.deleted = append(r.deleted, id)
	return r.err
}

func TestDocument_AddSolid(t *testing.T) {
	rec := &recordingRecorder{}
	doc := New(rec)

	id := doc.AddSolid(Solid{ID: "ignored", Kind: SolidSphere, Color: "#a855f7"})

	if id == "" || id == "ignored" {
		t.Fatalf("AddSolid() id = %q, want a fresh id", id)
	}

	got, ok := doc.Solid(id)
	if !ok {
		t.Fatal("solid not found after AddSolid")
	}
	if got.Kind != SolidSphere {
		t.Errorf("Kind = %s, want SPHERE", got.Kind)
	}
	if len(rec.solids) != 1 || rec.solids[0].ID != id {
		t.Errorf("recorder saw %v, want the new solid", rec.solids)
	}
}

func TestDocument_AddSketch(t *testing.T) {
	doc := New(nil)
	points := []Point{{X: 0}, {X: 1}}

	id := doc.AddSketch(Sketch{Kind: SketchLine, Points: points})
	points[1].X = 42

	sketches := doc.Sketches()
	if len(sketches) != 1 {
		t.Fatalf("expected 1 sketch, got %d", len(sketches))
	}
	if sketches[0].ID != id {
		t.Errorf("sketch id = %s, want %s", sketches[0].ID, id)
	}
	if sketches[0].Points[1].X != 1 {
		t.Error("document shares point storage with the caller")
	}
}

func TestDocument_UpdateSolid(t *testing.T) {
	rec := &recordingRecorder{}
	doc := New(rec)
	id := doc.AddSolid(Solid{Kind: SolidCube, Color: "white", Scale: Point{X: 1, Y: 1, Z: 1}})

	color := "red"
	pos := Point{X: 1, Y: 2, Z: 3}
	if !doc.UpdateSolid(id, SolidUpdate{Color: &color, Position: &pos}) {
		t.Fatal("UpdateSolid() = false, want true")
	}

	got, _ := doc.Solid(id)
	if got.Color != "red" || got.Position != pos {
		t.Errorf("solid = %+v, want color red at %v", got, pos)
	}
	if got.Scale != (Point{X: 1, Y: 1, Z: 1}) {
		t.Errorf("scale changed to %v, nil fields must be untouched", got.Scale)
	}
	if len(rec.solids) != 2 {
		t.Errorf("recorder saw %d saves, want 2", len(rec.solids))
	}

	if doc.UpdateSolid("missing", SolidUpdate{Color: &color}) {
		t.Error("UpdateSolid() on a missing id should return false")
	}
}

func TestDocument_RemoveEntity(t *testing.T) {
	rec := &recordingRecorder{}
	doc := New(rec)
	solidID := doc.AddSolid(Solid{Kind: SolidCube})
	sketchID := doc.AddSketch(Sketch{Kind: SketchRect})

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "solid", id: solidID, want: true},
		{name: "sketch", id: sketchID, want: true},
		{name: "already removed", id: solidID, want: false},
		{name: "unknown", id: "nope", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := doc.RemoveEntity(tt.id); got != tt.want {
				t.Errorf("RemoveEntity(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}

	if len(doc.Solids()) != 0 || len(doc.Sketches()) != 0 {
		t.Error("document should be empty")
	}
	if len(rec.deleted) != 2 {
		t.Errorf("recorder saw %d deletes, want 2", len(rec.deleted))
	}
}

func TestDocument_RecorderFailureKeepsMutation(t *testing.T) {
	doc := New(&recordingRecorder{err: errors.New("disk full")})

	id := doc.AddSolid(Solid{Kind: SolidCube})

	if _, ok := doc.Solid(id); !ok {
		t.Error("solid should remain in memory when persistence fails")
	}
}

func TestDocument_SeedDefault(t *testing.T) {
	doc := New(nil)
	doc.SeedDefault()
	doc.SeedDefault()

	solids := doc.Solids()
	if len(solids) != 1 {
		t.Fatalf("expected exactly 1 solid, got %d", len(solids))
	}
	if solids[0].ID != DefaultCubeID {
		t.Errorf("id = %s, want %s", solids[0].ID, DefaultCubeID)
	}
	if solids[0].Position.Y != 0.5 {
		t.Errorf("cube should rest on the ground plane, Y = %f", solids[0].Position.Y)
	}
}

func TestDocument_Restore(t *testing.T) {
	rec := &recordingRecorder{}
	doc := New(rec)

	doc.Restore(
		[]Solid{{ID: "a", Kind: SolidCube}},
		[]Sketch{{ID: "b", Kind: SketchLine}},
	)
	doc.SeedDefault()

	if len(doc.Solids()) != 1 || len(doc.Sketches()) != 1 {
		t.Error("restore should load both collections and suppress the default cube")
	}
	if len(rec.solids) != 0 || len(rec.sketches) != 0 {
		t.Error("restore must not write back to the recorder")
	}
}

func TestDocument_SketchLookup(t *testing.T) {
	d := New(nil)
	id := d.AddSketch(Sketch{Kind: SketchLine, Points: []Point{{}, {X: 1}}})

	got, ok := d.Sketch(id)
	if !ok || got.ID != id || got.Kind != SketchLine {
		t.Fatalf("Sketch(%s) = %+v, %v", id, got, ok)
	}
	got.Points[1].X = 99
	if again, _ := d.Sketch(id); again.Points[1].X != 1 {
		t.Error("Sketch() must return a copy")
	}
	if _, ok := d.Sketch("missing"); ok {
		t.Error("Sketch(missing) should report false")
	}
}
