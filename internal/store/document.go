package store

import (
	"errors"
	"fmt"

	"github.com/ayusman/starkcad/internal/document"
)

// SaveSolid implements document.Recorder.
func (s *Store) SaveSolid(solid document.Solid) error {
	if err := s.Solids().Save(solid); err != nil {
		return fmt.Errorf("save solid %s: %w", solid.ID, err)
	}
	return nil
}

// SaveSketch implements document.Recorder.
func (s *Store) SaveSketch(sketch document.Sketch) error {
	if err := s.Sketches().Save(sketch); err != nil {
		return fmt.Errorf("save sketch %s: %w", sketch.ID, err)
	}
	return nil
}

// DeleteEntity implements document.Recorder. The id may name a solid or a
// sketch; ErrNotFound is returned if it names neither.
func (s *Store) DeleteEntity(id string) error {
	err := s.Solids().Delete(id)
	if errors.Is(err, ErrNotFound) {
		err = s.Sketches().Delete(id)
	}
	if err != nil {
		return fmt.Errorf("delete entity %s: %w", id, err)
	}
	return nil
}

// LoadDocument restores every stored solid and sketch into doc.
func (s *Store) LoadDocument(doc *document.Document) error {
	solids, err := s.Solids().List()
	if err != nil {
		return fmt.Errorf("load solids: %w", err)
	}
	sketches, err := s.Sketches().List()
	if err != nil {
		return fmt.Errorf("load sketches: %w", err)
	}
	doc.Restore(solids, sketches)
	return nil
}
