package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ayusman/starkcad/internal/document"
)

// SketchRepository stores committed sketch primitives.
type SketchRepository struct {
	db *sql.DB
}

// Sketches returns the sketch repository for this store.
func (s *Store) Sketches() *SketchRepository {
	return &SketchRepository{db: s.db}
}

// Save inserts a sketch, replacing any stored copy with the same id.
func (r *SketchRepository) Save(s document.Sketch) error {
	points, err := encodeJSON(s.Points)
	if err != nil {
		return err
	}
	normal, err := encodeJSON(s.PlaneNormal)
	if err != nil {
		return err
	}
	origin, err := encodeJSON(s.PlaneOrigin)
	if err != nil {
		return err
	}
	params, err := encodeParams(s.Params)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO sketches (id, kind, points, plane_normal, plane_origin, params)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			points = excluded.points,
			plane_normal = excluded.plane_normal,
			plane_origin = excluded.plane_origin,
			params = excluded.params`,
		s.ID, string(s.Kind), points, normal, origin, params,
	)
	return err
}

// List returns every sketch in commit order.
func (r *SketchRepository) List() ([]document.Sketch, error) {
	rows, err := r.db.Query(
		`SELECT id, kind, points, plane_normal, plane_origin, params
		 FROM sketches ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sketches []document.Sketch
	for rows.Next() {
		var (
			s                              document.Sketch
			kind, pts, normal, origin, prm string
		)
		if err := rows.Scan(&s.ID, &kind, &pts, &normal, &origin, &prm); err != nil {
			return nil, err
		}
		s.Kind = document.SketchKind(kind)

		for _, f := range []struct {
			raw string
			dst any
		}{
			{pts, &s.Points},
			{normal, &s.PlaneNormal},
			{origin, &s.PlaneOrigin},
			{prm, &s.Params},
		} {
			if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
				return nil, fmt.Errorf("decode sketch %s: %w", s.ID, err)
			}
		}
		sketches = append(sketches, s)
	}
	return sketches, rows.Err()
}

// Delete removes a sketch. Returns ErrNotFound if it does not exist.
func (r *SketchRepository) Delete(id string) error {
	return deleteByID(r.db, "sketches", id)
}
