package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/starkcad/internal/document"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SolidRepository stores solid descriptors.
type SolidRepository struct {
	db *sql.DB
}

// Solids returns the solid repository for this store.
func (s *Store) Solids() *SolidRepository {
	return &SolidRepository{db: s.db}
}

// Save inserts the solid or replaces the stored copy with the same id. The
// original insertion order is kept.
func (r *SolidRepository) Save(s document.Solid) error {
	pos, rot, scale, err := encodeTransform(s)
	if err != nil {
		return err
	}
	params, err := encodeParams(s.Params)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO solids (id, kind, position, rotation, scale, sketch_id, params, color, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			position = excluded.position,
			rotation = excluded.rotation,
			scale = excluded.scale,
			sketch_id = excluded.sketch_id,
			params = excluded.params,
			color = excluded.color,
			updated_at = excluded.updated_at`,
		s.ID, string(s.Kind), pos, rot, scale, s.SketchID, params, s.Color, time.Now(),
	)
	return err
}

// Get retrieves a solid by id.
func (r *SolidRepository) Get(id string) (document.Solid, error) {
	row := r.db.QueryRow(
		`SELECT id, kind, position, rotation, scale, sketch_id, params, color
		 FROM solids WHERE id = ?`, id)

	s, err := scanSolid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Solid{}, ErrNotFound
	}
	return s, err
}

// List returns every solid in insertion order.
func (r *SolidRepository) List() ([]document.Solid, error) {
	rows, err := r.db.Query(
		`SELECT id, kind, position, rotation, scale, sketch_id, params, color
		 FROM solids ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var solids []document.Solid
	for rows.Next() {
		s, err := scanSolid(rows)
		if err != nil {
			return nil, err
		}
		solids = append(solids, s)
	}
	return solids, rows.Err()
}

// Delete removes a solid. Returns ErrNotFound if it does not exist.
func (r *SolidRepository) Delete(id string) error {
	return deleteByID(r.db, "solids", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSolid(row scanner) (document.Solid, error) {
	var (
		s                     document.Solid
		kind                  string
		pos, rot, scale, prms string
	)
	if err := row.Scan(&s.ID, &kind, &pos, &rot, &scale, &s.SketchID, &prms, &s.Color); err != nil {
		return document.Solid{}, err
	}
	s.Kind = document.SolidKind(kind)

	for _, f := range []struct {
		raw string
		dst any
	}{
		{pos, &s.Position},
		{rot, &s.Rotation},
		{scale, &s.Scale},
		{prms, &s.Params},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return document.Solid{}, fmt.Errorf("decode solid %s: %w", s.ID, err)
		}
	}
	return s, nil
}

func encodeTransform(s document.Solid) (pos, rot, scale string, err error) {
	if pos, err = encodeJSON(s.Position); err != nil {
		return
	}
	if rot, err = encodeJSON(s.Rotation); err != nil {
		return
	}
	scale, err = encodeJSON(s.Scale)
	return
}

func encodeParams(p map[string]any) (string, error) {
	if p == nil {
		return "{}", nil
	}
	return encodeJSON(p)
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return string(b), nil
}

func deleteByID(db *sql.DB, table, id string) error {
	res, err := db.Exec(`DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
