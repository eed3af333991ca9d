package store

// runMigrations creates the schema. Every statement is idempotent.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Vectors and params are JSON text; the renderer is their only reader.
		`CREATE TABLE IF NOT EXISTS solids (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK(kind IN ('CUBE', 'SPHERE', 'EXTRUDE')),
			position TEXT NOT NULL,
			rotation TEXT NOT NULL,
			scale TEXT NOT NULL,
			sketch_id TEXT NOT NULL DEFAULT '',
			params TEXT NOT NULL DEFAULT '{}',
			color TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS sketches (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK(kind IN ('LINE', 'RECT', 'CIRCLE')),
			points TEXT NOT NULL,
			plane_normal TEXT NOT NULL,
			plane_origin TEXT NOT NULL,
			params TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_solids_sketch_id ON solids(sketch_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
