// Package sqlite implements store.Store on a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tailrisk/causal/pkg/causal/store"
)

// sqliteStore implements the Store interface using SQLite.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and
// creates the schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	created_at TEXT NOT NULL,
	scenario TEXT,
	targets TEXT NOT NULL,
	evidence TEXT NOT NULL,
	cells TEXT NOT NULL,
	accepted INTEGER NOT NULL DEFAULT 0,
	attempted INTEGER NOT NULL DEFAULT 0,
	seed INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	targets, err := json.Marshal(r.Targets)
	if err != nil {
		return fmt.Errorf("marshal targets: %w", err)
	}
	evidence, err := json.Marshal(r.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	cells, err := json.Marshal(r.Cells)
	if err != nil {
		return fmt.Errorf("marshal cells: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO runs (id, kind, created_at, scenario, targets, evidence, cells, accepted, attempted, seed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Kind), r.CreatedAt.UTC().Format(time.RFC3339Nano), r.Scenario,
		string(targets), string(evidence), string(cells),
		r.Accepted, r.Attempted, int64(r.Seed))
	return err
}

// GetRun returns the run with the given ID.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, kind, created_at, scenario, targets, evidence, cells, accepted, attempted, seed
FROM runs WHERE id = ?`, id)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}
	return r, true, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, kind, created_at, scenario, targets, evidence, cells, accepted, attempted, seed
FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (store.Run, error) {
	var (
		r         store.Run
		kind      string
		createdAt string
		scenario  sql.NullString
		targets   string
		evidence  string
		cells     string
		seed      int64
	)
	if err := row.Scan(&r.ID, &kind, &createdAt, &scenario, &targets, &evidence, &cells,
		&r.Accepted, &r.Attempted, &seed); err != nil {
		return store.Run{}, err
	}

	r.Kind = store.Kind(kind)
	r.Scenario = scenario.String
	r.Seed = uint64(seed)
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return store.Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = t

	if err := json.Unmarshal([]byte(targets), &r.Targets); err != nil {
		return store.Run{}, fmt.Errorf("unmarshal targets: %w", err)
	}
	if err := json.Unmarshal([]byte(evidence), &r.Evidence); err != nil {
		return store.Run{}, fmt.Errorf("unmarshal evidence: %w", err)
	}
	if err := json.Unmarshal([]byte(cells), &r.Cells); err != nil {
		return store.Run{}, fmt.Errorf("unmarshal cells: %w", err)
	}
	return r, nil
}
