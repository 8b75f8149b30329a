// Package history keeps a SQLite record of pipeline runs, their per-entity
// render results and the fingerprint each artifact was last rendered from.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// RunRecord summarises one pipeline run.
type RunRecord struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      string
	TrackedFiles int
	MediaFiles   int
	Entities     int
	Succeeded    int
	Failed       int
	Skipped      int
}

// ResultRecord is one entity's render result within a run.
type ResultRecord struct {
	Slug        string
	URL         string
	Success     bool
	Skipped     bool
	Error       string
	Duration    time.Duration
	Fingerprint string
}

// Store is a SQLite backed run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the history database at path. Use
// ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		tracked_files INTEGER NOT NULL,
		media_files INTEGER NOT NULL,
		entities INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		skipped INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS render_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		slug TEXT NOT NULL,
		url TEXT NOT NULL,
		success INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_render_results_run ON render_results(run_id);
	CREATE TABLE IF NOT EXISTS artifacts (
		slug TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		rendered_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores a run with its results in one transaction. Successful,
// freshly rendered results update the artifact fingerprints.
func (s *Store) RecordRun(ctx context.Context, run RunRecord, results []ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, outcome, tracked_files, media_files, entities, succeeded, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.Outcome,
		run.TrackedFiles, run.MediaFiles, run.Entities, run.Succeeded, run.Failed, run.Skipped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	resultStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO render_results (run_id, slug, url, success, skipped, error, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer func() { _ = resultStmt.Close() }()

	artifactStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO artifacts (slug, url, fingerprint, rendered_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET url = excluded.url, fingerprint = excluded.fingerprint, rendered_at = excluded.rendered_at`)
	if err != nil {
		return fmt.Errorf("prepare artifact upsert: %w", err)
	}
	defer func() { _ = artifactStmt.Close() }()

	for _, r := range results {
		var errText sql.NullString
		if r.Error != "" {
			errText = sql.NullString{String: r.Error, Valid: true}
		}
		if _, err := resultStmt.ExecContext(ctx, run.ID, r.Slug, r.URL, r.Success, r.Skipped, errText, r.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("insert result %s: %w", r.Slug, err)
		}
		if r.Success && !r.Skipped && r.Fingerprint != "" {
			if _, err := artifactStmt.ExecContext(ctx, r.Slug, r.URL, r.Fingerprint, run.FinishedAt.UnixMilli()); err != nil {
				return fmt.Errorf("upsert artifact %s: %w", r.Slug, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Fingerprints returns the last rendered fingerprint of every artifact.
func (s *Store) Fingerprints(ctx context.Context) (Cache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT slug, fingerprint FROM artifacts")
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	cache := make(Cache)
	for rows.Next() {
		var slug, fp string
		if err := rows.Scan(&slug, &fp); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		cache[slug] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return cache, nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, outcome, tracked_files, media_files, entities, succeeded, failed, skipped
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Outcome, &r.TrackedFiles, &r.MediaFiles,
			&r.Entities, &r.Succeeded, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Results returns the render results stored for one run.
func (s *Store) Results(ctx context.Context, runID string) ([]ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT slug, url, success, skipped, error, duration_ms FROM render_results WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []ResultRecord
	for rows.Next() {
		var r ResultRecord
		var errText sql.NullString
		var ms int64
		if err := rows.Scan(&r.Slug, &r.URL, &r.Success, &r.Skipped, &errText, &ms); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Error = errText.String
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Cache maps artifact slugs to the fingerprint they were rendered from.
type Cache map[string]string

// Fingerprint returns the stored fingerprint of slug.
func (c Cache) Fingerprint(slug string) (string, bool) {
	fp, ok := c[slug]
	return fp, ok
}
