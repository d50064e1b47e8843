// Package store records processing history in a local SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Job status values.
const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Job is one row of processing history.
type Job struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Format     string `json:"format"`
	Status     string `json:"status"`
	Tables     int    `json:"tables"`
	Records    int    `json:"records"`
	Duplicates int    `json:"duplicates"`
	NoiseOnly  int    `json:"noise_only"`
	Markers    int    `json:"markers"`
	Cleaned    int    `json:"cleaned"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// Outcome captures what a finished job produced.
type Outcome struct {
	Tables     int
	Records    int
	Duplicates int
	NoiseOnly  int
	Markers    int
	Cleaned    int
	Err        string
	Duration   time.Duration
}

type DB struct {
	conn *sql.DB
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  filename TEXT NOT NULL,
  format TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'processing',
  tables INTEGER NOT NULL DEFAULT 0,
  records INTEGER NOT NULL DEFAULT 0,
  duplicates INTEGER NOT NULL DEFAULT 0,
  noise INTEGER NOT NULL DEFAULT 0,
  markers INTEGER NOT NULL DEFAULT 0,
  cleaned INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT '',
  duration_ms INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_jobs_createdAt ON jobs(createdAt);
`

	_, err := d.conn.Exec(schema)
	return err
}

// Insert records the start of a processing job.
func (d *DB) Insert(id, filename, format string) error {
	_, err := d.conn.Exec(`
INSERT INTO jobs (id, filename, format, status) VALUES (?, ?, ?, ?)
`, id, filename, format, StatusProcessing)
	return err
}

// Finish records the outcome of a previously inserted job. The status
// becomes "failed" when the outcome carries an error and "done"
// otherwise.
func (d *DB) Finish(id string, out Outcome) error {
	status := StatusDone
	if out.Err != "" {
		status = StatusFailed
	}

	result, err := d.conn.Exec(`
UPDATE jobs SET
  status = ?, tables = ?, records = ?, duplicates = ?, noise = ?,
  markers = ?, cleaned = ?, error = ?, duration_ms = ?
WHERE id = ?
`, status, out.Tables, out.Records, out.Duplicates, out.NoiseOnly,
		out.Markers, out.Cleaned, out.Err, out.Duration.Milliseconds(), id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

// Recent returns the most recently created jobs, newest first.
func (d *DB) Recent(limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT id, filename, format, status, tables, records, duplicates, noise,
       markers, cleaned, error, duration_ms, createdAt
FROM jobs ORDER BY createdAt DESC, rowid DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(
			&j.ID, &j.Filename, &j.Format, &j.Status, &j.Tables, &j.Records,
			&j.Duplicates, &j.NoiseOnly, &j.Markers, &j.Cleaned, &j.Error,
			&j.DurationMS, &j.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
