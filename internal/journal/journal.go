// Package journal keeps an append-only SQLite log of save and checkpoint
// events. The journal is an audit trail, not the source of truth: losing it
// never loses project state.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one recorded write against a project.
type Event struct {
	ID                 int64     `json:"id"`
	Project            string    `json:"project"`
	Operation          string    `json:"operation"` // "save" or "checkpoint"
	MergeMode          string    `json:"merge_mode"`
	Trigger            string    `json:"trigger,omitempty"`
	Note               string    `json:"note,omitempty"`
	ValidationBypassed bool      `json:"validation_bypassed"`
	CreatedAt          time.Time `json:"created_at"`
}

// Journal wraps the SQLite handle. A nil *Journal is valid and turns every
// method into a no-op, so callers can run without a journal at all.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	pragmas := []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA synchronous = NORMAL`,
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	query := `CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		operation TEXT NOT NULL,
		merge_mode TEXT NOT NULL,
		trigger_kind TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		validation_bypassed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_project ON events(project, id);`

	if _, err := j.db.Exec(query); err != nil {
		return fmt.Errorf("init journal schema: %w", err)
	}
	return nil
}

// Record appends one event. No-op on a nil journal.
func (j *Journal) Record(ev Event) error {
	if j == nil {
		return nil
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO events (project, operation, merge_mode, trigger_kind, note, validation_bypassed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := j.db.Exec(query, ev.Project, ev.Operation, ev.MergeMode, ev.Trigger, ev.Note, ev.ValidationBypassed, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("record journal event: %w", err)
	}
	return nil
}

// Recent returns the newest events for a project, most recent first. A limit
// <= 0 means 20. Nil journal yields an empty history.
func (j *Journal) Recent(project string, limit int) ([]Event, error) {
	if j == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, project, operation, merge_mode, trigger_kind, note, validation_bypassed, created_at
		FROM events WHERE project = ? ORDER BY id DESC LIMIT ?`
	rows, err := j.db.Query(query, project, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var bypassed int
		if err := rows.Scan(&ev.ID, &ev.Project, &ev.Operation, &ev.MergeMode, &ev.Trigger, &ev.Note, &bypassed, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal event: %w", err)
		}
		ev.ValidationBypassed = bypassed != 0
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return events, nil
}

// Close releases the database handle. No-op on a nil journal.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}
