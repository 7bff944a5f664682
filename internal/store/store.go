// Package store persists project records as JSON files under a state root,
// one directory per project. Writes are atomic (temp file plus rename) and
// every overwrite of an existing record first snapshots it into a bounded
// set of backup files.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/felixgeelhaar/continuity/internal/state"
)

const (
	currentFile   = "current_state.json"
	backupPattern = "backup_*.json"

	// DefaultBackupCount bounds how many prior snapshots are kept per project.
	DefaultBackupCount = 5
)

// Summary is the lightweight listing view of a stored project.
type Summary struct {
	Name        string    `json:"project_name"`
	Focus       string    `json:"current_focus"`
	LastUpdated time.Time `json:"last_updated"`
	NextActions []string  `json:"next_actions"`
}

// FileStore keeps one subdirectory per project under root.
type FileStore struct {
	root    string
	backups int
}

// New opens a store rooted at dir, creating it if needed. backupCount <= 0
// falls back to DefaultBackupCount.
func New(dir string, backupCount int) (*FileStore, error) {
	if backupCount <= 0 {
		backupCount = DefaultBackupCount
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state root: %w", err)
	}
	return &FileStore{root: dir, backups: backupCount}, nil
}

// Root returns the directory the store writes under.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) projectDir(name string) string {
	return filepath.Join(s.root, Slug(name))
}

func (s *FileStore) currentPath(name string) string {
	return filepath.Join(s.projectDir(name), currentFile)
}

// Persist writes rec as the project's current state. If a current state
// already exists it is snapshotted to a backup first, and the backup set is
// pruned oldest-first to the configured bound. The write itself goes through
// a temp file in the same directory so a crash never leaves a half-written
// current state behind.
func (s *FileStore) Persist(rec state.ProjectRecord) error {
	dir := s.projectDir(rec.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}

	current := filepath.Join(dir, currentFile)
	if prev, err := os.ReadFile(current); err == nil {
		if err := s.snapshot(dir, prev); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read current state: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmpName, current); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}

// snapshot copies the previous current-state bytes into a timestamped backup
// and prunes the oldest backups beyond the bound. Backup filenames sort
// lexicographically in chronological order.
func (s *FileStore) snapshot(dir string, prev []byte) error {
	now := time.Now().UTC()
	name := fmt.Sprintf("backup_%s_%09d.json", now.Format("20060102_150405"), now.Nanosecond())
	if err := os.WriteFile(filepath.Join(dir, name), prev, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	backups, err := listBackups(dir)
	if err != nil {
		return err
	}
	for len(backups) > s.backups {
		if err := os.Remove(filepath.Join(dir, backups[0])); err != nil {
			return fmt.Errorf("prune backup: %w", err)
		}
		backups = backups[1:]
	}
	return nil
}

func listBackups(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read project dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := doublestar.Match(backupPattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("match backup name: %w", err)
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads the current record for name. A missing record yields
// ErrNotFound; an undecodable one yields a CorruptRecordError, which is a
// different failure and must not be masked as absence.
func (s *FileStore) Load(name string) (state.ProjectRecord, error) {
	return s.loadFile(name, s.currentPath(name))
}

// Backups lists the backup filenames for name, oldest first.
func (s *FileStore) Backups(name string) ([]string, error) {
	return listBackups(s.projectDir(name))
}

// LoadBackup reads one named backup snapshot of a project.
func (s *FileStore) LoadBackup(name, backup string) (state.ProjectRecord, error) {
	return s.loadFile(name, filepath.Join(s.projectDir(name), filepath.Base(backup)))
}

func (s *FileStore) loadFile(name, path string) (state.ProjectRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return state.ProjectRecord{}, fmt.Errorf("project %q: %w", name, ErrNotFound)
		}
		return state.ProjectRecord{}, fmt.Errorf("read state for %q: %w", name, err)
	}
	var rec state.ProjectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return state.ProjectRecord{}, &CorruptRecordError{Name: name, Path: path, Err: err}
	}
	return rec, nil
}

// List returns a summary per stored project, most recently updated first.
// Projects whose current state cannot be decoded are skipped; a listing
// should not fail outright because one record is damaged.
func (s *FileStore) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state root: %w", err)
	}

	var out []Summary
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rec, err := s.loadFile(e.Name(), filepath.Join(s.root, e.Name(), currentFile))
		if err != nil {
			continue
		}
		next := rec.NextActions
		if len(next) > 2 {
			next = next[:2]
		}
		out = append(out, Summary{
			Name:        rec.Name,
			Focus:       rec.Focus,
			LastUpdated: rec.LastUpdated,
			NextActions: append([]string(nil), next...),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].Name < out[j].Name
		}
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out, nil
}

// Names returns the stored project names, in listing order.
func (s *FileStore) Names() ([]string, error) {
	summaries, err := s.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(summaries))
	for _, sum := range summaries {
		names = append(names, sum.Name)
	}
	return names, nil
}
