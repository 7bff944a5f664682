package store

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that no record exists for the requested project.
// Callers use errors.Is to tell a missing record apart from a corrupt one.
var ErrNotFound = errors.New("project state not found")

// CorruptRecordError reports a record file that exists but cannot be decoded.
// The underlying cause is preserved for errors.As / errors.Is chains.
type CorruptRecordError struct {
	Name string
	Path string
	Err  error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt state for project %q at %s: %v", e.Name, e.Path, e.Err)
}

func (e *CorruptRecordError) Unwrap() error { return e.Err }
