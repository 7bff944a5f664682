// Package state holds the project-state domain model: the persisted record,
// the merge engine that reconciles incremental saves, and the fuzzy name
// matching used to catch near-duplicate project names.
package state

import (
	"fmt"
	"time"
)

// SchemaVersion tags every persisted record for forward compatibility.
const SchemaVersion = "2.0"

// MergeMode selects how a partial update combines with an existing record.
type MergeMode string

const (
	// ModeReplace discards the existing record entirely; fields absent from
	// the update become empty.
	ModeReplace MergeMode = "replace"

	// ModeMerge overwrites fields present in the update and inherits the
	// rest from the existing record. List fields are replaced wholesale.
	ModeMerge MergeMode = "merge"

	// ModeAppendLists accumulates decision and file logs (deduplicated,
	// first-seen order) while scalar fields follow ModeMerge semantics.
	ModeAppendLists MergeMode = "append_lists"
)

// ParseMergeMode validates a caller-supplied mode string. The empty string
// maps to ModeReplace, the default write behavior.
func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(s) {
	case "":
		return ModeReplace, nil
	case ModeReplace, ModeMerge, ModeAppendLists:
		return MergeMode(s), nil
	default:
		return "", fmt.Errorf("unknown merge mode %q (use replace, merge or append_lists)", s)
	}
}

// ProjectRecord is the persisted unit of project state. Name is immutable
// once a record exists; everything else evolves save by save.
type ProjectRecord struct {
	Name               string    `json:"project_name"`
	Focus              string    `json:"current_focus"`
	Decisions          []string  `json:"technical_decisions"`
	FilesTouched       []string  `json:"files_modified"`
	NextActions        []string  `json:"next_actions"`
	Summary            string    `json:"conversation_summary"`
	LastUpdated        time.Time `json:"last_updated"`
	Version            string    `json:"version"`
	MergeModeUsed      MergeMode `json:"merge_mode_used"`
	ValidationBypassed bool      `json:"validation_bypassed"`
}

// PartialUpdate carries the fields of a single save call. Nil pointers and
// nil slices mean "absent"; an empty non-nil slice explicitly clears a list
// under replace/merge semantics.
type PartialUpdate struct {
	Focus        *string
	Decisions    []string
	FilesTouched []string
	NextActions  []string
	Summary      *string
}

// IsEmpty reports whether the update carries no fields at all.
func (u PartialUpdate) IsEmpty() bool {
	return u.Focus == nil && u.Summary == nil &&
		u.Decisions == nil && u.FilesTouched == nil && u.NextActions == nil
}

// ContentEquals compares the user-visible payload of two records, ignoring
// bookkeeping fields (LastUpdated, MergeModeUsed, ValidationBypassed).
// Used to decide whether a write actually changed anything.
func (r ProjectRecord) ContentEquals(other ProjectRecord) bool {
	return r.Name == other.Name &&
		r.Focus == other.Focus &&
		r.Summary == other.Summary &&
		equalStrings(r.Decisions, other.Decisions) &&
		equalStrings(r.FilesTouched, other.FilesTouched) &&
		equalStrings(r.NextActions, other.NextActions)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
