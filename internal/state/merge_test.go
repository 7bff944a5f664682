package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestMergeFirstSave(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	update := PartialUpdate{
		Focus:       strptr("build auth flow"),
		Decisions:   []string{"Using Vite"},
		NextActions: []string{"wire login form"},
	}

	// Without prior state every mode must produce the same payload as
	// replace, while still recording the requested mode.
	for _, mode := range []MergeMode{ModeReplace, ModeMerge, ModeAppendLists} {
		t.Run(string(mode), func(t *testing.T) {
			got := Merge(nil, "demo", update, mode, now)

			assert.Equal(t, "demo", got.Name)
			assert.Equal(t, "build auth flow", got.Focus)
			assert.Equal(t, []string{"Using Vite"}, got.Decisions)
			assert.Equal(t, []string{"wire login form"}, got.NextActions)
			assert.Empty(t, got.FilesTouched)
			assert.Equal(t, mode, got.MergeModeUsed)
			assert.Equal(t, SchemaVersion, got.Version)
			assert.Equal(t, now, got.LastUpdated)
		})
	}
}

func TestMergeZeroModeIsReplace(t *testing.T) {
	now := time.Now().UTC()
	existing := &ProjectRecord{
		Name:      "demo",
		Focus:     "old focus",
		Decisions: []string{"a"},
	}

	// An unset mode must behave exactly like replace and never be
	// stamped on the record as-is.
	got := Merge(existing, "demo", PartialUpdate{Decisions: []string{"b"}}, "", now)

	assert.Equal(t, ModeReplace, got.MergeModeUsed)
	assert.Empty(t, got.Focus)
	assert.Equal(t, []string{"b"}, got.Decisions)
}

func TestMergeReplaceDropsAbsentFields(t *testing.T) {
	now := time.Now().UTC()
	existing := &ProjectRecord{
		Name:         "demo",
		Focus:        "old focus",
		Decisions:    []string{"old decision"},
		FilesTouched: []string{"main.go"},
		Summary:      "old summary",
		LastUpdated:  now.Add(-time.Hour),
	}

	got := Merge(existing, "demo", PartialUpdate{Focus: strptr("new focus")}, ModeReplace, now)

	assert.Equal(t, "new focus", got.Focus)
	assert.Empty(t, got.Decisions)
	assert.Empty(t, got.FilesTouched)
	assert.Empty(t, got.Summary)
	assert.Equal(t, ModeReplace, got.MergeModeUsed)
	assert.Equal(t, now, got.LastUpdated)
}

func TestMergeModePreservesAbsentFields(t *testing.T) {
	now := time.Now().UTC()
	existing := &ProjectRecord{
		Name:        "demo",
		Focus:       "A",
		NextActions: []string{"x"},
		LastUpdated: now.Add(-time.Hour),
	}

	got := Merge(existing, "demo", PartialUpdate{Focus: strptr("B")}, ModeMerge, now)

	assert.Equal(t, "B", got.Focus)
	assert.Equal(t, []string{"x"}, got.NextActions, "absent field must be inherited unchanged")
}

func TestMergeModeReplacesListsWholesale(t *testing.T) {
	now := time.Now().UTC()
	existing := &ProjectRecord{
		Name:      "demo",
		Decisions: []string{"a", "b"},
	}

	got := Merge(existing, "demo", PartialUpdate{Decisions: []string{"c"}}, ModeMerge, now)
	assert.Equal(t, []string{"c"}, got.Decisions)
}

func TestAppendListsDeduplicates(t *testing.T) {
	now := time.Now().UTC()
	existing := &ProjectRecord{
		Name:      "demo",
		Decisions: []string{"Using Vite"},
	}
	update := PartialUpdate{
		Decisions: []string{"Using Vite", "Added Zustand"},
	}

	got := Merge(existing, "demo", update, ModeAppendLists, now)
	assert.Equal(t, []string{"Using Vite", "Added Zustand"}, got.Decisions)
}

func TestAppendListsCollapsesDuplicatesWithinUpdate(t *testing.T) {
	now := time.Now().UTC()
	update := PartialUpdate{
		FilesTouched: []string{"a.go", "b.go", "a.go"},
	}

	got := Merge(&ProjectRecord{Name: "demo"}, "demo", update, ModeAppendLists, now)
	assert.Equal(t, []string{"a.go", "b.go"}, got.FilesTouched)
}

func TestAppendListsReplacesNextActions(t *testing.T) {
	now := time.Now().UTC()
	existing := &ProjectRecord{
		Name:        "demo",
		NextActions: []string{"old plan"},
	}

	t.Run("present replaces", func(t *testing.T) {
		got := Merge(existing, "demo", PartialUpdate{NextActions: []string{"new plan"}}, ModeAppendLists, now)
		assert.Equal(t, []string{"new plan"}, got.NextActions)
	})

	t.Run("absent inherits", func(t *testing.T) {
		got := Merge(existing, "demo", PartialUpdate{Focus: strptr("f")}, ModeAppendLists, now)
		assert.Equal(t, []string{"old plan"}, got.NextActions)
	})
}

func TestAppendListsRepeatedSavesStayUnique(t *testing.T) {
	now := time.Now().UTC()
	var rec *ProjectRecord

	updates := [][]string{
		{"one"},
		{"one", "two"},
		{"two", "three", "three"},
		{"one", "three"},
	}
	for _, decisions := range updates {
		next := Merge(rec, "demo", PartialUpdate{Decisions: decisions}, ModeAppendLists, now)
		rec = &next
	}

	require.NotNil(t, rec)
	assert.Equal(t, []string{"one", "two", "three"}, rec.Decisions)

	seen := map[string]int{}
	for _, d := range rec.Decisions {
		seen[d]++
	}
	for d, n := range seen {
		assert.Equal(t, 1, n, "decision %q appears %d times", d, n)
	}
}

func TestMergeKeepsTimestampWhenContentUnchanged(t *testing.T) {
	before := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := before.Add(2 * time.Hour)
	existing := &ProjectRecord{
		Name:        "demo",
		Focus:       "same",
		Decisions:   []string{"d"},
		LastUpdated: before,
	}
	update := PartialUpdate{
		Focus:     strptr("same"),
		Decisions: []string{"d"},
	}

	got := Merge(existing, "demo", update, ModeMerge, now)
	assert.Equal(t, before, got.LastUpdated, "no content change must not advance last_updated")

	changed := Merge(existing, "demo", PartialUpdate{Focus: strptr("different")}, ModeMerge, now)
	assert.Equal(t, now, changed.LastUpdated)
}

func TestMergePreservesStoredNameCasing(t *testing.T) {
	now := time.Now().UTC()
	existing := &ProjectRecord{Name: "My Project"}

	got := Merge(existing, "my project", PartialUpdate{Focus: strptr("f")}, ModeMerge, now)
	assert.Equal(t, "My Project", got.Name)
}

func TestParseMergeMode(t *testing.T) {
	cases := []struct {
		in      string
		want    MergeMode
		wantErr bool
	}{
		{in: "", want: ModeReplace},
		{in: "replace", want: ModeReplace},
		{in: "merge", want: ModeMerge},
		{in: "append_lists", want: ModeAppendLists},
		{in: "append", wantErr: true},
		{in: "REPLACE", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMergeMode(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
