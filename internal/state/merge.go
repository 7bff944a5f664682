package state

import "time"

// Merge combines an existing record (nil for a first save) with a partial
// update under the given mode and returns the resulting record. It is a pure
// function: neither input is mutated and no I/O happens here.
//
// The empty mode means ModeReplace, the write default, and the record is
// stamped accordingly. Callers validate user-supplied mode strings with
// ParseMergeMode; a mode outside the three named values is treated as
// replace here rather than guessed at.
//
// When existing is nil every mode degenerates to replace semantics, but the
// requested mode is still recorded on the result for audit purposes.
// LastUpdated is set to now only if the produced content differs from the
// existing record; otherwise the prior timestamp is preserved.
func Merge(existing *ProjectRecord, name string, update PartialUpdate, mode MergeMode, now time.Time) ProjectRecord {
	if existing != nil {
		// The stored name wins: records are never renamed by a save,
		// even if the caller spelled the name with different casing.
		name = existing.Name
	}
	if mode != ModeMerge && mode != ModeAppendLists {
		mode = ModeReplace
	}

	result := ProjectRecord{
		Name:          name,
		Version:       SchemaVersion,
		MergeModeUsed: mode,
		LastUpdated:   now,
	}

	switch {
	case existing == nil || mode == ModeReplace:
		applyReplace(&result, update)
	case mode == ModeMerge:
		applyMerge(&result, *existing, update)
	default:
		applyAppendLists(&result, *existing, update)
	}

	if existing != nil && result.ContentEquals(*existing) {
		result.LastUpdated = existing.LastUpdated
	}
	return result
}

func applyReplace(result *ProjectRecord, update PartialUpdate) {
	if update.Focus != nil {
		result.Focus = *update.Focus
	}
	if update.Summary != nil {
		result.Summary = *update.Summary
	}
	result.Decisions = copyStrings(update.Decisions)
	result.FilesTouched = copyStrings(update.FilesTouched)
	result.NextActions = copyStrings(update.NextActions)
}

func applyMerge(result *ProjectRecord, existing ProjectRecord, update PartialUpdate) {
	result.Focus = existing.Focus
	if update.Focus != nil {
		result.Focus = *update.Focus
	}
	result.Summary = existing.Summary
	if update.Summary != nil {
		result.Summary = *update.Summary
	}
	result.Decisions = pickList(existing.Decisions, update.Decisions)
	result.FilesTouched = pickList(existing.FilesTouched, update.FilesTouched)
	result.NextActions = pickList(existing.NextActions, update.NextActions)
}

func applyAppendLists(result *ProjectRecord, existing ProjectRecord, update PartialUpdate) {
	result.Focus = existing.Focus
	if update.Focus != nil {
		result.Focus = *update.Focus
	}
	result.Summary = existing.Summary
	if update.Summary != nil {
		result.Summary = *update.Summary
	}
	result.Decisions = appendUnique(existing.Decisions, update.Decisions)
	result.FilesTouched = appendUnique(existing.FilesTouched, update.FilesTouched)
	// NextActions is the current plan, not a history log: replaced
	// wholesale when present, inherited otherwise.
	result.NextActions = pickList(existing.NextActions, update.NextActions)
}

// appendUnique concatenates existing and update, dropping every entry that
// was already seen. First-appearance order is preserved and duplicates
// inside either input are collapsed too.
func appendUnique(existing, update []string) []string {
	if len(existing) == 0 && len(update) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(existing)+len(update))
	out := make([]string, 0, len(existing)+len(update))
	for _, s := range existing {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range update {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func pickList(existing, update []string) []string {
	if update != nil {
		return copyStrings(update)
	}
	return copyStrings(existing)
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
