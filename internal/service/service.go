// Package service is the orchestration layer behind the MCP tools and the
// CLI: it validates names, runs the merge engine, persists records and keeps
// the audit journal, in that order.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/continuity/internal/journal"
	"github.com/felixgeelhaar/continuity/internal/observe"
	"github.com/felixgeelhaar/continuity/internal/state"
	"github.com/felixgeelhaar/continuity/internal/store"
)

// Service coordinates state reads and writes for one state root.
type Service struct {
	store     *store.FileStore
	journal   *journal.Journal
	obs       *observe.Observer
	threshold float64
}

// New builds a Service. journal may be nil to disable the audit trail; a
// threshold <= 0 falls back to the default similarity threshold.
func New(st *store.FileStore, j *journal.Journal, obs *observe.Observer, threshold float64) *Service {
	if threshold <= 0 {
		threshold = state.DefaultThreshold
	}
	return &Service{store: st, journal: j, obs: obs, threshold: threshold}
}

// SaveParams carries one save request.
type SaveParams struct {
	Name   string
	Update state.PartialUpdate
	Mode   state.MergeMode

	// Force skips near-duplicate name validation for new projects.
	Force bool

	// Threshold overrides the configured similarity threshold for this
	// call; zero means "use the service default".
	Threshold float64
}

// SaveResult is the outcome of a save. When Blocked is non-empty the save
// was refused by name validation and Record is zero.
type SaveResult struct {
	Record  state.ProjectRecord
	Created bool
	Blocked []state.Match
}

// Save applies one partial update. New project names are checked against the
// existing catalog first; near-duplicates block the save unless forced.
// Updates to an existing record never trigger validation.
//
// A corrupt current snapshot fails the save rather than being overwritten
// blind; the escape hatch is to fetch a readable record via LoadOrRecover
// and save that.
func (s *Service) Save(ctx context.Context, p SaveParams) (SaveResult, error) {
	ctx, span := s.obs.StartSpan(ctx, "service.save")
	defer span.End()

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return SaveResult{}, fmt.Errorf("project name must not be empty")
	}
	mode, err := state.ParseMergeMode(string(p.Mode))
	if err != nil {
		return SaveResult{}, err
	}

	existing, err := s.loadExisting(name)
	if err != nil {
		return SaveResult{}, err
	}

	if existing == nil && !p.Force {
		matches, err := s.similarNames(name, p.Threshold)
		if err != nil {
			return SaveResult{}, err
		}
		if len(matches) > 0 {
			s.obs.Log().Warn().
				Str("project", name).
				Int("matches", len(matches)).
				Msg("save blocked by name validation")
			return SaveResult{Blocked: matches}, nil
		}
	}

	rec := state.Merge(existing, name, p.Update, mode, time.Now().UTC())
	rec.ValidationBypassed = p.Force

	// A save that changes nothing, content or bookkeeping, is not worth a
	// write: persisting it would only burn a backup slot on an identical
	// snapshot.
	unchanged := existing != nil &&
		rec.ContentEquals(*existing) &&
		rec.MergeModeUsed == existing.MergeModeUsed &&
		rec.ValidationBypassed == existing.ValidationBypassed
	if !unchanged {
		if err := s.store.Persist(rec); err != nil {
			return SaveResult{}, err
		}
	}

	if err := s.journal.Record(journal.Event{
		Project:            rec.Name,
		Operation:          "save",
		MergeMode:          string(rec.MergeModeUsed),
		ValidationBypassed: p.Force,
	}); err != nil {
		// The state write already succeeded; a journal failure is
		// logged, not surfaced.
		s.obs.Log().Warn().Str("project", rec.Name).Err(err).Msg("journal write failed")
	}

	s.obs.Log().Info().
		Str("project", rec.Name).
		Str("mode", string(rec.MergeModeUsed)).
		Bool("created", existing == nil).
		Msg("state saved")
	return SaveResult{Record: rec, Created: existing == nil}, nil
}

func (s *Service) loadExisting(name string) (*state.ProjectRecord, error) {
	rec, err := s.store.Load(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Service) similarNames(candidate string, threshold float64) ([]state.Match, error) {
	if threshold <= 0 {
		threshold = s.threshold
	}
	names, err := s.store.Names()
	if err != nil {
		return nil, err
	}
	return state.FindSimilar(candidate, names, threshold), nil
}

// Load returns the current record for a project.
func (s *Service) Load(ctx context.Context, name string) (state.ProjectRecord, error) {
	_, span := s.obs.StartSpan(ctx, "service.load")
	defer span.End()
	return s.store.Load(name)
}

// LoadOrRecover loads the current record and, if it turns out corrupt, falls
// back to the newest decodable backup. The returned flag reports whether a
// backup was used.
func (s *Service) LoadOrRecover(ctx context.Context, name string) (state.ProjectRecord, bool, error) {
	_, span := s.obs.StartSpan(ctx, "service.load_or_recover")
	defer span.End()

	rec, err := s.store.Load(name)
	if err == nil {
		return rec, false, nil
	}
	var corrupt *store.CorruptRecordError
	if !errors.As(err, &corrupt) {
		return state.ProjectRecord{}, false, err
	}

	backups, berr := s.store.Backups(name)
	if berr != nil {
		return state.ProjectRecord{}, false, berr
	}
	for i := len(backups) - 1; i >= 0; i-- {
		if rec, rerr := s.store.LoadBackup(name, backups[i]); rerr == nil {
			s.obs.Log().Warn().
				Str("project", name).
				Str("backup", backups[i]).
				Msg("current state corrupt, recovered from backup")
			return rec, true, nil
		}
	}
	return state.ProjectRecord{}, false, err
}

// List returns summaries of all stored projects, most recent first.
func (s *Service) List(ctx context.Context) ([]store.Summary, error) {
	_, span := s.obs.StartSpan(ctx, "service.list")
	defer span.End()
	return s.store.List()
}

// ProjectSummary is the condensed view served by the summary operation.
type ProjectSummary struct {
	Name            string    `json:"project_name"`
	Focus           string    `json:"current_focus"`
	RecentDecisions []string  `json:"recent_decisions"`
	NextActions     []string  `json:"next_actions"`
	LastUpdated     time.Time `json:"last_updated"`
	Brief           string    `json:"context_summary"`
}

// Summarize condenses a project record into the last three decisions, the
// next three actions and a one-line brief.
func (s *Service) Summarize(ctx context.Context, name string) (ProjectSummary, error) {
	rec, err := s.Load(ctx, name)
	if err != nil {
		return ProjectSummary{}, err
	}

	decisions := rec.Decisions
	if len(decisions) > 3 {
		decisions = decisions[len(decisions)-3:]
	}
	next := rec.NextActions
	if len(next) > 3 {
		next = next[:3]
	}

	return ProjectSummary{
		Name:            rec.Name,
		Focus:           rec.Focus,
		RecentDecisions: append([]string(nil), decisions...),
		NextActions:     append([]string(nil), next...),
		LastUpdated:     rec.LastUpdated,
		Brief:           brief(rec.Focus, decisions, next),
	}, nil
}

func brief(focus string, decisions, next []string) string {
	orNone := func(items []string) string {
		if len(items) == 0 {
			return "none"
		}
		return strings.Join(items, "; ")
	}
	if focus == "" {
		focus = "not set"
	}
	return fmt.Sprintf("Focus: %s | Recent decisions: %s | Next: %s",
		focus, orNone(decisions), orNone(next))
}

// ValidateName checks a proposed project name against the stored catalog
// without writing anything. A threshold <= 0 uses the service default.
func (s *Service) ValidateName(ctx context.Context, candidate string, threshold float64) ([]state.Match, error) {
	_, span := s.obs.StartSpan(ctx, "service.validate_name")
	defer span.End()

	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, fmt.Errorf("project name must not be empty")
	}
	return s.similarNames(candidate, threshold)
}

// Checkpoint marks a known-good point in time for a project. A missing
// record is created empty so later merges have an anchor; an existing record
// is left untouched. Either way the event lands in the journal.
func (s *Service) Checkpoint(ctx context.Context, name, trigger, note string) (state.ProjectRecord, error) {
	ctx, span := s.obs.StartSpan(ctx, "service.checkpoint")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return state.ProjectRecord{}, fmt.Errorf("project name must not be empty")
	}

	existing, err := s.loadExisting(name)
	if err != nil {
		return state.ProjectRecord{}, err
	}

	var rec state.ProjectRecord
	if existing == nil {
		rec = state.Merge(nil, name, state.PartialUpdate{}, state.ModeMerge, time.Now().UTC())
		if err := s.store.Persist(rec); err != nil {
			return state.ProjectRecord{}, err
		}
	} else {
		rec = *existing
	}

	if err := s.journal.Record(journal.Event{
		Project:   rec.Name,
		Operation: "checkpoint",
		MergeMode: string(state.ModeMerge),
		Trigger:   trigger,
		Note:      note,
	}); err != nil {
		s.obs.Log().Warn().Str("project", rec.Name).Err(err).Msg("journal write failed")
	}

	s.obs.Log().Info().Str("project", rec.Name).Str("trigger", trigger).Msg("checkpoint recorded")
	return rec, nil
}

// History returns the newest journal events for a project.
func (s *Service) History(ctx context.Context, name string, limit int) ([]journal.Event, error) {
	_, span := s.obs.StartSpan(ctx, "service.history")
	defer span.End()
	return s.journal.Recent(name, limit)
}
