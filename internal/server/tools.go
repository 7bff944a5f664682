package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/felixgeelhaar/continuity/internal/service"
	"github.com/felixgeelhaar/continuity/internal/state"
	"github.com/felixgeelhaar/continuity/internal/store"
)

// jsonResult marshals v as an indented JSON tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// optString returns the string argument for key and whether the caller sent
// it at all. "Absent" and "empty" are different things for merge semantics.
func optString(req mcp.CallToolRequest, key string) (*string, bool) {
	args := req.GetArguments()
	if _, ok := args[key]; !ok {
		return nil, false
	}
	v := req.GetString(key, "")
	return &v, true
}

// optStringSlice returns the list argument for key, nil when absent.
func optStringSlice(req mcp.CallToolRequest, key string) []string {
	args := req.GetArguments()
	if _, ok := args[key]; !ok {
		return nil
	}
	out := req.GetStringSlice(key, []string{})
	if out == nil {
		out = []string{}
	}
	return out
}

// SaveTool persists a full or partial project state update.
type SaveTool struct {
	svc *service.Service
}

func NewSaveTool(svc *service.Service) *SaveTool { return &SaveTool{svc: svc} }

func (t *SaveTool) Definition() mcp.Tool {
	return mcp.NewTool("save_project_state",
		mcp.WithDescription("Save or update the working state of a project. Fields omitted from the call are handled per merge_mode: 'replace' resets them, 'merge' keeps existing values, 'append_lists' accumulates list entries without duplicates."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project. Existing names update in place; new names are validated against the catalog for near-duplicates.")),
		mcp.WithString("current_focus", mcp.Description("What is being worked on right now.")),
		mcp.WithArray("technical_decisions", mcp.Description("Decisions made, e.g. libraries chosen."), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("files_modified", mcp.Description("Files touched in this session."), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("next_actions", mcp.Description("The current plan. Replaced wholesale even under append_lists."), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("conversation_summary", mcp.Description("Free-form summary of the conversation so far.")),
		mcp.WithString("merge_mode", mcp.Description("One of replace, merge, append_lists. Defaults to replace.")),
		mcp.WithBoolean("force", mcp.DefaultBool(false), mcp.Description("Create the project even if its name resembles an existing one.")),
		mcp.WithNumber("similarity_threshold", mcp.DefaultNumber(0.70), mcp.Description("Similarity score above which a new name is considered a duplicate.")),
	)
}

func (t *SaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mode, err := state.ParseMergeMode(req.GetString("merge_mode", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	update := state.PartialUpdate{
		Decisions:    optStringSlice(req, "technical_decisions"),
		FilesTouched: optStringSlice(req, "files_modified"),
		NextActions:  optStringSlice(req, "next_actions"),
	}
	if v, ok := optString(req, "current_focus"); ok {
		update.Focus = v
	}
	if v, ok := optString(req, "conversation_summary"); ok {
		update.Summary = v
	}

	res, err := t.svc.Save(ctx, service.SaveParams{
		Name:      name,
		Update:    update,
		Mode:      mode,
		Force:     req.GetBool("force", false),
		Threshold: req.GetFloat("similarity_threshold", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(res.Blocked) > 0 {
		return jsonResult(map[string]any{
			"status":           "blocked",
			"similar_projects": res.Blocked,
			"guidance":         fmt.Sprintf("A similar project already exists. Save to %q instead, or pass force=true to create %q anyway.", res.Blocked[0].Name, name),
		})
	}

	status := "updated"
	if res.Created {
		status = "created"
	}
	return jsonResult(map[string]any{
		"status":  status,
		"project": res.Record,
	})
}

// LoadTool restores the full state of one project.
type LoadTool struct {
	svc *service.Service
}

func NewLoadTool(svc *service.Service) *LoadTool { return &LoadTool{svc: svc} }

func (t *LoadTool) Definition() mcp.Tool {
	return mcp.NewTool("load_project_state",
		mcp.WithDescription("Load the full saved state of a project. Falls back to the newest backup if the current state file is damaged."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project to load.")),
	)
}

func (t *LoadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, recovered, err := t.svc.LoadOrRecover(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return t.notFound(ctx, name)
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"status":                "ok",
		"recovered_from_backup": recovered,
		"project":               rec,
	})
}

func (t *LoadTool) notFound(ctx context.Context, name string) (*mcp.CallToolResult, error) {
	summaries, err := t.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		names = append(names, s.Name)
	}
	return jsonResult(map[string]any{
		"status":             "not_found",
		"message":            fmt.Sprintf("no saved state for project %q", name),
		"available_projects": names,
	})
}

// ListTool enumerates all stored projects.
type ListTool struct {
	svc *service.Service
}

func NewListTool(svc *service.Service) *ListTool { return &ListTool{svc: svc} }

func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("list_active_projects",
		mcp.WithDescription("List every project with saved state, most recently updated first, with its focus and the next couple of planned actions."),
	)
}

func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := t.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	return jsonResult(map[string]any{
		"count":    len(summaries),
		"projects": summaries,
	})
}

// SummaryTool produces the condensed context view of one project.
type SummaryTool struct {
	svc *service.Service
}

func NewSummaryTool(svc *service.Service) *SummaryTool { return &SummaryTool{svc: svc} }

func (t *SummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("get_project_summary",
		mcp.WithDescription("Get a condensed summary of a project: current focus, the last few decisions and the next actions, plus a one-line brief."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project to summarize.")),
	)
}

func (t *SummaryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sum, err := t.svc.Summarize(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return jsonResult(map[string]any{
				"status":  "not_found",
				"message": fmt.Sprintf("no saved state for project %q", name),
			})
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sum)
}

// ValidateTool checks a proposed project name without writing anything.
type ValidateTool struct {
	svc *service.Service
}

func NewValidateTool(svc *service.Service) *ValidateTool { return &ValidateTool{svc: svc} }

func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("validate_project_name",
		mcp.WithDescription("Check whether a proposed project name is too similar to an existing one before creating it."),
		mcp.WithString("proposed_name", mcp.Required(), mcp.Description("The project name to check.")),
		mcp.WithNumber("similarity_threshold", mcp.DefaultNumber(0.70), mcp.Description("Similarity score above which names are considered duplicates.")),
	)
}

func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("proposed_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches, err := t.svc.ValidateName(ctx, name, req.GetFloat("similarity_threshold", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(matches) == 0 {
		return jsonResult(map[string]any{
			"valid":    true,
			"guidance": fmt.Sprintf("%q does not collide with any existing project.", name),
		})
	}
	return jsonResult(map[string]any{
		"valid":            false,
		"similar_projects": matches,
		"guidance":         fmt.Sprintf("%q is close to existing project %q. Update that project instead, or pick a more distinct name.", name, matches[0].Name),
	})
}

// CheckpointTool records a known-good point for a project.
type CheckpointTool struct {
	svc *service.Service
}

func NewCheckpointTool(svc *service.Service) *CheckpointTool { return &CheckpointTool{svc: svc} }

func (t *CheckpointTool) Definition() mcp.Tool {
	return mcp.NewTool("auto_save_checkpoint",
		mcp.WithDescription("Record a checkpoint for a project, creating an empty state record if none exists. Use when context is about to be lost, e.g. before compaction."),
		mcp.WithString("project_name", mcp.Required(), mcp.Description("Name of the project to checkpoint.")),
		mcp.WithString("trigger", mcp.Description("What prompted the checkpoint, e.g. context_pressure or session_end.")),
		mcp.WithString("checkpoint_reason", mcp.Description("Free-form note stored with the checkpoint event.")),
	)
}

func (t *CheckpointTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := t.svc.Checkpoint(ctx, name,
		req.GetString("trigger", "manual"),
		req.GetString("checkpoint_reason", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"status":  "checkpointed",
		"project": rec,
	})
}
