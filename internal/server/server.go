// Package server wires the MCP surface: it registers every tool against a
// shared state service and exposes the stdio server. No business logic lives
// here, only composition.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/felixgeelhaar/continuity/internal/service"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all project-state tools registered.
func New(svc *service.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"continuity",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	saveTool := NewSaveTool(svc)
	s.AddTool(saveTool.Definition(), saveTool.Handle)

	loadTool := NewLoadTool(svc)
	s.AddTool(loadTool.Definition(), loadTool.Handle)

	listTool := NewListTool(svc)
	s.AddTool(listTool.Definition(), listTool.Handle)

	summaryTool := NewSummaryTool(svc)
	s.AddTool(summaryTool.Definition(), summaryTool.Handle)

	validateTool := NewValidateTool(svc)
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	checkpointTool := NewCheckpointTool(svc)
	s.AddTool(checkpointTool.Definition(), checkpointTool.Handle)

	return s
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = `Continuity persists project working state across conversations.

Save state with save_project_state whenever important context accumulates:
use merge_mode "merge" to update individual fields, "append_lists" to grow
decision and file logs, or the default "replace" to start over. Load state at
the beginning of a conversation with load_project_state, or fetch a condensed
view with get_project_summary. Before creating a new project, check the name
with validate_project_name to avoid accidental near-duplicates.`
