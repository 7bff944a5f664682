package observe

import (
	"context"
	"io"
	"strings"

	"github.com/felixgeelhaar/bolt/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("continuity")

// Observer handles logging and tracing. The MCP wire owns stdout, so
// observers are normally pointed at stderr.
type Observer struct {
	log *bolt.Logger
}

// New creates a new Observer with console output at the given level.
func New(out io.Writer, level string) *Observer {
	l := bolt.New(bolt.NewConsoleHandler(out))
	l.SetLevel(parseLevel(level))
	return &Observer{log: l}
}

// NewJSON creates a new Observer with JSON output at the given level.
func NewJSON(out io.Writer, level string) *Observer {
	l := bolt.New(bolt.NewJSONHandler(out))
	l.SetLevel(parseLevel(level))
	return &Observer{log: l}
}

func parseLevel(level string) bolt.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return bolt.DEBUG
	case "warn", "warning":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// Log returns the underlying logger
func (o *Observer) Log() *bolt.Logger {
	return o.log
}

// StartSpan starts a new OTel span
func (o *Observer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// Close ensures any buffered logs or traces are flushed (placeholder)
func (o *Observer) Close() error {
	return nil
}
