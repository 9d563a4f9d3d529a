// Package logging builds the process logger and carries request-scoped
// attributes through context.Context.
//
// A request scope is opened with WithAttrs. Any record logged through a
// handler wrapped in ContextHandler with that context (or a context derived
// from it) carries the scope's attributes, so handlers only need to pass ctx
// to the *Context logging methods. Scopes live in the context, so concurrent
// requests never observe each other's fields.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/yourkin666/server-go/internal/config"
)

// LevelTrace sits below debug for the "trace" configuration level.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a configured level name to a slog level. Unknown names map
// to info; Config.Validate rejects them before this is reached.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates the process logger. "json" writes one JSON object per record,
// "pretty" writes key=value text.
func New(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var base slog.Handler
	if strings.EqualFold(cfg.Format, "pretty") {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	return slog.New(NewContextHandler(base))
}

type attrsKey struct{}

// WithAttrs returns a context whose scope is the parent's scope plus attrs.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	parent := Attrs(ctx)
	scope := make([]slog.Attr, 0, len(parent)+len(attrs))
	scope = append(scope, parent...)
	scope = append(scope, attrs...)
	return context.WithValue(ctx, attrsKey{}, scope)
}

// Attrs returns the scope attached to ctx. The slice must not be modified.
func Attrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	return attrs
}

// ContextHandler decorates records with the context scope and, when a
// recording span is active, its trace and span ids.
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := Attrs(ctx); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

var _ slog.Handler = (*ContextHandler)(nil)
