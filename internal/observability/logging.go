package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/promoter/internal/logfields"
)

// LogContext holds the identifying fields of one promotion run. Carried on
// the context so every log line inside a run reports the same identifiers
// without threading them through call signatures.
type LogContext struct {
	RunID       string
	Environment string
	Service     string
	Slug        string
	Stage       string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RunID = runID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithEnvironment adds the target environment (preview or production).
func WithEnvironment(ctx context.Context, environment string) context.Context {
	lc := extractLogContext(ctx)
	lc.Environment = environment
	return context.WithValue(ctx, logContextKey, lc)
}

// WithService adds the target service name to the context.
func WithService(ctx context.Context, service string) context.Context {
	lc := extractLogContext(ctx)
	lc.Service = service
	return context.WithValue(ctx, logContextKey, lc)
}

// WithSlug adds the normalized preview slug to the context.
func WithSlug(ctx context.Context, slug string) context.Context {
	lc := extractLogContext(ctx)
	lc.Slug = slug
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds the current pipeline stage (fetch, merge, commit, notify).
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.RunID != "" {
		attrs = append(attrs, slog.String(logfields.KeyRun, lc.RunID))
	}
	if lc.Environment != "" {
		attrs = append(attrs, slog.String(logfields.KeyEnvironment, lc.Environment))
	}
	if lc.Service != "" {
		attrs = append(attrs, slog.String(logfields.KeyService, lc.Service))
	}
	if lc.Slug != "" {
		attrs = append(attrs, slog.String(logfields.KeySlug, lc.Slug))
	}
	if lc.Stage != "" {
		attrs = append(attrs, slog.String("stage", lc.Stage))
	}

	return attrs
}

// InfoContext logs an info message with the run identifiers from ctx.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelInfo, msg, allAttrs...)
}

// WarnContext logs a warning message with the run identifiers from ctx.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelWarn, msg, allAttrs...)
}

// ErrorContext logs an error message with the run identifiers from ctx.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelError, msg, allAttrs...)
}

// DebugContext logs a debug message with the run identifiers from ctx.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelDebug, msg, allAttrs...)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}
