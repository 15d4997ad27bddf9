package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithRunID(t *testing.T) {
	ctx := context.Background()
	ctx = WithRunID(ctx, "run-123")

	lc := GetContext(ctx)
	if lc.RunID != "run-123" {
		t.Errorf("expected run-123, got %s", lc.RunID)
	}
}

func TestWithEnvironment(t *testing.T) {
	ctx := context.Background()
	ctx = WithEnvironment(ctx, "preview")

	lc := GetContext(ctx)
	if lc.Environment != "preview" {
		t.Errorf("expected preview, got %s", lc.Environment)
	}
}

func TestWithStage(t *testing.T) {
	ctx := context.Background()
	ctx = WithStage(ctx, "merge")

	lc := GetContext(ctx)
	if lc.Stage != "merge" {
		t.Errorf("expected merge, got %s", lc.Stage)
	}
}

func TestContextChaining(t *testing.T) {
	ctx := context.Background()
	ctx = WithRunID(ctx, "run-1")
	ctx = WithEnvironment(ctx, "production")
	ctx = WithService(ctx, "shop-api")
	ctx = WithSlug(ctx, "feature-x")

	lc := GetContext(ctx)
	if lc.RunID != "run-1" {
		t.Error("RunID was lost in chaining")
	}
	if lc.Environment != "production" {
		t.Error("Environment was lost in chaining")
	}
	if lc.Service != "shop-api" {
		t.Error("Service was lost in chaining")
	}
	if lc.Slug != "feature-x" {
		t.Error("Slug was lost in chaining")
	}
}

func TestOverwriteContextValue(t *testing.T) {
	ctx := context.Background()
	ctx = WithStage(ctx, "fetch")
	ctx = WithStage(ctx, "commit")

	lc := GetContext(ctx)
	if lc.Stage != "commit" {
		t.Errorf("expected commit, got %s", lc.Stage)
	}
}

func TestEmptyContext(t *testing.T) {
	lc := GetContext(context.Background())

	if lc.RunID != "" || lc.Environment != "" || lc.Service != "" || lc.Slug != "" || lc.Stage != "" {
		t.Error("expected empty context")
	}
}

func TestInfoContext(t *testing.T) {
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := context.Background()
	ctx = WithRunID(ctx, "run-1")
	ctx = WithService(ctx, "shop-api")

	InfoContext(ctx, "document committed", slog.String("path", "production/shop-api.yaml"))

	output := buf.String()
	if !strings.Contains(output, "run-1") {
		t.Error("expected run-1 in log output")
	}
	if !strings.Contains(output, "shop-api") {
		t.Error("expected shop-api in log output")
	}
	if !strings.Contains(output, "document committed") {
		t.Error("expected message in log output")
	}
}

func TestWarnContext(t *testing.T) {
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithStage(context.Background(), "notify")

	WarnContext(ctx, "sink failed", slog.String("sink", "nats"))

	output := buf.String()
	if !strings.Contains(output, "notify") {
		t.Error("expected stage in log output")
	}
	if !strings.Contains(output, "sink failed") {
		t.Error("expected message in log output")
	}
}

func TestDebugContext(t *testing.T) {
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx := WithEnvironment(context.Background(), "preview")

	DebugContext(ctx, "retrying after conflict", slog.Int("attempt", 2))

	output := buf.String()
	if !strings.Contains(output, "preview") {
		t.Error("expected environment in log output")
	}
	if !strings.Contains(output, "attempt") {
		t.Error("expected attempt attr in log output")
	}
}
