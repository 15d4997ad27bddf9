package errors

import (
	"errors"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig).
			WithMessage("invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "promoter.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "promoter.yaml" {
			t.Errorf("expected context file=promoter.yaml, got %v", file)
		}
	})

	t.Run("Cause wrapping", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NetworkError("fetch failed", cause)

		if !errors.Is(err, cause) {
			t.Error("expected error to wrap cause")
		}
		if err.Unwrap() != cause {
			t.Error("expected Unwrap to return cause")
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := AuthError("token rejected", nil)

		if _, ok := AsClassified(err); !ok {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryAuth) {
			t.Error("expected error to have auth category")
		}
		if err.CanRetry() {
			t.Error("expected auth error to not be retryable")
		}
		if !err.IsFatal() {
			t.Error("expected auth error to be fatal")
		}
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		base := ConflictError("write rejected", nil)
		derived := base.WithContext("attempt", 2)

		if _, exists := base.Context().Get("attempt"); exists {
			t.Error("expected base error context to be unchanged")
		}
		attempt, _ := derived.Context().GetInt("attempt")
		if attempt != 2 {
			t.Errorf("expected derived context attempt=2, got %d", attempt)
		}
	})

	t.Run("Sentinel matching via errors.Is", func(t *testing.T) {
		sentinel := NotFoundError("document missing", nil)
		err := NotFoundError("document missing", nil).WithContext("path", "previews/x/values.yaml")

		if !errors.Is(err, sentinel) {
			t.Error("expected classified errors with same category and message to match")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		cause := errors.New("dial tcp: timeout")
		err := NewError(CategoryNetwork).
			WithMessage("network failure").
			WithCause(cause).
			Warning().
			Retryable().
			WithContext("host", "git.example.com").
			WithContext("port", 443).
			Build()

		if err.Category() != CategoryNetwork {
			t.Errorf("expected category %s, got %s", CategoryNetwork, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !errors.Is(err, cause) {
			t.Error("expected error to wrap original error")
		}

		host, _ := err.Context().GetString("host")
		if host != "git.example.com" {
			t.Errorf("expected host context 'git.example.com', got %s", host)
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			err      *ClassifiedError
			category Category
			severity Severity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("test", nil), CategoryConfig, SeverityError, RetryUserAction},
			{"ValidationError", ValidationError("test", nil), CategoryValidation, SeverityError, RetryUserAction},
			{"AuthError", AuthError("test", nil), CategoryAuth, SeverityFatal, RetryNever},
			{"NotFoundError", NotFoundError("test", nil), CategoryNotFound, SeverityError, RetryNever},
			{"ConflictError", ConflictError("test", nil), CategoryConflict, SeverityError, RetryImmediate},
			{"DecodeError", DecodeError("test", nil), CategoryDecode, SeverityError, RetryNever},
			{"NetworkError", NetworkError("test", nil), CategoryNetwork, SeverityError, RetryBackoff},
			{"ForgeError", ForgeError("test", nil), CategoryForge, SeverityError, RetryNever},
			{"NotifyError", NotifyError("test", nil), CategoryNotify, SeverityWarning, RetryNever},
			{"HistoryError", HistoryError("test", nil), CategoryHistory, SeverityError, RetryNever},
			{"InternalError", InternalError("test", nil), CategoryInternal, SeverityError, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if tt.err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, tt.err.Category())
				}
				if tt.err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, tt.err.Severity())
				}
				if tt.err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, tt.err.RetryStrategy())
				}
			})
		}
	})
}

func TestErrorContext(t *testing.T) {
	t.Run("Context operations", func(t *testing.T) {
		ctx := make(Context)
		ctx = ctx.Set("key1", "value1")
		ctx = ctx.Set("key2", 42)

		value1, exists1 := ctx.GetString("key1")
		if !exists1 || value1 != "value1" {
			t.Errorf("expected key1=value1, got %v", value1)
		}

		value2, exists2 := ctx.Get("key2")
		if !exists2 || value2 != 42 {
			t.Errorf("expected key2=42, got %v", value2)
		}

		_, exists3 := ctx.Get("nonexistent")
		if exists3 {
			t.Error("expected nonexistent key to not exist")
		}
	})

	t.Run("Context merge", func(t *testing.T) {
		ctx1 := make(Context)
		ctx1 = ctx1.Set("key1", "value1")
		ctx1 = ctx1.Set("shared", "original")

		ctx2 := make(Context)
		ctx2 = ctx2.Set("key2", "value2")
		ctx2 = ctx2.Set("shared", "overridden")

		merged := ctx1.Merge(ctx2)

		value1, _ := merged.GetString("key1")
		value2, _ := merged.GetString("key2")
		shared, _ := merged.GetString("shared")

		if value1 != "value1" {
			t.Errorf("expected key1=value1, got %s", value1)
		}
		if value2 != "value2" {
			t.Errorf("expected key2=value2, got %s", value2)
		}
		if shared != "overridden" {
			t.Errorf("expected shared=overridden, got %s", shared)
		}
	})
}

func TestCLIErrorAdapter(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	t.Run("Exit codes per category", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			code int
		}{
			{"nil", nil, 0},
			{"unclassified", errors.New("boom"), 1},
			{"validation", ValidationError("bad input", nil), 2},
			{"auth", AuthError("denied", nil), 5},
			{"conflict", ConflictError("retries exhausted", nil), 6},
			{"config", ConfigError("bad config", nil), 7},
			{"network", NetworkError("timeout", nil), 8},
			{"forge", ForgeError("server error", nil), 8},
			{"not_found", NotFoundError("missing", nil), 8},
			{"decode", DecodeError("bad yaml", nil), 9},
			{"internal", InternalError("bug", nil), 10},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := adapter.ExitCodeFor(tt.err); got != tt.code {
					t.Errorf("expected exit code %d, got %d", tt.code, got)
				}
			})
		}
	})

	t.Run("Format includes context sorted by key", func(t *testing.T) {
		err := ValidationError("unknown service", nil).
			WithContext("service", "shop-api").
			WithContext("available", "billing, shop")

		got := adapter.FormatError(err)
		want := "Error: unknown service\n  available: billing, shop\n  service: shop-api"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("Format unclassified", func(t *testing.T) {
		got := adapter.FormatError(errors.New("boom"))
		if got != "Error: boom" {
			t.Errorf("unexpected format: %q", got)
		}
	})
}
