package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promoter/internal/catalog"
	"git.home.luguber.info/inful/promoter/internal/config"
	"git.home.luguber.info/inful/promoter/internal/errors"
	"git.home.luguber.info/inful/promoter/internal/history"
	"git.home.luguber.info/inful/promoter/internal/metrics"
	"git.home.luguber.info/inful/promoter/internal/promote"
)

func validFlags() *PromoteFlags {
	return &PromoteFlags{
		Repo:    "inful/gitops-state",
		Token:   "s3cret",
		Service: "backend-1",
		SHA:     "abc123def456",
		Branch:  "feature/my-branch",
	}
}

func TestPromoteFlags_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(f *PromoteFlags)
		env     promote.Environment
		wantErr string
	}{
		{
			name:    "missing service",
			mutate:  func(f *PromoteFlags) { f.Service = "" },
			env:     promote.EnvPreview,
			wantErr: "service name is required",
		},
		{
			name:    "missing sha",
			mutate:  func(f *PromoteFlags) { f.SHA = "" },
			env:     promote.EnvPreview,
			wantErr: "commit SHA is required",
		},
		{
			name:    "preview without branch",
			mutate:  func(f *PromoteFlags) { f.Branch = "" },
			env:     promote.EnvPreview,
			wantErr: "branch is required",
		},
		{
			name:    "bad timestamp",
			mutate:  func(f *PromoteFlags) { f.Timestamp = "yesterday" },
			env:     promote.EnvPreview,
			wantErr: "invalid --timestamp",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flags := validFlags()
			tc.mutate(flags)

			err := flags.validate(tc.env)
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryValidation))
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("production without branch is fine", func(t *testing.T) {
		flags := validFlags()
		flags.Branch = ""
		require.NoError(t, flags.validate(promote.EnvProduction))
	})
}

func TestPromoteFlags_Metadata(t *testing.T) {
	flags := validFlags()
	flags.Author = "octocat"
	flags.PRURL = "https://git.example.com/acme/shop/pulls/42"
	flags.PRNumber = "42"
	flags.RunURL = "https://git.example.com/acme/shop/actions/runs/7"
	flags.Timestamp = "2026-08-24T10:00:00Z"

	meta := flags.metadata()
	require.Equal(t, catalog.Metadata{
		Author:    "octocat",
		PRURL:     "https://git.example.com/acme/shop/pulls/42",
		PRNumber:  "42",
		Branch:    "feature/my-branch",
		RunURL:    "https://git.example.com/acme/shop/actions/runs/7",
		UpdatedAt: "2026-08-24T10:00:00Z",
	}, meta)
	require.Empty(t, meta.CreatedAt, "created_at is the merge engine's job")
}

func TestPromoteFlags_MetadataDefaultsTimestampToNow(t *testing.T) {
	meta := validFlags().metadata()
	parsed, err := time.Parse(time.RFC3339, meta.UpdatedAt)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
	require.Empty(t, meta.PRNumber, "unset PR number stays unset")
}

func TestPromoteFlags_PRNumberIsLenient(t *testing.T) {
	cases := map[string]int{
		"42":    42,
		" 42 ":  42,
		"":      0,
		"  ":    0,
		"oops":  0,
		"-3":    0,
		"0":     0,
		"4711 ": 4711,
	}
	for raw, want := range cases {
		flags := validFlags()
		flags.PRNumber = raw
		require.Equal(t, want, flags.prNumber(), "PR_NUMBER=%q", raw)
	}
}

func TestApplyRepoFlags(t *testing.T) {
	t.Run("flags win over config", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Repo.Owner = "stale"
		cfg.Repo.Name = "old-state"
		cfg.Repo.Token = "old"

		require.NoError(t, applyRepoFlags(cfg, "inful/gitops-state", "fresh"))
		require.Equal(t, "inful", cfg.Repo.Owner)
		require.Equal(t, "gitops-state", cfg.Repo.Name)
		require.Equal(t, "fresh", cfg.Repo.Token)
	})

	t.Run("config covers unset flags", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Repo.Owner = "inful"
		cfg.Repo.Name = "gitops-state"
		cfg.Repo.Token = "from-file"

		require.NoError(t, applyRepoFlags(cfg, "", ""))
		require.Equal(t, "from-file", cfg.Repo.Token)
	})

	t.Run("malformed repo", func(t *testing.T) {
		err := applyRepoFlags(config.Defaults(), "just-a-name", "tok")
		require.Error(t, err)
		require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	})

	t.Run("missing repo", func(t *testing.T) {
		err := applyRepoFlags(config.Defaults(), "", "tok")
		require.Error(t, err)
		require.Contains(t, err.Error(), "state repository is required")
	})

	t.Run("missing token", func(t *testing.T) {
		err := applyRepoFlags(config.Defaults(), "inful/gitops-state", "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "token is required")
	})

	t.Run("local store needs neither", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Repo.Store = config.StoreLocal
		cfg.Repo.Path = t.TempDir()
		require.NoError(t, applyRepoFlags(cfg, "", ""))
	})
}

func TestBuildReport_Success(t *testing.T) {
	flags := validFlags()
	flags.RunURL = "https://git.example.com/runs/7"

	doc := catalog.BuildFresh([]string{"backend-1", "backend-2"}, "backend-1", "abc123def456",
		catalog.Metadata{UpdatedAt: "2026-08-24T10:00:00Z"})
	encoded, err := catalog.Encode(doc)
	require.NoError(t, err)

	result := &promote.Result{
		Environment: promote.EnvPreview,
		Service:     "backend-1",
		Slug:        "feature-my-branch",
		Path:        "previews/feature-my-branch/values.yaml",
		Document:    doc,
		OldText:     "",
		NewText:     string(encoded),
		Message:     "chore(preview): create feature-my-branch preview",
		CommitSHA:   "deadbeef",
		CommitURL:   "https://git.example.com/commit/deadbeef",
		Created:     true,
		Attempts:    1,
	}

	rep := buildReport("run-1", promote.EnvPreview, flags, result, nil)
	require.True(t, rep.Success)
	require.Equal(t, "run-1", rep.RunID)
	require.Equal(t, "feature-my-branch", rep.Slug)
	require.Equal(t, result.Message, rep.Message)
	require.Contains(t, rep.Summary, "previews/feature-my-branch/values.yaml")
	require.Contains(t, rep.Summary, "backend-1")
	require.NotEmpty(t, rep.DiffText)
	require.Contains(t, rep.DiffText, "+services:")
}

func TestBuildReport_Failure(t *testing.T) {
	flags := validFlags()
	result := &promote.Result{
		Environment: promote.EnvPreview,
		Service:     "backend-1",
		Slug:        "feature-my-branch",
		Path:        "previews/feature-my-branch/values.yaml",
		Attempts:    3,
	}
	runErr := errors.ConflictError("version conflict on previews/feature-my-branch/values.yaml persisted after 3 attempts", nil)

	rep := buildReport("run-2", promote.EnvPreview, flags, result, runErr)
	require.False(t, rep.Success)
	require.Equal(t, 3, rep.Attempts)
	require.Empty(t, rep.Summary)
	require.Contains(t, rep.Message, "persisted after 3 attempts")
	require.NotContains(t, rep.Message, "[conflict", "comment bodies carry the plain message, not the decorated form")
}

func TestOutcomeLabel(t *testing.T) {
	require.Equal(t, string(metrics.OutcomeSuccess), outcomeLabel(nil))
	require.Equal(t, string(metrics.OutcomeConflictExhausted),
		outcomeLabel(errors.ConflictError("gave up", nil)))
	require.Equal(t, string(metrics.OutcomeFailure),
		outcomeLabel(errors.AuthError("rejected", nil)))
}

func TestLoadConfig_EmptyPathRunsOnDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, config.DefaultRegistryPath, cfg.Paths.Registry)
	require.Equal(t, config.DefaultMaxAttempts, cfg.Retry.MaxAttempts)
}

func TestCommentClientGating(t *testing.T) {
	ctx := context.Background()
	recorder := metrics.NoopRecorder{}

	base := func() *config.Config {
		cfg := config.Defaults()
		cfg.Repo.BaseURL = "https://git.example.com"
		return cfg
	}
	ready := func() *PromoteFlags {
		flags := validFlags()
		flags.SourceRepo = "acme/shop"
		flags.PRNumber = "42"
		flags.CommentToken = "workflow-token"
		return flags
	}

	require.NotNil(t, commentClient(ctx, base(), ready(), recorder))

	t.Run("disabled by config", func(t *testing.T) {
		cfg := base()
		off := false
		cfg.Notifications.Comment.Enabled = &off
		require.Nil(t, commentClient(ctx, cfg, ready(), recorder))
	})

	t.Run("missing source repo", func(t *testing.T) {
		flags := ready()
		flags.SourceRepo = ""
		require.Nil(t, commentClient(ctx, base(), flags, recorder))
	})

	t.Run("missing pr number", func(t *testing.T) {
		flags := ready()
		flags.PRNumber = ""
		require.Nil(t, commentClient(ctx, base(), flags, recorder))
	})

	t.Run("non-numeric pr number", func(t *testing.T) {
		flags := ready()
		flags.PRNumber = "null"
		require.Nil(t, commentClient(ctx, base(), flags, recorder))
	})

	t.Run("missing comment token", func(t *testing.T) {
		flags := ready()
		flags.CommentToken = ""
		require.Nil(t, commentClient(ctx, base(), flags, recorder))
	})

	t.Run("malformed source repo downgrades to nil", func(t *testing.T) {
		flags := ready()
		flags.SourceRepo = "not-a-repo"
		require.Nil(t, commentClient(ctx, base(), flags, recorder))
	})
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, nil)
	require.Contains(t, buf.String(), "No promotions recorded yet.")

	buf.Reset()
	renderHistory(&buf, []history.Record{
		{
			Timestamp:   time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
			Environment: "preview",
			Service:     "backend-1",
			Ref:         "abc123def456",
			CommitSHA:   "deadbeefcafe",
			Outcome:     "success",
			Attempts:    2,
		},
	})

	out := buf.String()
	require.Contains(t, out, "WHEN")
	require.Contains(t, out, "backend-1")
	require.Contains(t, out, "abc123de", "refs are shortened")
	require.Contains(t, out, "success")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2, "header plus one row")
}

func TestFailureMessage(t *testing.T) {
	classified := errors.ValidationError("service name is required", nil)
	require.Equal(t, "service name is required", failureMessage(classified))
	require.Equal(t, "dial tcp: connection refused", failureMessage(plainError("dial tcp: connection refused")))
}

type plainError string

func (e plainError) Error() string { return string(e) }
