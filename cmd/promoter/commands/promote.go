package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/promoter/internal/catalog"
	"git.home.luguber.info/inful/promoter/internal/config"
	"git.home.luguber.info/inful/promoter/internal/errors"
	"git.home.luguber.info/inful/promoter/internal/gha"
	"git.home.luguber.info/inful/promoter/internal/history"
	"git.home.luguber.info/inful/promoter/internal/logfields"
	"git.home.luguber.info/inful/promoter/internal/metrics"
	"git.home.luguber.info/inful/promoter/internal/notify"
	"git.home.luguber.info/inful/promoter/internal/observability"
	"git.home.luguber.info/inful/promoter/internal/promote"
	"git.home.luguber.info/inful/promoter/internal/report"
	"git.home.luguber.info/inful/promoter/internal/retry"
	"git.home.luguber.info/inful/promoter/internal/store"
)

// PromoteFlags are the inputs shared by the preview and production commands.
// Every flag falls back to the environment variable its CI workflow exports,
// so a workflow step usually passes no flags at all. Validation happens in
// code rather than through kong's required tag so missing inputs surface as
// classified errors with the exit code contract.
type PromoteFlags struct {
	Repo    string `help:"State repository as owner/name." env:"GITOPS_REPO" placeholder:"owner/name"`
	Token   string `help:"Write credential for the state repository." env:"GITOPS_TOKEN"`
	Service string `help:"Service to promote." env:"SERVICE_NAME"`
	SHA     string `help:"Commit SHA of the built artifact." env:"COMMIT_SHA"`
	Branch  string `help:"Source branch name." env:"HEAD_REF"`

	Author string `help:"Promotion author recorded in metadata." env:"GITHUB_ACTOR"`
	PRURL  string `name:"pr-url" help:"Source pull request URL." env:"PR_URL"`
	// PRNumber stays a string: workflows export PR_NUMBER as an empty
	// string on non-PR events, which must not be a parse error.
	PRNumber  string `name:"pr-number" help:"Source pull request number." env:"PR_NUMBER"`
	RunURL    string `name:"run-url" help:"Pipeline run URL." env:"WORKFLOW_RUN_URL"`
	Timestamp string `help:"Override the update timestamp (RFC 3339); defaults to now."`

	SourceRepo   string `name:"source-repo" help:"Source repository (owner/name) whose PR receives the comment." env:"SOURCE_REPO"`
	CommentToken string `name:"comment-token" help:"Credential for the PR comment, usually the workflow token." env:"GITHUB_TOKEN"`

	Timeout time.Duration `help:"Deadline for the whole promotion." default:"2m"`
}

func (f *PromoteFlags) validate(env promote.Environment) error {
	if f.Service == "" {
		return errors.ValidationError("service name is required (--service or SERVICE_NAME)", nil)
	}
	if f.SHA == "" {
		return errors.ValidationError("artifact commit SHA is required (--sha or COMMIT_SHA)", nil)
	}
	if env == promote.EnvPreview && f.Branch == "" {
		return errors.ValidationError("branch is required for preview promotions (--branch or HEAD_REF)", nil)
	}
	if f.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, f.Timestamp); err != nil {
			return errors.ValidationError(fmt.Sprintf("invalid --timestamp %q (want RFC 3339)", f.Timestamp), err)
		}
	}
	return nil
}

// metadata assembles the audit metadata for this update. created_at stays
// empty here: the merge engine stamps it at first pin and preserves it after.
func (f *PromoteFlags) metadata() catalog.Metadata {
	updatedAt := f.Timestamp
	if updatedAt == "" {
		updatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return catalog.Metadata{
		Author:    f.Author,
		PRURL:     f.PRURL,
		PRNumber:  strings.TrimSpace(f.PRNumber),
		Branch:    f.Branch,
		RunURL:    f.RunURL,
		UpdatedAt: updatedAt,
	}
}

// prNumber parses the PR number leniently; anything non-numeric means "no
// PR", which just skips the comment sink.
func (f *PromoteFlags) prNumber() int {
	n, err := strconv.Atoi(strings.TrimSpace(f.PRNumber))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// runPromotion is the shared body of the preview and production commands:
// resolve configuration, run the promotion, then report. Reporting and
// history are best effort and never change the returned error.
func runPromotion(root *CLI, env promote.Environment, flags *PromoteFlags) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if err := applyRepoFlags(cfg, flags.Repo, flags.Token); err != nil {
		return err
	}
	if err := flags.validate(env); err != nil {
		return err
	}

	st, err := store.NewStore(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if flags.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.Timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	observability.InfoContext(ctx, "starting promotion",
		logfields.Environment(string(env)),
		logfields.Service(flags.Service),
		logfields.ImageTag(flags.SHA),
		logfields.Repository(cfg.Repo.Owner+"/"+cfg.Repo.Name))

	// Prometheus is only worth the registry when a Pushgateway will
	// receive it; everything else runs on the no-op recorder.
	var (
		recorder     metrics.Recorder = metrics.NoopRecorder{}
		promRecorder *metrics.PrometheusRecorder
	)
	if cfg.Notifications.Pushgateway.URL != "" {
		promRecorder = metrics.NewPrometheusRecorder(nil)
		recorder = promRecorder
	}

	result, runErr := promote.NewPromoter(st, cfg.Paths).
		WithPolicy(retry.FromConfig(cfg)).
		WithRecorder(recorder).
		Run(ctx, promote.Request{
			Environment: env,
			Service:     flags.Service,
			Branch:      flags.Branch,
			Ref:         flags.SHA,
			Meta:        flags.metadata(),
		})

	rep := buildReport(runID, env, flags, result, runErr)
	emitWorkflowOutputs(ctx, result, rep, runErr)
	publishReport(ctx, cfg, flags, promRecorder, recorder, rep)
	recordHistory(ctx, cfg, rep, runErr)

	return runErr
}

// buildReport renders the sink-independent report for this run, successful
// or not.
func buildReport(runID string, env promote.Environment, flags *PromoteFlags, result *promote.Result, runErr error) *notify.Report {
	rep := &notify.Report{
		RunID:       runID,
		Environment: string(env),
		Service:     flags.Service,
		Ref:         flags.SHA,
		RunURL:      flags.RunURL,
		Success:     runErr == nil,
		Timestamp:   time.Now().UTC(),
	}
	if result != nil {
		rep.Slug = result.Slug
		rep.Path = result.Path
		rep.CommitSHA = result.CommitSHA
		rep.CommitURL = result.CommitURL
		rep.Attempts = result.Attempts
	}

	if runErr != nil {
		rep.Message = failureMessage(runErr)
		return rep
	}

	rep.Message = result.Message
	rep.Summary = report.BuildSummary(report.SummaryInput{
		Path:          result.Path,
		Document:      result.Document,
		CommitMessage: result.Message,
		CommitURL:     result.CommitURL,
		Attempts:      result.Attempts,
	})
	rep.DiffText = report.FormatDiff(report.Diff(result.OldText, result.NewText))
	return rep
}

func failureMessage(err error) string {
	if classified, ok := errors.AsClassified(err); ok {
		return classified.Message()
	}
	return err.Error()
}

// emitWorkflowOutputs exposes the named results to the calling workflow and
// prints the state diff for the job log.
func emitWorkflowOutputs(ctx context.Context, result *promote.Result, rep *notify.Report, runErr error) {
	cmds := gha.New()
	if runErr != nil {
		cmds.Error(rep.Message, map[string]string{"title": "Promotion failed"})
		return
	}

	outputs := []struct{ name, value string }{
		{"slug", result.Slug},
		{"commit-sha", result.CommitSHA},
		{"commit-url", result.CommitURL},
		{"summary", rep.Summary},
	}
	for _, out := range outputs {
		if err := cmds.SetOutput(out.name, out.value); err != nil {
			observability.WarnContext(ctx, "failed to set workflow output",
				logfields.Error(err))
		}
	}

	if rep.DiffText != "" {
		cmds.Group("State document diff")
		report.WriteColored(os.Stdout, report.Diff(result.OldText, result.NewText))
		cmds.EndGroup()
	}
}

// publishReport fans the report out to every configured sink. The fan-out
// isolates sink failures internally; a sink that cannot even be constructed
// is downgraded to a warning here.
func publishReport(ctx context.Context, cfg *config.Config, flags *PromoteFlags, promRecorder *metrics.PrometheusRecorder, recorder metrics.Recorder, rep *notify.Report) {
	sinks := []notify.Sink{notify.NewSummarySink(gha.New())}

	if client := commentClient(ctx, cfg, flags, recorder); client != nil {
		sinks = append(sinks, notify.NewCommentSink(client, flags.prNumber()))
	}

	if cfg.Notifications.NATS.URL != "" {
		natsSink, err := notify.NewNATSSink(cfg.Notifications.NATS.URL, cfg.Notifications.NATS.Subject)
		if err != nil {
			recorder.IncNotifyFailure("nats")
			observability.WarnContext(ctx, "notification sink failed",
				logfields.Sink("nats"), logfields.Error(err))
		} else {
			defer natsSink.Close()
			sinks = append(sinks, natsSink)
		}
	}

	if promRecorder != nil {
		pusher := metrics.NewPusher(cfg.Notifications.Pushgateway.URL, cfg.Notifications.Pushgateway.Job,
			promRecorder.Registry(), map[string]string{"environment": rep.Environment})
		sinks = append(sinks, notify.NewPushgatewaySink(pusher))
	}

	notify.New(sinks...).WithRecorder(recorder).Publish(ctx, rep)
}

// commentClient returns nil when the PR comment fan-out lacks configuration:
// comments are optional and their absence is not an error.
func commentClient(ctx context.Context, cfg *config.Config, flags *PromoteFlags, recorder metrics.Recorder) store.CommentClient {
	if !cfg.CommentsEnabled() || flags.SourceRepo == "" || flags.prNumber() <= 0 || flags.CommentToken == "" {
		return nil
	}
	client, err := store.NewCommentClient(cfg, flags.SourceRepo, flags.CommentToken)
	if err != nil {
		recorder.IncNotifyFailure("comment")
		observability.WarnContext(ctx, "notification sink failed",
			logfields.Sink("comment"), logfields.Error(err))
		return nil
	}
	return client
}

// recordHistory appends the run to the local ledger when one is configured.
// Best effort: ledger trouble is logged and never masks the promotion outcome.
func recordHistory(ctx context.Context, cfg *config.Config, rep *notify.Report, runErr error) {
	if cfg.History.Path == "" {
		return
	}

	ledger, err := history.Open(cfg.History.Path)
	if err != nil {
		observability.WarnContext(ctx, "history ledger unavailable", logfields.Error(err))
		return
	}
	defer func() {
		_ = ledger.Close()
	}()

	rec := history.Record{
		RunID:       rep.RunID,
		Timestamp:   rep.Timestamp,
		Environment: rep.Environment,
		Service:     rep.Service,
		Slug:        rep.Slug,
		Ref:         rep.Ref,
		CommitSHA:   rep.CommitSHA,
		Outcome:     outcomeLabel(runErr),
		Attempts:    rep.Attempts,
		Message:     rep.Message,
	}
	if err := ledger.Append(ctx, rec); err != nil {
		observability.WarnContext(ctx, "failed to record promotion history", logfields.Error(err))
	}
}

// outcomeLabel reuses the metric outcome vocabulary for ledger rows.
func outcomeLabel(runErr error) string {
	switch {
	case runErr == nil:
		return string(metrics.OutcomeSuccess)
	case errors.HasCategory(runErr, errors.CategoryConflict):
		return string(metrics.OutcomeConflictExhausted)
	default:
		return string(metrics.OutcomeFailure)
	}
}
