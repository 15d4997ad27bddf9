// Package notify fans a promotion report out to its reporting sinks: the run
// summary, the PR comment, and the optional NATS and Pushgateway targets.
// Sinks are best-effort and isolated from each other; a sink failure is
// logged and counted but never changes the promotion outcome.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/promoter/internal/logfields"
	"git.home.luguber.info/inful/promoter/internal/metrics"
	"git.home.luguber.info/inful/promoter/internal/observability"
)

// Report is the sink-independent rendering input for one finished run,
// successful or not.
type Report struct {
	RunID       string
	Environment string
	Service     string
	Slug        string
	Ref         string
	Path        string
	Summary     string
	DiffText    string
	CommitSHA   string
	CommitURL   string
	RunURL      string
	Attempts    int
	Success     bool
	Message     string
	Timestamp   time.Time
}

// Sink publishes one rendering of the report.
type Sink interface {
	Name() string
	Publish(ctx context.Context, rep *Report) error
}

// Notifier fans out to its sinks in order.
type Notifier struct {
	sinks    []Sink
	recorder metrics.Recorder
}

// New creates a Notifier over the given sinks.
func New(sinks ...Sink) *Notifier {
	return &Notifier{sinks: sinks, recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder for sink failure counts.
func (n *Notifier) WithRecorder(recorder metrics.Recorder) *Notifier {
	if recorder != nil {
		n.recorder = recorder
	}
	return n
}

// Publish delivers the report to every sink. Failures are contained per
// sink: logged as warnings, counted, and never returned.
func (n *Notifier) Publish(ctx context.Context, rep *Report) {
	for _, sink := range n.sinks {
		if err := sink.Publish(ctx, rep); err != nil {
			n.recorder.IncNotifyFailure(sink.Name())
			observability.WarnContext(ctx, "notification sink failed",
				logfields.Sink(sink.Name()),
				logfields.Error(err))
		}
	}
}

// Marker returns the hidden comment marker for an environment/service pair.
// The upsert keys on it, so it must stay stable across runs.
func Marker(environment, service string) string {
	return fmt.Sprintf("<!-- promoter:%s:%s -->", environment, service)
}

// renderBody renders the shared markdown body: the summary plus diff on
// success, a failure notice otherwise.
func renderBody(rep *Report) string {
	var b strings.Builder

	if rep.Success {
		b.WriteString(rep.Summary)
		if rep.DiffText != "" {
			b.WriteString("\n```diff\n")
			b.WriteString(rep.DiffText)
			b.WriteString("```\n")
		}
		return b.String()
	}

	fmt.Fprintf(&b, "## Promotion failed: `%s`\n\n", rep.Path)
	b.WriteString(rep.Message)
	b.WriteString("\n")
	if rep.RunURL != "" {
		fmt.Fprintf(&b, "\n[Pipeline run](%s)\n", rep.RunURL)
	}
	return b.String()
}
