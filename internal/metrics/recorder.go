package metrics

import "time"

// OutcomeLabel enumerates promotion outcome categories for counters.
type OutcomeLabel string

const (
	OutcomeSuccess           OutcomeLabel = "success"
	OutcomeFailure           OutcomeLabel = "failure"
	OutcomeConflictExhausted OutcomeLabel = "conflict_exhausted"
)

// Recorder defines observability hooks for promotion runs. Implementations
// may forward to Prometheus or anything else. The NoopRecorder is the default
// so callers never need nil checks.
type Recorder interface {
	ObservePromotionDuration(environment string, d time.Duration)
	ObserveStageDuration(stage string, d time.Duration)
	IncPromotionOutcome(environment string, outcome OutcomeLabel)
	IncConflictRetry(environment string)
	IncConflictRetryExhausted(environment string)
	IncNotifyFailure(sink string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePromotionDuration(string, time.Duration) {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration)     {}
func (NoopRecorder) IncPromotionOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) IncConflictRetry(string)                        {}
func (NoopRecorder) IncConflictRetryExhausted(string)               {}
func (NoopRecorder) IncNotifyFailure(string)                        {}
