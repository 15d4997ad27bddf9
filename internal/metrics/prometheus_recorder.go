package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	registry          *prom.Registry
	promotionDuration *prom.HistogramVec
	stageDuration     *prom.HistogramVec
	outcomes          *prom.CounterVec
	retries           *prom.CounterVec
	retriesExhausted  *prom.CounterVec
	notifyFailures    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.promotionDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "promoter",
			Name:      "promotion_duration_seconds",
			Help:      "Total duration of promotion runs",
			Buckets:   prom.DefBuckets,
		}, []string{"environment"})
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "promoter",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual promotion stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.outcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "promoter",
			Name:      "promotion_outcomes_total",
			Help:      "Promotion outcomes by final status",
		}, []string{"environment", "outcome"})
		pr.retries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "promoter",
			Name:      "conflict_retries_total",
			Help:      "Commit retries after version conflicts",
		}, []string{"environment"})
		pr.retriesExhausted = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "promoter",
			Name:      "conflict_retry_exhausted_total",
			Help:      "Promotions that gave up after exhausting conflict retries",
		}, []string{"environment"})
		pr.notifyFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "promoter",
			Name:      "notify_failures_total",
			Help:      "Notification sink failures (best effort, never fatal)",
		}, []string{"sink"})
		reg.MustRegister(pr.promotionDuration, pr.stageDuration, pr.outcomes, pr.retries, pr.retriesExhausted, pr.notifyFailures)
	})
	return pr
}

// Registry exposes the backing registry so a pusher can gather from it.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	if p == nil {
		return nil
	}
	return p.registry
}

func (p *PrometheusRecorder) ObservePromotionDuration(environment string, d time.Duration) {
	if p == nil || p.promotionDuration == nil {
		return
	}
	p.promotionDuration.WithLabelValues(environment).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPromotionOutcome(environment string, outcome OutcomeLabel) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(environment, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncConflictRetry(environment string) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(environment).Inc()
}

func (p *PrometheusRecorder) IncConflictRetryExhausted(environment string) {
	if p == nil || p.retriesExhausted == nil {
		return
	}
	p.retriesExhausted.WithLabelValues(environment).Inc()
}

func (p *PrometheusRecorder) IncNotifyFailure(sink string) {
	if p == nil || p.notifyFailures == nil {
		return
	}
	p.notifyFailures.WithLabelValues(sink).Inc()
}
