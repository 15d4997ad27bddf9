package metrics

import (
	"context"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

// Pusher ships gathered metrics to a Prometheus Pushgateway. A CLI run is
// over before any scraper would come around, so metrics leave by push.
type Pusher struct {
	pusher *push.Pusher
	url    string
}

// NewPusher builds a Pushgateway pusher for the recorder's registry.
// Groupings become Pushgateway grouping labels (e.g. environment).
func NewPusher(url, job string, reg *prom.Registry, groupings map[string]string) *Pusher {
	p := push.New(url, job).Gatherer(reg)
	for k, v := range groupings {
		p = p.Grouping(k, v)
	}
	return &Pusher{pusher: p, url: url}
}

// Push replaces the metrics for this job/grouping on the gateway. Failures
// are classified as notify warnings: losing a sample must never fail a
// promotion that already committed.
func (p *Pusher) Push(ctx context.Context) error {
	if p == nil || p.pusher == nil {
		return nil
	}
	if err := p.pusher.PushContext(ctx); err != nil {
		return errors.NotifyError("failed to push metrics", err).
			WithContext("pushgateway", p.url)
	}
	return nil
}
