package notify

import (
	"context"

	"git.home.luguber.info/inful/promoter/internal/metrics"
)

// PushgatewaySink ships the run's gathered metrics on publish.
type PushgatewaySink struct {
	pusher *metrics.Pusher
}

// NewPushgatewaySink wraps a metrics pusher as a sink.
func NewPushgatewaySink(pusher *metrics.Pusher) *PushgatewaySink {
	return &PushgatewaySink{pusher: pusher}
}

func (s *PushgatewaySink) Name() string { return "pushgateway" }

func (s *PushgatewaySink) Publish(ctx context.Context, _ *Report) error {
	return s.pusher.Push(ctx)
}
