package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

// Event is the promotion event published to NATS. Consumers (dashboards,
// chat bridges) key on environment and service.
type Event struct {
	RunID       string    `json:"run_id"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	Service     string    `json:"service"`
	Slug        string    `json:"slug,omitempty"`
	Ref         string    `json:"ref"`
	Path        string    `json:"path"`
	CommitSHA   string    `json:"commit_sha,omitempty"`
	CommitURL   string    `json:"commit_url,omitempty"`
	Attempts    int       `json:"attempts"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
}

// NATSSink publishes promotion events to a NATS subject.
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

// NewNATSSink connects to NATS. The connection is kept for the process
// lifetime; Close releases it.
func NewNATSSink(url, subject string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("promoter"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(1),
	)
	if err != nil {
		return nil, errors.NotifyError("failed to connect to NATS", err).
			WithContext("url", url)
	}
	return &NATSSink{conn: conn, subject: subject}, nil
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Publish(ctx context.Context, rep *Report) error {
	data, err := json.Marshal(eventFromReport(rep))
	if err != nil {
		return errors.NotifyError("failed to marshal promotion event", err)
	}

	if err := s.conn.Publish(s.subject, data); err != nil {
		return errors.NotifyError("failed to publish promotion event", err).
			WithContext("subject", s.subject)
	}

	deadline := 5 * time.Second
	if d, ok := ctx.Deadline(); ok {
		if remaining := time.Until(d); remaining < deadline {
			deadline = remaining
		}
	}
	if err := s.conn.FlushTimeout(deadline); err != nil {
		return errors.NotifyError("failed to flush promotion event", err).
			WithContext("subject", s.subject)
	}
	return nil
}

// Close drains the connection.
func (s *NATSSink) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

func eventFromReport(rep *Report) Event {
	return Event{
		RunID:       rep.RunID,
		Timestamp:   rep.Timestamp,
		Environment: rep.Environment,
		Service:     rep.Service,
		Slug:        rep.Slug,
		Ref:         rep.Ref,
		Path:        rep.Path,
		CommitSHA:   rep.CommitSHA,
		CommitURL:   rep.CommitURL,
		Attempts:    rep.Attempts,
		Success:     rep.Success,
		Message:     rep.Message,
	}
}
