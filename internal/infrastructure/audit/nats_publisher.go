package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/crosspay/ledger/internal/domain"
)

// NATSPublisher delivers audit events over NATS. Subjects follow
// {base}.{event_type}, e.g. ledger.audit.transfer.posted.
type NATSPublisher struct {
	conn        *nats.Conn
	subjectBase string
}

// NewNATSPublisher connects to the given NATS URL.
func NewNATSPublisher(url, subjectBase string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("ledger-audit"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSPublisher{conn: conn, subjectBase: subjectBase}, nil
}

// Publish sends the event. Callers treat failures as non-fatal; the
// outbox row stays unpublished and is retried on the next poll.
func (p *NATSPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	return p.conn.Publish(subjectFor(p.subjectBase, event), data)
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

func subjectFor(base string, event *domain.OutboxEvent) string {
	return base + "." + event.EventType
}
