package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
)

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON payloads on core NATS subjects.
type NATSPublisher struct {
	conn   conn
	prefix string
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to url. Events go to "<prefix>.<event>".
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("farmworlds"))
	if err != nil {
		return nil, ferrors.IOError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS event publisher connected", "url", url, "prefix", prefix)
	return newNATSPublisher(nc, prefix), nil
}

func newNATSPublisher(c conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: c, prefix: prefix}
}

// Subject is where event is published.
func (p *NATSPublisher) Subject(event string) string {
	if p.prefix == "" {
		return event
	}
	return p.prefix + "." + event
}

func (p *NATSPublisher) Publish(ctx context.Context, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ferrors.InternalError("failed to marshal event").
			WithCause(err).
			WithContext("event", event).
			Build()
	}
	subject := p.Subject(event)
	if err := p.conn.Publish(subject, data); err != nil {
		return ferrors.IOError("failed to publish event").
			WithCause(err).
			WithContext("subject", subject).
			Build()
	}
	slog.Debug("Published event", "subject", subject, "bytes", len(data))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
