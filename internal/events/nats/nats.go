package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vovakirdan/citychain-server/internal/events"
)

// DefaultSubject is the subject prefix records are published under.
const DefaultSubject = "citychain.events"

// Publisher implements events.Publisher on a core NATS connection.
// Records go to "<subject>.<kind>", e.g. citychain.events.round_lost.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// New connects to the NATS server at url.
func New(url, subject string) (*Publisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url,
		nats.Name("citychain-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish encodes the record as JSON. The client buffers outgoing data, so
// this does not wait for the server.
func (p *Publisher) Publish(_ context.Context, rec events.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := p.conn.Publish(p.subject+"."+string(rec.Kind), data); err != nil {
		return fmt.Errorf("publish %s: %w", rec.Kind, err)
	}
	return nil
}

// Close drains buffered records before closing the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
