// Package notify announces finished sites to other systems.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "sitegen.site.built"

// Event describes one processed site.
type Event struct {
	RunID       string    `json:"run_id"`
	Domain      string    `json:"domain"`
	Status      string    `json:"status"`
	Destination string    `json:"destination"`
	Title       string    `json:"title,omitempty"`
	HeroWord    string    `json:"hero_word,omitempty"`
	Port        int       `json:"port,omitempty"`
	PID         int       `json:"pid,omitempty"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher sends site events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops events; used when notifications are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	now     func() time.Time
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	nc, err := nats.Connect(url, nats.Name("sitegen"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return newPublisher(nc, subject), nil
}

func newPublisher(c conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: c, subject: subject, now: time.Now}
}

// Publish stamps and sends e, waiting for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = p.now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}

	slog.Debug("Published site event", logfields.Domain(e.Domain), logfields.Status(e.Status))
	return nil
}

// Close drops the connection.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
