// Package publish forwards normalized event batches to NATS so other
// consumers see the canonical stream without calling the bridge API.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ridgegate-systems/fwbridge/internal/models"
)

// SubjectEvents is the subject normalized batches are published on.
const SubjectEvents = "fwbridge.events.normalized"

// Publisher publishes normalized events to NATS. Publishing is
// best-effort: callers log failures and move on.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Config holds NATS publisher configuration.
type Config struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "fwbridge",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// New connects to NATS with the given configuration.
func New(cfg Config) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{conn: conn, subject: SubjectEvents}, nil
}

// PublishEvents publishes one batch as a single JSON message.
func (p *Publisher) PublishEvents(ctx context.Context, events []models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"published_at": time.Now().UTC(),
		"count":        len(events),
		"events":       events,
	})
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	return p.conn.Publish(p.subject, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
