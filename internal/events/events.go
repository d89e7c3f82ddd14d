// Package events announces new leads to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"thirdcoast.systems/leadwatch/internal/leads"
)

// LeadCreated is the JSON body published for every new lead.
type LeadCreated struct {
	Lead      leads.Lead `json:"lead"`
	SourceURL string     `json:"source_url"`
	EventAt   time.Time  `json:"event_at"`
}

// Publisher is called after a lead is recorded. Publish failures never undo
// a lead, so callers only log them.
type Publisher interface {
	LeadCreated(ctx context.Context, ev LeadCreated) error
	Close()
}

type Nop struct{}

func (Nop) LeadCreated(context.Context, LeadCreated) error { return nil }
func (Nop) Close()                                        {}

type natsConn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

type NatsPublisher struct {
	nc      natsConn
	subject string
}

// ConnectNats dials url and publishes on subject.
func ConnectNats(url, subject string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("leadwatch"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	slog.Info("Connected to NATS", "url", nc.ConnectedUrl(), "subject", subject)
	return newNatsPublisher(nc, subject), nil
}

func newNatsPublisher(nc natsConn, subject string) *NatsPublisher {
	return &NatsPublisher{nc: nc, subject: subject}
}

func (p *NatsPublisher) LeadCreated(ctx context.Context, ev LeadCreated) error {
	if ev.EventAt.IsZero() {
		ev.EventAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal lead event: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return p.nc.FlushWithContext(ctx)
}

func (p *NatsPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		slog.Warn("nats drain failed", "error", err)
	}
}

var (
	_ Publisher = Nop{}
	_ Publisher = (*NatsPublisher)(nil)
	_ natsConn  = (*nats.Conn)(nil)
)
