package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Publisher sends schedule lifecycle events to NATS subjects of the form
// <prefix>.<event>, e.g. azwabot.status.sent.
type Publisher struct {
	nc     *nats.Conn
	prefix string
}

// Connect dials the NATS server and keeps reconnecting in the background.
func Connect(url, prefix string) (*Publisher, error) {
	logrus.Infof("[NATS] Connecting to %s", url)

	nc, err := nats.Connect(url,
		nats.Name("az-wabot"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logrus.WithError(err).Warn("[NATS] Disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logrus.Infof("[NATS] Reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to NATS: %w", err)
	}

	return &Publisher{nc: nc, prefix: prefix}, nil
}

// Subject returns the subject used for an event.
func Subject(prefix string, event domain.HistoryEvent) string {
	if prefix == "" {
		return string(event)
	}
	return prefix + "." + string(event)
}

func (p *Publisher) Publish(ctx context.Context, entry domain.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return p.nc.Publish(Subject(p.prefix, entry.Event), data)
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

// NoopPublisher is used when no NATS server is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.HistoryEntry) error { return nil }

func (NoopPublisher) Close() {}
