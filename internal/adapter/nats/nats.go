// Package nats publishes tour change events to a NATS JetStream stream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/TourAgency/internal/port/messagequeue"
)

const (
	streamName   = "TOURS"
	streamMaxAge = 7 * 24 * time.Hour
)

// Queue implements messagequeue.Publisher on a JetStream stream covering tours.>.
type Queue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect dials url, keeps reconnecting in the background after a drop, and
// creates or updates the TOURS stream.
func Connect(ctx context.Context, url string) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.Name("touragency"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrlRedacted())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        streamName,
		Description: "Tour catalogue change events",
		Subjects:    []string{"tours.>"},
		Storage:     jetstream.FileStorage,
		MaxAge:      streamMaxAge,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream %s: %w", streamName, err)
	}

	slog.Info("nats connected", "url", nc.ConnectedUrlRedacted(), "stream", stream.CachedInfo().Config.Name)
	return &Queue{nc: nc, js: js}, nil
}

// Publish checks data against the tour event schema of subject and waits for
// the stream acknowledgement.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := messagequeue.Validate(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	ack, err := q.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	slog.Debug("tour event published", "subject", subject, "seq", ack.Sequence)
	return nil
}

// Connected reports whether the underlying connection is currently up.
func (q *Queue) Connected() bool {
	return q.nc.IsConnected()
}

// Close drains pending publishes and closes the connection.
func (q *Queue) Close() error {
	if err := q.nc.Drain(); err != nil {
		q.nc.Close()
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}
