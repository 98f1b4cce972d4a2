package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/lidofinance/lightclient-gateway/internal/env"
)

func New(cfg *env.AppConfig, log *slog.Logger) (*nats.Conn, error) {
	return nats.Connect(cfg.NatsURL,
		nats.Name(cfg.Name),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("Nats client got disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info(fmt.Sprintf("Nats client got reconnected to %v", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("Nats connection closed")
		}),
	)
}

// EnsureStream creates the block stream or updates it when it already exists.
func EnsureStream(ctx context.Context, js jetstream.JetStream, streamName string, subjects ...string) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       streamName,
		Discard:    jetstream.DiscardOld,
		MaxAge:     10 * time.Minute,
		Subjects:   subjects,
		Duplicates: 2 * time.Minute,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("could not create %s stream: %w", streamName, err)
	}
	return nil
}

// BlockSubject is the subject new blocks of a network are published on.
func BlockSubject(streamName, network string) string {
	return fmt.Sprintf(`%s.%s.blocks`, streamName, network)
}
