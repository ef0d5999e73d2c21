package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"wildfire/internal/database"
	"wildfire/internal/metrics"
	"wildfire/internal/models"
)

type sourceKey struct{}

// WithSource tags alerts created under ctx (scan, manual, bulk)
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func sourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok {
		return s
	}
	return "unknown"
}

// PublishingStore wraps a Store and publishes an event for every alert it
// inserts. Publishing is best effort: a broker failure is logged and counted
// but never fails the insert.
type PublishingStore struct {
	database.Store
	publisher Publisher
	backend   string
	clock     clockwork.Clock
	logger    *slog.Logger
}

func NewPublishingStore(store database.Store, publisher Publisher, backend string, clock clockwork.Clock, logger *slog.Logger) *PublishingStore {
	return &PublishingStore{Store: store, publisher: publisher, backend: backend, clock: clock, logger: logger}
}

func (s *PublishingStore) InsertAlert(ctx context.Context, alert *models.Alert) (string, error) {
	id, err := s.Store.InsertAlert(ctx, alert)
	if err != nil {
		return "", err
	}
	s.publish(ctx, *alert)
	return id, nil
}

func (s *PublishingStore) InsertAlerts(ctx context.Context, alerts []*models.Alert) ([]string, error) {
	ids, err := s.Store.InsertAlerts(ctx, alerts)
	if err != nil {
		return nil, err
	}
	batch := make([]models.Alert, len(alerts))
	for i, a := range alerts {
		batch[i] = *a
	}
	s.publish(ctx, batch...)
	return ids, nil
}

func (s *PublishingStore) publish(ctx context.Context, alerts ...models.Alert) {
	now := s.clock.Now().UTC()
	source := sourceFrom(ctx)
	batch := make([]AlertEvent, len(alerts))
	for i, a := range alerts {
		batch[i] = AlertEvent{Type: AlertCreated, Source: source, Alert: a, PublishedAt: now}
	}

	// the request may finish before the broker answers
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.publisher.Publish(pubCtx, batch...)
	metrics.RecordEventPublished(s.backend, err)
	if err != nil {
		s.logger.Warn("failed to publish alert events", "backend", s.backend, "count", len(batch), "error", err)
	}
}

func (s *PublishingStore) Close() error {
	pubErr := s.publisher.Close()
	if err := s.Store.Close(); err != nil {
		return err
	}
	return pubErr
}
