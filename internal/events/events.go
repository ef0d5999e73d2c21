package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wildfire/internal/models"
)

const AlertCreated = "alert.created"

// AlertEvent is what downstream consumers receive for every stored alert
type AlertEvent struct {
	Type        string       `json:"type"`
	Source      string       `json:"source"`
	Alert       models.Alert `json:"alert"`
	PublishedAt time.Time    `json:"published_at"`
}

// Publisher hands alert events to a message backend
type Publisher interface {
	Publish(ctx context.Context, events ...AlertEvent) error
	Close() error
}

func encode(e AlertEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("serialize alert event: %w", err)
	}
	return data, nil
}

// Decode parses a payload produced by any Publisher in this package
func Decode(data []byte) (AlertEvent, error) {
	var e AlertEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return AlertEvent{}, fmt.Errorf("deserialize alert event: %w", err)
	}
	return e, nil
}

// NopPublisher discards events
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...AlertEvent) error { return nil }
func (NopPublisher) Close() error                                 { return nil }
