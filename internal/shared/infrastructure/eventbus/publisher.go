// Package eventbus carries domain events to RabbitMQ or, in local mode, to
// in-process handlers.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/planwise/internal/shared/domain"
	"github.com/google/uuid"
)

// Publisher sends encoded events to a broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// Envelope is the wire format of every published event.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      Metadata        `json:"metadata"`
}

// Metadata carries tracing context on the wire.
type Metadata struct {
	UserID        uuid.UUID `json:"user_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CausationID   string    `json:"causation_id,omitempty"`
}

// Encode wraps a domain event and its payload into an envelope.
func Encode(event domain.DomainEvent, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event.RoutingKey(), err)
	}
	meta := event.Metadata()
	return json.Marshal(Envelope{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       body,
		Metadata: Metadata{
			UserID:        meta.UserID,
			CorrelationID: meta.CorrelationID,
			CausationID:   meta.CausationID,
		},
	})
}

// Decode parses an envelope.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// PublishEvent encodes and publishes a domain event.
func PublishEvent(ctx context.Context, publisher Publisher, event domain.DomainEvent, payload any) error {
	data, err := Encode(event, payload)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, event.RoutingKey(), data)
}
