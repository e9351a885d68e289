// Package outbox stores published events in the database and relays them to
// the broker, so an event is not lost when the broker is briefly down.
package outbox

import (
	"context"
	"time"

	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Message is one stored event awaiting relay.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	RoutingKey       string
	Payload          []byte
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage wraps an encoded envelope. The event ID is read from the
// envelope when it decodes.
func NewMessage(routingKey string, payload []byte) *Message {
	msg := &Message{
		EventID:    uuid.New(),
		RoutingKey: routingKey,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
	if env, err := eventbus.Decode(payload); err == nil && env.EventID != uuid.Nil {
		msg.EventID = env.EventID
	}
	return msg
}

// IsPublished reports whether the message has been relayed.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// CanRetry reports whether another attempt is allowed.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}

// Repository persists outbox messages.
type Repository interface {
	// Save stores a message, joining the transaction in ctx if any.
	Save(ctx context.Context, msg *Message) error
	// GetUnpublished returns pending messages that are due, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error
	// DeleteOld removes published messages older than the retention period.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}

// Publisher implements eventbus.Publisher by writing to the outbox. A
// Processor delivers the messages later.
type Publisher struct {
	repo Repository
}

// NewPublisher creates an outbox-backed publisher.
func NewPublisher(repo Repository) *Publisher {
	return &Publisher{repo: repo}
}

// Publish stores the event.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	return p.repo.Save(ctx, NewMessage(routingKey, payload))
}

// Close is a no-op.
func (p *Publisher) Close() error { return nil }
