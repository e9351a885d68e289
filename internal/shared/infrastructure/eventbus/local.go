package eventbus

import (
	"context"
	"log/slog"
	"time"
)

// LocalBus is a Publisher that dispatches synchronously to in-process
// handlers. It is used when no broker is configured. Handler failures are
// logged and never fail the publish.
type LocalBus struct {
	registry *Registry
	logger   *slog.Logger
}

// NewLocalBus creates a bus with an empty registry.
func NewLocalBus(logger *slog.Logger) *LocalBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalBus{registry: NewRegistry(logger), logger: logger}
}

// Subscribe registers h.
func (b *LocalBus) Subscribe(h Handler) {
	b.registry.Register(h)
}

// Registry exposes the handler registry.
func (b *LocalBus) Registry() *Registry {
	return b.registry
}

// Publish decodes payload and dispatches it.
func (b *LocalBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := Decode(payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping undecodable event", "routing_key", routingKey, "error", err)
		return nil
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}

	start := time.Now()
	if err := b.registry.Dispatch(ctx, event); err != nil {
		b.logger.ErrorContext(ctx, "event dispatch failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil
	}
	b.logger.DebugContext(ctx, "event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Close is a no-op.
func (b *LocalBus) Close() error { return nil }
