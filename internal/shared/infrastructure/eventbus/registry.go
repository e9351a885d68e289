package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Handler reacts to events with the given routing keys.
type Handler interface {
	RoutingKeys() []string
	Handle(ctx context.Context, event *Envelope) error
}

// Registry routes envelopes to handlers by routing key.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{handlers: make(map[string][]Handler), logger: logger}
}

// Register subscribes h to each of its routing keys.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range h.RoutingKeys() {
		r.handlers[key] = append(r.handlers[key], h)
		r.logger.Debug("registered event handler", "routing_key", key)
	}
}

// Handlers returns the handlers subscribed to key.
func (r *Registry) Handlers(key string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Handler(nil), r.handlers[key]...)
}

// Count returns the number of subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, hs := range r.handlers {
		n += len(hs)
	}
	return n
}

// Dispatch delivers event to every subscribed handler. A failing handler does
// not stop the others; all failures are joined.
func (r *Registry) Dispatch(ctx context.Context, event *Envelope) error {
	handlers := r.Handlers(event.RoutingKey)
	if len(handlers) == 0 {
		r.logger.Debug("no handlers for event", "routing_key", event.RoutingKey)
		return nil
	}

	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			r.logger.ErrorContext(ctx, "event handler failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
