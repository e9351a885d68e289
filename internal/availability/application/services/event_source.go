package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// ErrEventSourceUnavailable is returned while the event store breaker is open.
var ErrEventSourceUnavailable = errors.New("event source unavailable")

// EventSource reads the events that may touch a time range.
type EventSource interface {
	FindInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]availabilityDomain.Event, error)
}

// BreakerConfig configures the event source circuit breaker.
type BreakerConfig struct {
	MaxFailures uint32
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// DefaultBreakerConfig trips after five consecutive failures and probes
// again after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxFailures: 5, MaxRequests: 1, Interval: time.Minute, Timeout: 30 * time.Second}
}

// BreakerEventSource guards an EventSource with a circuit breaker so a
// failing store makes queries fail fast.
type BreakerEventSource struct {
	next    EventSource
	breaker *gobreaker.CircuitBreaker[[]availabilityDomain.Event]
}

// NewBreakerEventSource wraps next.
func NewBreakerEventSource(next EventSource, cfg BreakerConfig, logger *slog.Logger, metrics observability.Metrics) *BreakerEventSource {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 1
	}

	settings := gobreaker.Settings{
		Name:        "event-source",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// a cancelled request says nothing about the store
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.Gauge(observability.MetricBreakerState, float64(to), observability.T("breaker", name))
		},
	}
	return &BreakerEventSource{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[]availabilityDomain.Event](settings),
	}
}

// FindInRange implements EventSource.
func (s *BreakerEventSource) FindInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]availabilityDomain.Event, error) {
	events, err := s.breaker.Execute(func() ([]availabilityDomain.Event, error) {
		return s.next.FindInRange(ctx, userID, start, end)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrEventSourceUnavailable, err)
	}
	return events, err
}

// State reports the breaker state.
func (s *BreakerEventSource) State() gobreaker.State {
	return s.breaker.State()
}
