package queries

import (
	"context"
	"log/slog"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/booking/application/services"
	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
)

// GetBookingSlotsQuery asks for the bookable times of a link on a date.
// Link is a link ID or slug. A zero Date means today in the link's timezone.
type GetBookingSlotsQuery struct {
	Link string
	Date availabilityDomain.Date
	Rank bool
}

// BookingSlotsDTO is the availability of a link on one date.
type BookingSlotsDTO struct {
	LinkID   string
	Slug     string
	Timezone string
	Date     availabilityDomain.Date
	domain.Availability
}

// GetBookingSlotsHandler handles GetBookingSlotsQuery.
type GetBookingSlotsHandler struct {
	calculator *services.AvailabilityCalculator
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewGetBookingSlotsHandler creates the handler.
func NewGetBookingSlotsHandler(calculator *services.AvailabilityCalculator, logger *slog.Logger, metrics observability.Metrics) *GetBookingSlotsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &GetBookingSlotsHandler{calculator: calculator, logger: logger, metrics: metrics}
}

// Handle executes the query.
func (h *GetBookingSlotsHandler) Handle(ctx context.Context, query GetBookingSlotsQuery) (*BookingSlotsDTO, error) {
	return observability.TimeOperationResult(ctx, h.logger, h.metrics, "booking.slots", func() (*BookingSlotsDTO, error) {
		link, err := h.calculator.ResolveLink(ctx, query.Link)
		if err != nil {
			return nil, err
		}
		date := query.Date
		if date.IsZero() {
			loc, err := link.Location()
			if err != nil {
				return nil, err
			}
			date = availabilityDomain.DateOf(h.calculator.Now().In(loc))
		}
		availability, err := h.calculator.ForDate(ctx, link, date, query.Rank)
		if err != nil {
			return nil, err
		}
		h.metrics.Histogram(observability.MetricBookingSlots, float64(len(availability.Times)))
		return &BookingSlotsDTO{
			LinkID:       link.ID.String(),
			Slug:         link.Slug,
			Timezone:     link.Timezone,
			Date:         date,
			Availability: availability,
		}, nil
	})
}
