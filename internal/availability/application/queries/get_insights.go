package queries

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/planwise/internal/availability/application/services"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DaysPerWeek is the length of a week summary.
const DaysPerWeek = 7

// GetDayInsightsQuery asks for the summary of one day.
type GetDayInsightsQuery struct {
	UserID uuid.UUID
	Date   availabilityDomain.Date
	Window *availabilityDomain.WorkingWindow
}

// GetWeekInsightsQuery asks for the summary of the Monday-based week that
// contains Date.
type GetWeekInsightsQuery struct {
	UserID uuid.UUID
	Date   availabilityDomain.Date
	Window *availabilityDomain.WorkingWindow
}

// InsightsHandler serves day and week summaries.
type InsightsHandler struct {
	loader  *services.DayLoader
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewInsightsHandler creates the handler.
func NewInsightsHandler(loader *services.DayLoader, logger *slog.Logger, metrics observability.Metrics) *InsightsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &InsightsHandler{loader: loader, logger: logger, metrics: metrics}
}

// HandleDay summarises one day.
func (h *InsightsHandler) HandleDay(ctx context.Context, query GetDayInsightsQuery) (*availabilityDomain.DaySummary, error) {
	return observability.TimeOperationResult(ctx, h.logger, h.metrics, "availability.day_insights", func() (*availabilityDomain.DaySummary, error) {
		summary, err := h.summarize(ctx, query.UserID, query.Date, query.Window)
		if err != nil {
			return nil, err
		}
		return &summary, nil
	})
}

// HandleWeek summarises seven days, loading them concurrently.
func (h *InsightsHandler) HandleWeek(ctx context.Context, query GetWeekInsightsQuery) (*availabilityDomain.WeekSummary, error) {
	return observability.TimeOperationResult(ctx, h.logger, h.metrics, "availability.week_insights", func() (*availabilityDomain.WeekSummary, error) {
		start := query.Date.StartOfWeek()
		days := make([]availabilityDomain.DaySummary, DaysPerWeek)

		g, gctx := errgroup.WithContext(ctx)
		for i := range DaysPerWeek {
			g.Go(func() error {
				summary, err := h.summarize(gctx, query.UserID, start.AddDays(i), query.Window)
				if err != nil {
					return err
				}
				days[i] = summary
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		week := availabilityDomain.SummarizeWeek(days)
		return &week, nil
	})
}

func (h *InsightsHandler) summarize(ctx context.Context, userID uuid.UUID, date availabilityDomain.Date, override *availabilityDomain.WorkingWindow) (availabilityDomain.DaySummary, error) {
	window, err := h.loader.Window(date, override)
	if err != nil {
		return availabilityDomain.DaySummary{}, err
	}
	items, err := h.loader.LoadItems(ctx, userID, date)
	if err != nil {
		return availabilityDomain.DaySummary{}, err
	}
	return availabilityDomain.SummarizeDay(date, items, window)
}
