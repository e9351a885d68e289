package queries

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/planwise/internal/availability/application/services"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
)

// GetDayRisksQuery asks for the risks on one day.
type GetDayRisksQuery struct {
	UserID uuid.UUID
	Date   availabilityDomain.Date
	// Window overrides the configured working window.
	Window *availabilityDomain.WorkingWindow
	// IncludeDismissed keeps findings the user has dismissed.
	IncludeDismissed bool
}

// DayRisksDTO is the risk report for one day.
type DayRisksDTO struct {
	Date      availabilityDomain.Date
	Window    availabilityDomain.TimeRange
	Findings  []availabilityDomain.RiskFinding
	Dismissed []availabilityDomain.RiskType
}

// GetDayRisksHandler runs risk detection for a day and hides dismissed
// findings.
type GetDayRisksHandler struct {
	loader     *services.DayLoader
	store      services.StateStore
	thresholds availabilityDomain.RiskThresholds
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewGetDayRisksHandler creates the handler. A nil store disables dismissals.
func NewGetDayRisksHandler(
	loader *services.DayLoader,
	store services.StateStore,
	thresholds availabilityDomain.RiskThresholds,
	logger *slog.Logger,
	metrics observability.Metrics,
) *GetDayRisksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &GetDayRisksHandler{loader: loader, store: store, thresholds: thresholds, logger: logger, metrics: metrics}
}

// Handle executes the query.
func (h *GetDayRisksHandler) Handle(ctx context.Context, query GetDayRisksQuery) (*DayRisksDTO, error) {
	return observability.TimeOperationResult(ctx, h.logger, h.metrics, "availability.day_risks", func() (*DayRisksDTO, error) {
		day, err := h.loader.Load(ctx, query.UserID, query.Date, query.Window)
		if err != nil {
			return nil, err
		}

		findings, err := availabilityDomain.DetectRisks(availabilityDomain.RiskInput{
			Events:     day.Items,
			Tasks:      day.Tasks,
			Window:     day.Window,
			Today:      day.Today,
			Thresholds: h.thresholds,
		})
		if err != nil {
			return nil, err
		}

		dto := &DayRisksDTO{
			Date:      query.Date,
			Window:    day.Window,
			Findings:  []availabilityDomain.RiskFinding{},
			Dismissed: []availabilityDomain.RiskType{},
		}
		for _, f := range findings {
			if !query.IncludeDismissed && h.isDismissed(ctx, query.UserID, query.Date, f.Type) {
				dto.Dismissed = append(dto.Dismissed, f.Type)
				continue
			}
			dto.Findings = append(dto.Findings, f)
			h.metrics.Counter(observability.MetricRisksDetected, 1,
				observability.T("type", string(f.Type)),
				observability.T("severity", string(f.Severity)),
			)
		}
		return dto, nil
	})
}

// isDismissed treats store failures as "not dismissed" so an unavailable
// store never hides a risk.
func (h *GetDayRisksHandler) isDismissed(ctx context.Context, userID uuid.UUID, date availabilityDomain.Date, riskType availabilityDomain.RiskType) bool {
	if h.store == nil {
		return false
	}
	_, ok, err := h.store.Get(ctx, services.DismissalKey(userID, date, riskType))
	if err != nil {
		h.logger.WarnContext(ctx, "dismissal lookup failed", "risk_type", riskType, "error", err)
		return false
	}
	return ok
}
