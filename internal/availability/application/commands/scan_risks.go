package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/planwise/internal/availability/application/queries"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	sharedApplication "github.com/felixgeelhaar/planwise/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/planwise/internal/shared/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
)

// UserLister lists the users that own events.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// DayRiskReporter reports the undismissed risks of one day.
type DayRiskReporter interface {
	Handle(ctx context.Context, query queries.GetDayRisksQuery) (*queries.DayRisksDTO, error)
}

// ScanRisksCommand scans one date for every user. A zero Date means today.
type ScanRisksCommand struct {
	Date availabilityDomain.Date
}

// ScanResult summarizes a scan run.
type ScanResult struct {
	Date      availabilityDomain.Date
	Users     int
	WithRisks int
	Findings  int
	Failed    int
}

// ScanRisksHandler runs risk detection for every user and publishes a
// RisksDetected event for each user with findings. A failure for one user is
// logged and counted; the scan continues.
type ScanRisksHandler struct {
	users     UserLister
	risks     DayRiskReporter
	publisher eventbus.Publisher
	today     func() availabilityDomain.Date
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewScanRisksHandler creates the handler. today resolves a zero date.
func NewScanRisksHandler(
	users UserLister,
	risks DayRiskReporter,
	publisher eventbus.Publisher,
	today func() availabilityDomain.Date,
	logger *slog.Logger,
	metrics observability.Metrics,
) *ScanRisksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ScanRisksHandler{users: users, risks: risks, publisher: publisher, today: today, logger: logger, metrics: metrics}
}

// Handle executes the command.
func (h *ScanRisksHandler) Handle(ctx context.Context, cmd ScanRisksCommand) (*ScanResult, error) {
	date := cmd.Date
	if date.IsZero() {
		date = h.today()
	}

	userIDs, err := h.users.ListUserIDs(ctx)
	if err != nil {
		h.metrics.Counter(observability.MetricRiskScans, 1, observability.T("status", "error"))
		return nil, fmt.Errorf("list users: %w", err)
	}

	result := &ScanResult{Date: date, Users: len(userIDs)}
	for _, userID := range userIDs {
		n, err := h.scanUser(ctx, userID, date)
		if err != nil {
			result.Failed++
			h.logger.ErrorContext(ctx, "risk scan failed for user",
				"user_id", userID,
				"date", date.String(),
				"error", err,
			)
			continue
		}
		if n > 0 {
			result.WithRisks++
			result.Findings += n
		}
	}

	status := "success"
	if result.Failed > 0 {
		status = "partial"
	}
	h.metrics.Counter(observability.MetricRiskScans, 1, observability.T("status", status))
	h.logger.InfoContext(ctx, "risk scan completed",
		"date", date.String(),
		"users", result.Users,
		"users_with_risks", result.WithRisks,
		"findings", result.Findings,
		"failed", result.Failed,
	)
	return result, nil
}

func (h *ScanRisksHandler) scanUser(ctx context.Context, userID uuid.UUID, date availabilityDomain.Date) (int, error) {
	report, err := h.risks.Handle(ctx, queries.GetDayRisksQuery{UserID: userID, Date: date})
	if err != nil {
		return 0, err
	}
	if len(report.Findings) == 0 {
		return 0, nil
	}

	event := availabilityDomain.NewRisksDetected(userID, date, report.Findings)
	sharedApplication.ApplyEventMetadata(
		[]sharedDomain.DomainEvent{event},
		sharedApplication.NewEventMetadata(ctx, userID),
	)
	if err := eventbus.PublishEvent(ctx, h.publisher, event, event.Payload()); err != nil {
		return 0, fmt.Errorf("publish %s: %w", event.RoutingKey(), err)
	}
	h.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", event.RoutingKey()))
	return len(report.Findings), nil
}
