package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/planwise/internal/availability/application/services"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
)

var ErrUnknownRiskType = errors.New("unknown risk type")

// DismissRiskCommand hides one risk type on one day.
type DismissRiskCommand struct {
	UserID   uuid.UUID
	Date     availabilityDomain.Date
	RiskType string
}

// DismissRiskHandler handles DismissRiskCommand.
type DismissRiskHandler struct {
	store   services.StateStore
	ttl     time.Duration
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewDismissRiskHandler creates the handler. Dismissals expire after ttl.
func NewDismissRiskHandler(store services.StateStore, ttl time.Duration, logger *slog.Logger, metrics observability.Metrics) *DismissRiskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &DismissRiskHandler{store: store, ttl: ttl, logger: logger, metrics: metrics}
}

// Handle executes the command.
func (h *DismissRiskHandler) Handle(ctx context.Context, cmd DismissRiskCommand) error {
	riskType, ok := availabilityDomain.ParseRiskType(cmd.RiskType)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRiskType, cmd.RiskType)
	}

	key := services.DismissalKey(cmd.UserID, cmd.Date, riskType)
	if err := h.store.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), h.ttl); err != nil {
		return fmt.Errorf("dismiss %s on %s: %w", riskType, cmd.Date, err)
	}

	h.metrics.Counter(observability.MetricRisksDismissed, 1, observability.T("type", string(riskType)))
	h.logger.InfoContext(ctx, "risk dismissed", "risk_type", riskType, "date", cmd.Date.String())
	return nil
}
