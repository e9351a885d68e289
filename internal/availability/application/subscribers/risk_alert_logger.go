package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/eventbus"
)

// RiskAlertLogger writes a warning for every published risk finding. It is
// the local-mode stand-in for a notification consumer.
type RiskAlertLogger struct {
	logger *slog.Logger
}

// NewRiskAlertLogger creates the subscriber.
func NewRiskAlertLogger(logger *slog.Logger) *RiskAlertLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiskAlertLogger{logger: logger}
}

// RoutingKeys returns the event types this subscriber handles.
func (s *RiskAlertLogger) RoutingKeys() []string {
	return []string{availabilityDomain.RoutingKeyRisksDetected}
}

// Handle logs each finding of a RisksDetected event.
func (s *RiskAlertLogger) Handle(ctx context.Context, event *eventbus.Envelope) error {
	var payload availabilityDomain.RisksDetectedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.RoutingKey, err)
	}

	for _, f := range payload.Findings {
		s.logger.WarnContext(ctx, "schedule risk detected",
			"user_id", payload.UserID,
			"date", payload.Date,
			"risk_type", f.Type,
			"severity", f.Severity,
			"affected", f.AffectedIDs,
			"value", f.Value,
			"correlation_id", event.Metadata.CorrelationID,
		)
	}
	return nil
}
