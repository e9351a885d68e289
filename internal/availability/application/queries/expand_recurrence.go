package queries

import (
	"context"
	"log/slog"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
)

// ExpandRecurrenceQuery previews the occurrences of a rule.
type ExpandRecurrenceQuery struct {
	Rule  string
	First availabilityDomain.TimeRange
	From  time.Time
	To    time.Time
	Until *time.Time
}

// ExpandRecurrenceHandler expands rules through the shared parser.
type ExpandRecurrenceHandler struct {
	expander *availabilityDomain.Expander
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewExpandRecurrenceHandler creates the handler.
func NewExpandRecurrenceHandler(parser availabilityDomain.RuleParser, logger *slog.Logger, metrics observability.Metrics) *ExpandRecurrenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ExpandRecurrenceHandler{expander: availabilityDomain.NewExpander(parser), logger: logger, metrics: metrics}
}

// Handle executes the query. Unlike day loading, a malformed rule is
// returned to the caller as a *ParseError.
func (h *ExpandRecurrenceHandler) Handle(ctx context.Context, query ExpandRecurrenceQuery) ([]availabilityDomain.TimeRange, error) {
	return observability.TimeOperationResult(ctx, h.logger, h.metrics, "availability.expand", func() ([]availabilityDomain.TimeRange, error) {
		return h.expander.Expand(availabilityDomain.RecurrenceSpec{
			Rule:  query.Rule,
			First: query.First,
			Until: query.Until,
		}, query.From, query.To)
	})
}
