package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	sharedApplication "github.com/felixgeelhaar/planwise/internal/shared/application"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
)

var ErrEmptyCalendar = errors.New("calendar contains no events")

// CalendarDecoder turns a calendar file into events owned by userID.
type CalendarDecoder interface {
	Decode(r io.Reader, userID uuid.UUID) ([]availabilityDomain.Event, error)
}

// ImportCalendarCommand imports the events of a calendar file.
type ImportCalendarCommand struct {
	UserID uuid.UUID
	Path   string
}

// ImportCalendarResult reports what was stored.
type ImportCalendarResult struct {
	Imported  int
	Recurring int
}

// ImportCalendarHandler handles ImportCalendarCommand.
type ImportCalendarHandler struct {
	decoder CalendarDecoder
	events  availabilityDomain.EventRepository
	uow     sharedApplication.UnitOfWork
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewImportCalendarHandler creates the handler.
func NewImportCalendarHandler(
	decoder CalendarDecoder,
	events availabilityDomain.EventRepository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *ImportCalendarHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ImportCalendarHandler{decoder: decoder, events: events, uow: uow, logger: logger, metrics: metrics}
}

// Handle executes the command. Events are saved in one transaction; an
// existing event with the same ID is replaced.
func (h *ImportCalendarHandler) Handle(ctx context.Context, cmd ImportCalendarCommand) (*ImportCalendarResult, error) {
	f, err := security.OpenImportFile(cmd.Path, ".ics", ".ical")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	events, err := h.decoder.Decode(f, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", cmd.Path, err)
	}
	if len(events) == 0 {
		return nil, ErrEmptyCalendar
	}

	result := &ImportCalendarResult{}
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		for _, event := range events {
			if err := h.events.Save(txCtx, event); err != nil {
				return fmt.Errorf("save event %s: %w", event.ID, err)
			}
			result.Imported++
			if event.IsRecurring() {
				result.Recurring++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricEventsImported, int64(result.Imported))
	h.logger.InfoContext(ctx, "calendar imported",
		"path", cmd.Path,
		"events", result.Imported,
		"recurring", result.Recurring,
	)
	return result, nil
}
