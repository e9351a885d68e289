package queries

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/planwise/internal/availability/application/services"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
)

// DefaultMaxSlots is used by callers that do not choose a limit.
const DefaultMaxSlots = 5

// FindBestSlotsQuery asks for the best placements of a task on a day. When
// TaskID is empty an ad hoc task of DurationMinutes is placed.
type FindBestSlotsQuery struct {
	UserID          uuid.UUID
	TaskID          string
	DurationMinutes int
	Date            availabilityDomain.Date
	Window          *availabilityDomain.WorkingWindow
	MaxSlots        int
}

// SlotsDTO holds the ranked placements.
type SlotsDTO struct {
	Task  availabilityDomain.Task
	Slots []availabilityDomain.ScoredSlot
}

// FindBestSlotsHandler handles FindBestSlotsQuery.
type FindBestSlotsHandler struct {
	loader  *services.DayLoader
	tasks   availabilityDomain.TaskRepository
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewFindBestSlotsHandler creates the handler.
func NewFindBestSlotsHandler(loader *services.DayLoader, tasks availabilityDomain.TaskRepository, logger *slog.Logger, metrics observability.Metrics) *FindBestSlotsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &FindBestSlotsHandler{loader: loader, tasks: tasks, logger: logger, metrics: metrics}
}

// Handle executes the query.
func (h *FindBestSlotsHandler) Handle(ctx context.Context, query FindBestSlotsQuery) (*SlotsDTO, error) {
	return observability.TimeOperationResult(ctx, h.logger, h.metrics, "availability.best_slots", func() (*SlotsDTO, error) {
		task, err := h.resolveTask(ctx, query)
		if err != nil {
			return nil, err
		}

		window, err := h.loader.Window(query.Date, query.Window)
		if err != nil {
			return nil, err
		}
		items, err := h.loader.LoadItems(ctx, query.UserID, query.Date)
		if err != nil {
			return nil, err
		}

		slots, err := availabilityDomain.FindBestSlots(availabilityDomain.SlotRequest{
			Task:     task,
			Events:   items,
			Window:   window,
			Today:    h.loader.Today(),
			MaxSlots: query.MaxSlots,
		})
		if err != nil {
			return nil, err
		}
		h.metrics.Histogram(observability.MetricSlotsFound, float64(len(slots)))
		return &SlotsDTO{Task: task, Slots: slots}, nil
	})
}

func (h *FindBestSlotsHandler) resolveTask(ctx context.Context, query FindBestSlotsQuery) (availabilityDomain.Task, error) {
	if query.TaskID == "" {
		if query.DurationMinutes <= 0 {
			return availabilityDomain.Task{}, availabilityDomain.ErrInvalidTask
		}
		return availabilityDomain.Task{
			ID:              "adhoc",
			UserID:          query.UserID,
			Title:           fmt.Sprintf("%d minute block", query.DurationMinutes),
			DurationMinutes: query.DurationMinutes,
			Priority:        availabilityDomain.PriorityMedium,
			Status:          availabilityDomain.TaskStatusTodo,
		}, nil
	}

	task, err := h.tasks.FindByID(ctx, query.UserID, query.TaskID)
	if err != nil {
		return availabilityDomain.Task{}, fmt.Errorf("load task %s: %w", query.TaskID, err)
	}
	if task == nil {
		return availabilityDomain.Task{}, fmt.Errorf("load task %s: %w", query.TaskID, availabilityDomain.ErrTaskNotFound)
	}
	return *task, nil
}
