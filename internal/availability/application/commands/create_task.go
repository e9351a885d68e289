package commands

import (
	"context"
	"fmt"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/google/uuid"
)

// CreateTaskCommand stores a task that can later be placed with the slot
// finder.
type CreateTaskCommand struct {
	UserID          uuid.UUID
	Title           string
	DurationMinutes int
	Priority        string
	DueDate         *availabilityDomain.Date
}

// CreateTaskHandler handles CreateTaskCommand.
type CreateTaskHandler struct {
	tasks availabilityDomain.TaskRepository
}

// NewCreateTaskHandler creates the handler.
func NewCreateTaskHandler(tasks availabilityDomain.TaskRepository) *CreateTaskHandler {
	return &CreateTaskHandler{tasks: tasks}
}

// Handle executes the command and returns the new task.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*availabilityDomain.Task, error) {
	if cmd.DurationMinutes <= 0 {
		return nil, availabilityDomain.ErrInvalidTask
	}
	task := availabilityDomain.Task{
		ID:              uuid.NewString(),
		UserID:          cmd.UserID,
		Title:           cmd.Title,
		DurationMinutes: cmd.DurationMinutes,
		Priority:        availabilityDomain.ParsePriority(cmd.Priority),
		DueDate:         cmd.DueDate,
		Status:          availabilityDomain.TaskStatusTodo,
	}
	if err := h.tasks.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	return &task, nil
}
