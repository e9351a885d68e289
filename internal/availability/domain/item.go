package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidTask   = errors.New("task duration must be positive")
)

// DefaultTaskMinutes is assumed for tasks stored without a duration.
const DefaultTaskMinutes = 60

// TimedItem is an occupied interval with its classification already resolved.
type TimedItem struct {
	ID          string
	Title       string
	Range       TimeRange
	CategoryID  string
	IsMeeting   bool
	IsFocusTime bool
}

// Event is a calendar record as supplied by the event store.
type Event struct {
	ID             string
	UserID         uuid.UUID
	Title          string
	Start          time.Time
	End            time.Time
	AllDay         bool
	RecurrenceRule string
	RecurrenceEnd  *time.Time
	CategoryID     string
	IsMeeting      bool
	IsFocusTime    bool
}

// IsRecurring reports whether the event carries a recurrence rule.
func (e Event) IsRecurring() bool {
	return e.RecurrenceRule != ""
}

// Range returns the first occurrence of the event.
func (e Event) Range() TimeRange {
	return TimeRange{Start: e.Start, End: e.End}
}

// Item converts the event into a timed item covering r.
func (e Event) Item(id string, r TimeRange) TimedItem {
	return TimedItem{
		ID:          id,
		Title:       e.Title,
		Range:       r,
		CategoryID:  e.CategoryID,
		IsMeeting:   e.IsMeeting,
		IsFocusTime: e.IsFocusTime,
	}
}

// Priority ranks tasks.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps a stored value to a Priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityHigh, PriorityLow:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Task is a unit of work that needs time on the calendar.
type Task struct {
	ID              string
	UserID          uuid.UUID
	Title           string
	DurationMinutes int
	Priority        Priority
	DueDate         *Date
	Status          TaskStatus
}

// IsCompleted reports whether the task is done.
func (t Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// Duration returns the task duration.
func (t Task) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

// EffectiveMinutes returns the duration, substituting the default when unset.
func (t Task) EffectiveMinutes() int {
	if t.DurationMinutes <= 0 {
		return DefaultTaskMinutes
	}
	return t.DurationMinutes
}

// IsOverdue reports whether the task was due before today.
func (t Task) IsOverdue(today Date) bool {
	return t.DueDate != nil && t.DueDate.Before(today)
}

// IsDueOn reports whether the task is due on the given date.
func (t Task) IsDueOn(date Date) bool {
	return t.DueDate != nil && *t.DueDate == date
}

func itemRanges(items []TimedItem) []TimeRange {
	ranges := make([]TimeRange, 0, len(items))
	for _, item := range items {
		ranges = append(ranges, item.Range)
	}
	return ranges
}

func validateItems(items []TimedItem) error {
	for _, item := range items {
		if err := item.Range.Validate(); err != nil {
			return err
		}
	}
	return nil
}
