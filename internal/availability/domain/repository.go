package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventRepository supplies calendar events.
type EventRepository interface {
	Save(ctx context.Context, event Event) error
	FindByID(ctx context.Context, userID uuid.UUID, id string) (*Event, error)
	// FindInRange returns non-recurring events intersecting [start, end) and
	// every recurring event whose series may produce occurrences in it.
	FindInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]Event, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TaskRepository supplies tasks.
type TaskRepository interface {
	Save(ctx context.Context, task Task) error
	FindByID(ctx context.Context, userID uuid.UUID, id string) (*Task, error)
	FindOpen(ctx context.Context, userID uuid.UUID) ([]Task, error)
}
