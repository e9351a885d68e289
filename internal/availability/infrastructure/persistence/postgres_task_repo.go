package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresTaskRepository implements domain.TaskRepository using PostgreSQL.
type PostgresTaskRepository struct {
	conn database.Connection
}

// NewPostgresTaskRepository creates a new PostgreSQL task repository.
func NewPostgresTaskRepository(conn database.Connection) *PostgresTaskRepository {
	return &PostgresTaskRepository{conn: conn}
}

// Save inserts or replaces a task.
func (r *PostgresTaskRepository) Save(ctx context.Context, t domain.Task) error {
	var due *time.Time
	if t.DueDate != nil {
		d := t.DueDate.At(time.UTC)
		due = &d
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO tasks (id, user_id, title, duration_minutes, priority, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, id) DO UPDATE SET
			title = EXCLUDED.title,
			duration_minutes = EXCLUDED.duration_minutes,
			priority = EXCLUDED.priority,
			due_date = EXCLUDED.due_date,
			status = EXCLUDED.status,
			updated_at = NOW()`,
		t.ID, t.UserID, t.Title, t.DurationMinutes, string(t.Priority), due, string(t.Status),
	)
	if err != nil {
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	return nil
}

// FindByID retrieves a task.
func (r *PostgresTaskRepository) FindByID(ctx context.Context, userID uuid.UUID, id string) (*domain.Task, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 AND id = $2`, userID, id)
	t, err := scanPostgresTask(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindOpen returns tasks that are not completed, earliest due date first.
func (r *PostgresTaskRepository) FindOpen(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1 AND status <> $2
		ORDER BY due_date NULLS LAST, id`,
		userID, string(domain.TaskStatusCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanPostgresTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanPostgresTask(row database.Row) (domain.Task, error) {
	var (
		t                domain.Task
		priority, status string
		due              *time.Time
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.DurationMinutes, &priority, &due, &status); err != nil {
		return domain.Task{}, err
	}
	t.Priority = domain.ParsePriority(priority)
	t.Status = domain.TaskStatus(status)
	if due != nil {
		d := domain.DateOf(due.UTC())
		t.DueDate = &d
	}
	return t, nil
}
