package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const taskColumns = `id, user_id, title, duration_minutes, priority, due_date, status`

// SQLiteTaskRepository implements domain.TaskRepository using SQLite.
type SQLiteTaskRepository struct {
	conn database.Connection
}

// NewSQLiteTaskRepository creates a new SQLite task repository.
func NewSQLiteTaskRepository(conn database.Connection) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{conn: conn}
}

// Save inserts or replaces a task.
func (r *SQLiteTaskRepository) Save(ctx context.Context, t domain.Task) error {
	now := formatSQLiteTime(time.Now())
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO tasks (id, user_id, title, duration_minutes, priority, due_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			title = excluded.title,
			duration_minutes = excluded.duration_minutes,
			priority = excluded.priority,
			due_date = excluded.due_date,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		t.ID, t.UserID.String(), t.Title, t.DurationMinutes, string(t.Priority),
		toNullDate(t.DueDate), string(t.Status), now, now,
	)
	if err != nil {
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	return nil
}

// FindByID retrieves a task.
func (r *SQLiteTaskRepository) FindByID(ctx context.Context, userID uuid.UUID, id string) (*domain.Task, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND id = ?`, userID.String(), id)
	t, err := scanSQLiteTask(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindOpen returns tasks that are not completed, earliest due date first.
func (r *SQLiteTaskRepository) FindOpen(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND status <> ?
		ORDER BY due_date IS NULL, due_date, id`,
		userID.String(), string(domain.TaskStatusCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanSQLiteTask(row database.Row) (domain.Task, error) {
	var (
		t                domain.Task
		userID, priority string
		status           string
		due              sql.NullString
	)
	if err := row.Scan(&t.ID, &userID, &t.Title, &t.DurationMinutes, &priority, &due, &status); err != nil {
		return domain.Task{}, err
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: parse user id: %w", t.ID, err)
	}
	t.UserID = id
	t.Priority = domain.ParsePriority(priority)
	t.Status = domain.TaskStatus(status)
	if due.Valid {
		d, err := domain.ParseDate(due.String)
		if err != nil {
			return domain.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		t.DueDate = &d
	}
	return t, nil
}
