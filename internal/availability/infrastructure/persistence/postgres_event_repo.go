package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const postgresEventColumns = `id, user_id, title, start_at, end_at, all_day, recurrence_rule,
	recurrence_end, category_id, is_meeting, is_focus_time`

// PostgresEventRepository implements domain.EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	conn database.Connection
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(conn database.Connection) *PostgresEventRepository {
	return &PostgresEventRepository{conn: conn}
}

// Save inserts or replaces an event.
func (r *PostgresEventRepository) Save(ctx context.Context, e domain.Event) error {
	if err := e.Range().Validate(); err != nil {
		return err
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO events (id, user_id, title, start_at, end_at, all_day, recurrence_rule,
			recurrence_end, category_id, is_meeting, is_focus_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, id) DO UPDATE SET
			title = EXCLUDED.title,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			all_day = EXCLUDED.all_day,
			recurrence_rule = EXCLUDED.recurrence_rule,
			recurrence_end = EXCLUDED.recurrence_end,
			category_id = EXCLUDED.category_id,
			is_meeting = EXCLUDED.is_meeting,
			is_focus_time = EXCLUDED.is_focus_time,
			updated_at = NOW()`,
		e.ID, e.UserID, e.Title, e.Start.UTC(), e.End.UTC(), e.AllDay, e.RecurrenceRule,
		e.RecurrenceEnd, e.CategoryID, e.IsMeeting, e.IsFocusTime,
	)
	if err != nil {
		return fmt.Errorf("save event %s: %w", e.ID, err)
	}
	return nil
}

// FindByID retrieves an event.
func (r *PostgresEventRepository) FindByID(ctx context.Context, userID uuid.UUID, id string) (*domain.Event, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+postgresEventColumns+` FROM events WHERE user_id = $1 AND id = $2`, userID, id)
	e, err := scanPostgresEvent(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// FindInRange returns single events intersecting [start, end) and recurring
// series whose occurrences can reach the range.
func (r *PostgresEventRepository) FindInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Event, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+postgresEventColumns+` FROM events
		WHERE user_id = $1
		  AND start_at < $2
		  AND (
		    (recurrence_rule = '' AND (end_at > $3 OR (start_at = end_at AND start_at >= $3)))
		    OR (recurrence_rule <> '' AND (recurrence_end IS NULL OR recurrence_end + (end_at - start_at) > $3))
		  )
		ORDER BY start_at, id`,
		userID, end.UTC(), start.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanPostgresEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Delete removes an event.
func (r *PostgresEventRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM events WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// ListUserIDs returns every user that owns at least one event.
func (r *PostgresEventRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT DISTINCT user_id FROM events ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanPostgresEvent(row database.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Start, &e.End, &e.AllDay, &e.RecurrenceRule,
		&e.RecurrenceEnd, &e.CategoryID, &e.IsMeeting, &e.IsFocusTime)
	if err != nil {
		return domain.Event{}, err
	}
	e.Start, e.End = e.Start.UTC(), e.End.UTC()
	return e, nil
}
