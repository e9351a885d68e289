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

const sqliteEventColumns = `id, user_id, title, start_at, end_at, all_day, recurrence_rule,
	recurrence_end, category_id, is_meeting, is_focus_time`

// SQLiteEventRepository implements domain.EventRepository using SQLite.
type SQLiteEventRepository struct {
	conn database.Connection
}

// NewSQLiteEventRepository creates a new SQLite event repository.
func NewSQLiteEventRepository(conn database.Connection) *SQLiteEventRepository {
	return &SQLiteEventRepository{conn: conn}
}

// Save inserts or replaces an event.
func (r *SQLiteEventRepository) Save(ctx context.Context, e domain.Event) error {
	if err := e.Range().Validate(); err != nil {
		return err
	}
	now := formatSQLiteTime(time.Now())
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO events (id, user_id, title, start_at, end_at, all_day, recurrence_rule,
			recurrence_end, category_id, is_meeting, is_focus_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			title = excluded.title,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			all_day = excluded.all_day,
			recurrence_rule = excluded.recurrence_rule,
			recurrence_end = excluded.recurrence_end,
			category_id = excluded.category_id,
			is_meeting = excluded.is_meeting,
			is_focus_time = excluded.is_focus_time,
			updated_at = excluded.updated_at`,
		e.ID, e.UserID.String(), e.Title,
		formatSQLiteTime(e.Start), formatSQLiteTime(e.End), boolToInt(e.AllDay),
		e.RecurrenceRule, toNullTime(e.RecurrenceEnd), e.CategoryID,
		boolToInt(e.IsMeeting), boolToInt(e.IsFocusTime), now, now,
	)
	if err != nil {
		return fmt.Errorf("save event %s: %w", e.ID, err)
	}
	return nil
}

// FindByID retrieves an event.
func (r *SQLiteEventRepository) FindByID(ctx context.Context, userID uuid.UUID, id string) (*domain.Event, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+sqliteEventColumns+` FROM events WHERE user_id = ? AND id = ?`,
		userID.String(), id,
	)
	e, err := scanSQLiteEvent(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// FindInRange returns single events intersecting [start, end) and recurring
// series that started before end and have not ended before start.
func (r *SQLiteEventRepository) FindInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Event, error) {
	s, e := formatSQLiteTime(start), formatSQLiteTime(end)
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+sqliteEventColumns+` FROM events
		WHERE user_id = ?
		  AND start_at < ?
		  AND (recurrence_rule <> '' OR end_at > ? OR (start_at = end_at AND start_at >= ?))
		ORDER BY start_at, id`,
		userID.String(), e, s, s,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		ev, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return filterSeries(events, start), nil
}

// Delete removes an event.
func (r *SQLiteEventRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM events WHERE user_id = ? AND id = ?`, userID.String(), id)
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
func (r *SQLiteEventRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT DISTINCT user_id FROM events ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse user id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanSQLiteEvent(row database.Row) (domain.Event, error) {
	var (
		e                      domain.Event
		userID, start, end     string
		allDay, meeting, focus int
		recurrenceEnd          sql.NullString
	)
	err := row.Scan(&e.ID, &userID, &e.Title, &start, &end, &allDay, &e.RecurrenceRule,
		&recurrenceEnd, &e.CategoryID, &meeting, &focus)
	if err != nil {
		return domain.Event{}, err
	}

	if e.UserID, err = uuid.Parse(userID); err != nil {
		return domain.Event{}, fmt.Errorf("event %s: parse user id: %w", e.ID, err)
	}
	if e.Start, err = parseSQLiteTime(start); err != nil {
		return domain.Event{}, fmt.Errorf("event %s: parse start: %w", e.ID, err)
	}
	if e.End, err = parseSQLiteTime(end); err != nil {
		return domain.Event{}, fmt.Errorf("event %s: parse end: %w", e.ID, err)
	}
	if recurrenceEnd.Valid {
		t, err := parseSQLiteTime(recurrenceEnd.String)
		if err != nil {
			return domain.Event{}, fmt.Errorf("event %s: parse recurrence end: %w", e.ID, err)
		}
		e.RecurrenceEnd = &t
	}
	e.AllDay = allDay != 0
	e.IsMeeting = meeting != 0
	e.IsFocusTime = focus != 0
	return e, nil
}
