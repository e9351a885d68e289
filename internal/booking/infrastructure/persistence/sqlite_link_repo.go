// Package persistence stores booking links and bookings.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const sqliteTimeLayout = "2006-01-02T15:04:05Z"

const linkColumns = `id, user_id, slug, title, duration_minutes, buffer_before_minutes,
	buffer_after_minutes, min_notice_minutes, max_per_day, timezone, active, created_at, updated_at`

// SQLiteLinkRepository implements domain.LinkRepository using SQLite.
type SQLiteLinkRepository struct {
	conn database.Connection
}

// NewSQLiteLinkRepository creates a new SQLite link repository.
func NewSQLiteLinkRepository(conn database.Connection) *SQLiteLinkRepository {
	return &SQLiteLinkRepository{conn: conn}
}

// Save inserts or updates a link.
func (r *SQLiteLinkRepository) Save(ctx context.Context, l *domain.Link) error {
	var maxPerDay sql.NullInt64
	if l.MaxPerDay != nil {
		maxPerDay = sql.NullInt64{Int64: int64(*l.MaxPerDay), Valid: true}
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO booking_links (`+linkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			slug = excluded.slug,
			title = excluded.title,
			duration_minutes = excluded.duration_minutes,
			buffer_before_minutes = excluded.buffer_before_minutes,
			buffer_after_minutes = excluded.buffer_after_minutes,
			min_notice_minutes = excluded.min_notice_minutes,
			max_per_day = excluded.max_per_day,
			timezone = excluded.timezone,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		l.ID.String(), l.UserID.String(), l.Slug, l.Title, l.DurationMinutes,
		l.BufferBeforeMinutes, l.BufferAfterMinutes, l.MinNoticeMinutes, maxPerDay,
		l.Timezone, boolToInt(l.Active),
		l.CreatedAt.UTC().Format(sqliteTimeLayout), time.Now().UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("save booking link %s: %w", l.Slug, err)
	}
	return nil
}

// FindByID retrieves a link.
func (r *SQLiteLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Link, error) {
	return r.findOne(ctx, `SELECT `+linkColumns+` FROM booking_links WHERE id = ?`, id.String())
}

// FindBySlug retrieves a link by its public slug.
func (r *SQLiteLinkRepository) FindBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	return r.findOne(ctx, `SELECT `+linkColumns+` FROM booking_links WHERE slug = ?`, slug)
}

func (r *SQLiteLinkRepository) findOne(ctx context.Context, query string, arg any) (*domain.Link, error) {
	var (
		l                           domain.Link
		id, userID, created, update string
		maxPerDay                   sql.NullInt64
		active                      int
	)
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, arg).Scan(
		&id, &userID, &l.Slug, &l.Title, &l.DurationMinutes, &l.BufferBeforeMinutes,
		&l.BufferAfterMinutes, &l.MinNoticeMinutes, &maxPerDay, &l.Timezone, &active, &created, &update,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}
	if l.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse link id: %w", err)
	}
	if l.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse link owner: %w", err)
	}
	if maxPerDay.Valid {
		n := int(maxPerDay.Int64)
		l.MaxPerDay = &n
	}
	l.Active = active != 0
	l.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
	l.UpdatedAt, _ = time.Parse(sqliteTimeLayout, update)
	return &l, nil
}

// SaveRules replaces the weekly rules of a link.
func (r *SQLiteLinkRepository) SaveRules(ctx context.Context, linkID uuid.UUID, rules []domain.AvailabilityRule) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	if _, err := exec.Exec(ctx, `DELETE FROM availability_rules WHERE link_id = ?`, linkID.String()); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	for _, rule := range rules {
		_, err := exec.Exec(ctx, `
			INSERT INTO availability_rules (link_id, day_of_week, start_minute, end_minute, is_available)
			VALUES (?, ?, ?, ?, ?)`,
			linkID.String(), int(rule.DayOfWeek), rule.Window.StartMinute, rule.Window.EndMinute, boolToInt(rule.IsAvailable),
		)
		if err != nil {
			return fmt.Errorf("save rule for %s: %w", rule.DayOfWeek, err)
		}
	}
	return nil
}

// FindRules returns the weekly rules ordered by weekday.
func (r *SQLiteLinkRepository) FindRules(ctx context.Context, linkID uuid.UUID) ([]domain.AvailabilityRule, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT day_of_week, start_minute, end_minute, is_available
		FROM availability_rules WHERE link_id = ? ORDER BY day_of_week`, linkID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []domain.AvailabilityRule{}
	for rows.Next() {
		var (
			rule           domain.AvailabilityRule
			day, available int
		)
		if err := rows.Scan(&day, &rule.Window.StartMinute, &rule.Window.EndMinute, &available); err != nil {
			return nil, err
		}
		rule.DayOfWeek = time.Weekday(day)
		rule.IsAvailable = available != 0
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// AddExcludedDate closes bookings on date. Adding a date twice is a no-op.
func (r *SQLiteLinkRepository) AddExcludedDate(ctx context.Context, linkID uuid.UUID, date availabilityDomain.Date) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`INSERT INTO excluded_dates (link_id, date) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		linkID.String(), date.String())
	return err
}

// FindExcludedDates returns the closed dates in ascending order.
func (r *SQLiteLinkRepository) FindExcludedDates(ctx context.Context, linkID uuid.UUID) ([]availabilityDomain.Date, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT date FROM excluded_dates WHERE link_id = ? ORDER BY date`, linkID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := []availabilityDomain.Date{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := availabilityDomain.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
