package persistence

import (
	"context"
	"fmt"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresLinkRepository implements domain.LinkRepository using PostgreSQL.
type PostgresLinkRepository struct {
	conn database.Connection
}

// NewPostgresLinkRepository creates a new PostgreSQL link repository.
func NewPostgresLinkRepository(conn database.Connection) *PostgresLinkRepository {
	return &PostgresLinkRepository{conn: conn}
}

// Save inserts or updates a link.
func (r *PostgresLinkRepository) Save(ctx context.Context, l *domain.Link) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO booking_links (`+linkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			title = EXCLUDED.title,
			duration_minutes = EXCLUDED.duration_minutes,
			buffer_before_minutes = EXCLUDED.buffer_before_minutes,
			buffer_after_minutes = EXCLUDED.buffer_after_minutes,
			min_notice_minutes = EXCLUDED.min_notice_minutes,
			max_per_day = EXCLUDED.max_per_day,
			timezone = EXCLUDED.timezone,
			active = EXCLUDED.active,
			updated_at = NOW()`,
		l.ID, l.UserID, l.Slug, l.Title, l.DurationMinutes, l.BufferBeforeMinutes,
		l.BufferAfterMinutes, l.MinNoticeMinutes, l.MaxPerDay, l.Timezone, l.Active, l.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save booking link %s: %w", l.Slug, err)
	}
	return nil
}

// FindByID retrieves a link.
func (r *PostgresLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Link, error) {
	return r.findOne(ctx, `SELECT `+linkColumns+` FROM booking_links WHERE id = $1`, id)
}

// FindBySlug retrieves a link by its public slug.
func (r *PostgresLinkRepository) FindBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	return r.findOne(ctx, `SELECT `+linkColumns+` FROM booking_links WHERE slug = $1`, slug)
}

func (r *PostgresLinkRepository) findOne(ctx context.Context, query string, arg any) (*domain.Link, error) {
	var l domain.Link
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, arg).Scan(
		&l.ID, &l.UserID, &l.Slug, &l.Title, &l.DurationMinutes, &l.BufferBeforeMinutes,
		&l.BufferAfterMinutes, &l.MinNoticeMinutes, &l.MaxPerDay, &l.Timezone, &l.Active,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}
	return &l, nil
}

// SaveRules replaces the weekly rules of a link.
func (r *PostgresLinkRepository) SaveRules(ctx context.Context, linkID uuid.UUID, rules []domain.AvailabilityRule) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	if _, err := exec.Exec(ctx, `DELETE FROM availability_rules WHERE link_id = $1`, linkID); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	for _, rule := range rules {
		_, err := exec.Exec(ctx, `
			INSERT INTO availability_rules (link_id, day_of_week, start_minute, end_minute, is_available)
			VALUES ($1, $2, $3, $4, $5)`,
			linkID, int(rule.DayOfWeek), rule.Window.StartMinute, rule.Window.EndMinute, rule.IsAvailable,
		)
		if err != nil {
			return fmt.Errorf("save rule for %s: %w", rule.DayOfWeek, err)
		}
	}
	return nil
}

// FindRules returns the weekly rules ordered by weekday.
func (r *PostgresLinkRepository) FindRules(ctx context.Context, linkID uuid.UUID) ([]domain.AvailabilityRule, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT day_of_week, start_minute, end_minute, is_available
		FROM availability_rules WHERE link_id = $1 ORDER BY day_of_week`, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []domain.AvailabilityRule{}
	for rows.Next() {
		var (
			rule domain.AvailabilityRule
			day  int
		)
		if err := rows.Scan(&day, &rule.Window.StartMinute, &rule.Window.EndMinute, &rule.IsAvailable); err != nil {
			return nil, err
		}
		rule.DayOfWeek = time.Weekday(day)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// AddExcludedDate closes bookings on date. Adding a date twice is a no-op.
func (r *PostgresLinkRepository) AddExcludedDate(ctx context.Context, linkID uuid.UUID, date availabilityDomain.Date) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`INSERT INTO excluded_dates (link_id, date) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		linkID, date.At(time.UTC))
	return err
}

// FindExcludedDates returns the closed dates in ascending order.
func (r *PostgresLinkRepository) FindExcludedDates(ctx context.Context, linkID uuid.UUID) ([]availabilityDomain.Date, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT date FROM excluded_dates WHERE link_id = $1 ORDER BY date`, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := []availabilityDomain.Date{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		dates = append(dates, availabilityDomain.DateOf(t.UTC()))
	}
	return dates, rows.Err()
}
