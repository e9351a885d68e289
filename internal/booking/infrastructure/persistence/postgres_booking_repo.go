package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresBookingRepository implements domain.BookingRepository using PostgreSQL.
type PostgresBookingRepository struct {
	conn database.Connection
}

// NewPostgresBookingRepository creates a new PostgreSQL booking repository.
func NewPostgresBookingRepository(conn database.Connection) *PostgresBookingRepository {
	return &PostgresBookingRepository{conn: conn}
}

// Save inserts a booking or updates its status.
func (r *PostgresBookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO bookings (id, link_id, start_at, end_at, status, guest_name, guest_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
		b.ID, b.LinkID, b.Start.UTC(), b.End.UTC(), string(b.Status), b.GuestName, b.GuestEmail, b.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save booking %s: %w", b.ID, err)
	}
	return nil
}

// FindConfirmedInRange returns confirmed bookings of a link intersecting
// [start, end), ordered by start.
func (r *PostgresBookingRepository) FindConfirmedInRange(ctx context.Context, linkID uuid.UUID, start, end time.Time) ([]domain.Booking, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT id, link_id, start_at, end_at, status, guest_name, guest_email, created_at
		FROM bookings
		WHERE link_id = $1 AND status = $2 AND start_at < $3 AND end_at > $4
		ORDER BY start_at`,
		linkID, string(domain.BookingConfirmed), end.UTC(), start.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		var (
			b      domain.Booking
			status string
		)
		if err := rows.Scan(&b.ID, &b.LinkID, &b.Start, &b.End, &status, &b.GuestName, &b.GuestEmail, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Status = domain.BookingStatus(status)
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
