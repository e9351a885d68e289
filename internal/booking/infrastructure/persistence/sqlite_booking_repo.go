package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteBookingRepository implements domain.BookingRepository using SQLite.
type SQLiteBookingRepository struct {
	conn database.Connection
}

// NewSQLiteBookingRepository creates a new SQLite booking repository.
func NewSQLiteBookingRepository(conn database.Connection) *SQLiteBookingRepository {
	return &SQLiteBookingRepository{conn: conn}
}

// Save inserts a booking or updates its status.
func (r *SQLiteBookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO bookings (id, link_id, start_at, end_at, status, guest_name, guest_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status`,
		b.ID.String(), b.LinkID.String(),
		b.Start.UTC().Format(sqliteTimeLayout), b.End.UTC().Format(sqliteTimeLayout),
		string(b.Status), b.GuestName, b.GuestEmail, b.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("save booking %s: %w", b.ID, err)
	}
	return nil
}

// FindConfirmedInRange returns confirmed bookings of a link intersecting
// [start, end), ordered by start.
func (r *SQLiteBookingRepository) FindConfirmedInRange(ctx context.Context, linkID uuid.UUID, start, end time.Time) ([]domain.Booking, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT id, link_id, start_at, end_at, status, guest_name, guest_email, created_at
		FROM bookings
		WHERE link_id = ? AND status = ? AND start_at < ? AND end_at > ?
		ORDER BY start_at`,
		linkID.String(), string(domain.BookingConfirmed),
		end.UTC().Format(sqliteTimeLayout), start.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		var (
			b                                 domain.Booking
			id, link, from, to, status, added string
		)
		if err := rows.Scan(&id, &link, &from, &to, &status, &b.GuestName, &b.GuestEmail, &added); err != nil {
			return nil, err
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if b.LinkID, err = uuid.Parse(link); err != nil {
			return nil, err
		}
		if b.Start, err = time.Parse(sqliteTimeLayout, from); err != nil {
			return nil, err
		}
		if b.End, err = time.Parse(sqliteTimeLayout, to); err != nil {
			return nil, err
		}
		b.CreatedAt, _ = time.Parse(sqliteTimeLayout, added)
		b.Status = domain.BookingStatus(status)
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
