package domain

import (
	"context"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/google/uuid"
)

// LinkRepository stores booking links with their rules and excluded dates.
type LinkRepository interface {
	Save(ctx context.Context, link *Link) error
	FindByID(ctx context.Context, id uuid.UUID) (*Link, error)
	FindBySlug(ctx context.Context, slug string) (*Link, error)
	SaveRules(ctx context.Context, linkID uuid.UUID, rules []AvailabilityRule) error
	FindRules(ctx context.Context, linkID uuid.UUID) ([]AvailabilityRule, error)
	AddExcludedDate(ctx context.Context, linkID uuid.UUID, date availabilityDomain.Date) error
	FindExcludedDates(ctx context.Context, linkID uuid.UUID) ([]availabilityDomain.Date, error)
}

// BookingRepository stores bookings.
type BookingRepository interface {
	Save(ctx context.Context, booking *Booking) error
	FindConfirmedInRange(ctx context.Context, linkID uuid.UUID, start, end time.Time) ([]Booking, error)
}
