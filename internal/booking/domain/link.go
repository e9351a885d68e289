package domain

import (
	"errors"
	"strings"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/google/uuid"
)

var (
	ErrLinkNotFound      = errors.New("booking link not found")
	ErrLinkEmptySlug     = errors.New("booking link slug cannot be empty")
	ErrLinkInactive      = errors.New("booking link is inactive")
	ErrInvalidConstraint = errors.New("invalid booking constraint")
	ErrInvalidTimezone   = errors.New("invalid booking link timezone")
)

// Link is a public booking page configuration.
type Link struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	Slug                string
	Title               string
	DurationMinutes     int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	MinNoticeMinutes    int
	MaxPerDay           *int
	Timezone            string
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewLink creates an active booking link.
func NewLink(userID uuid.UUID, slug, title string, durationMinutes int, timezone string) (*Link, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrLinkEmptySlug
	}
	if timezone == "" {
		timezone = "UTC"
	}
	now := time.Now().UTC()
	link := &Link{
		ID:              uuid.New(),
		UserID:          userID,
		Slug:            slug,
		Title:           strings.TrimSpace(title),
		DurationMinutes: durationMinutes,
		Timezone:        timezone,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := link.Validate(); err != nil {
		return nil, err
	}
	return link, nil
}

// Validate checks durations and the timezone.
func (l *Link) Validate() error {
	if l.Slug == "" {
		return ErrLinkEmptySlug
	}
	if _, err := l.Location(); err != nil {
		return err
	}
	return l.Constraint(nil).Validate()
}

// Location resolves the link timezone.
func (l *Link) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, errors.Join(ErrInvalidTimezone, err)
	}
	return loc, nil
}

// Constraint returns the booking constraint the link imposes.
func (l *Link) Constraint(excluded []availabilityDomain.Date) BookingConstraint {
	c := BookingConstraint{
		SlotDurationMinutes: l.DurationMinutes,
		BufferBeforeMinutes: l.BufferBeforeMinutes,
		BufferAfterMinutes:  l.BufferAfterMinutes,
		MinNoticeMinutes:    l.MinNoticeMinutes,
		MaxBookingsPerDay:   l.MaxPerDay,
		ExcludedDates:       make(map[availabilityDomain.Date]struct{}, len(excluded)),
	}
	for _, d := range excluded {
		c.ExcludedDates[d] = struct{}{}
	}
	return c
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a reserved slot on a link.
type Booking struct {
	ID         uuid.UUID
	LinkID     uuid.UUID
	Start      time.Time
	End        time.Time
	Status     BookingStatus
	GuestName  string
	GuestEmail string
	CreatedAt  time.Time
}

// IsConfirmed reports whether the booking blocks time.
func (b Booking) IsConfirmed() bool {
	return b.Status == BookingConfirmed
}

// Range returns the booked interval.
func (b Booking) Range() availabilityDomain.TimeRange {
	return availabilityDomain.TimeRange{Start: b.Start, End: b.End}
}

// ConfirmedRanges returns the intervals of confirmed bookings.
func ConfirmedRanges(bookings []Booking) []availabilityDomain.TimeRange {
	out := make([]availabilityDomain.TimeRange, 0, len(bookings))
	for _, b := range bookings {
		if b.IsConfirmed() {
			out = append(out, b.Range())
		}
	}
	return out
}
