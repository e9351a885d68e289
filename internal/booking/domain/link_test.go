package domain

import (
	"testing"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLink(t *testing.T) {
	userID := uuid.New()

	t.Run("defaults", func(t *testing.T) {
		link, err := NewLink(userID, " intro ", "Intro call", 30, "")
		require.NoError(t, err)
		assert.Equal(t, "intro", link.Slug)
		assert.Equal(t, "UTC", link.Timezone)
		assert.True(t, link.Active)
		assert.NotEqual(t, uuid.Nil, link.ID)
	})

	t.Run("empty slug", func(t *testing.T) {
		_, err := NewLink(userID, "  ", "x", 30, "UTC")
		assert.ErrorIs(t, err, ErrLinkEmptySlug)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		_, err := NewLink(userID, "intro", "x", 0, "UTC")
		assert.ErrorIs(t, err, ErrInvalidConstraint)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		_, err := NewLink(userID, "intro", "x", 30, "Mars/Olympus_Mons")
		assert.ErrorIs(t, err, ErrInvalidTimezone)
	})
}

func TestLink_Constraint(t *testing.T) {
	limit := 3
	link := &Link{
		Slug:                "intro",
		DurationMinutes:     45,
		BufferBeforeMinutes: 5,
		BufferAfterMinutes:  10,
		MinNoticeMinutes:    120,
		MaxPerDay:           &limit,
		Timezone:            "UTC",
	}
	holiday := availabilityDomain.NewDate(2024, time.December, 25)

	c := link.Constraint([]availabilityDomain.Date{holiday})
	assert.Equal(t, 45, c.SlotDurationMinutes)
	assert.Equal(t, 5, c.BufferBeforeMinutes)
	assert.Equal(t, 10, c.BufferAfterMinutes)
	assert.Equal(t, 120, c.MinNoticeMinutes)
	assert.Equal(t, &limit, c.MaxBookingsPerDay)
	assert.True(t, c.IsExcluded(holiday))
	assert.False(t, c.IsExcluded(holiday.AddDays(1)))
}

func TestConfirmedRanges(t *testing.T) {
	bookings := []Booking{
		{Start: mondayAt(9, 0), End: mondayAt(9, 30), Status: BookingConfirmed},
		{Start: mondayAt(10, 0), End: mondayAt(10, 30), Status: BookingCancelled},
	}
	assert.Equal(t, []availabilityDomain.TimeRange{span(9, 0, 9, 30)}, ConfirmedRanges(bookings))
}
