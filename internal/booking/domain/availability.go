package domain

import (
	"fmt"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
)

// SlotStep is the spacing between candidate booking start times.
const SlotStep = 15 * time.Minute

// TimeLayout renders booking times.
const TimeLayout = "15:04"

// AvailabilityRule opens a window on one weekday.
type AvailabilityRule struct {
	DayOfWeek   time.Weekday
	Window      availabilityDomain.WorkingWindow
	IsAvailable bool
}

// BookingConstraint bundles the limits a booking link places on new bookings.
type BookingConstraint struct {
	SlotDurationMinutes int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	MinNoticeMinutes    int
	MaxBookingsPerDay   *int
	ExcludedDates       map[availabilityDomain.Date]struct{}
}

// Validate checks that durations are usable.
func (c BookingConstraint) Validate() error {
	if c.SlotDurationMinutes <= 0 {
		return fmt.Errorf("%w: slot duration must be positive", ErrInvalidConstraint)
	}
	if c.BufferBeforeMinutes < 0 || c.BufferAfterMinutes < 0 {
		return fmt.Errorf("%w: buffers cannot be negative", ErrInvalidConstraint)
	}
	if c.MinNoticeMinutes < 0 {
		return fmt.Errorf("%w: minimum notice cannot be negative", ErrInvalidConstraint)
	}
	if c.MaxBookingsPerDay != nil && *c.MaxBookingsPerDay < 0 {
		return fmt.Errorf("%w: daily cap cannot be negative", ErrInvalidConstraint)
	}
	return nil
}

// IsExcluded reports whether bookings are closed on date.
func (c BookingConstraint) IsExcluded(date availabilityDomain.Date) bool {
	_, ok := c.ExcludedDates[date]
	return ok
}

func (c BookingConstraint) slotDuration() time.Duration {
	return time.Duration(c.SlotDurationMinutes) * time.Minute
}

func (c BookingConstraint) minNotice() time.Duration {
	return time.Duration(c.MinNoticeMinutes) * time.Minute
}

func (c BookingConstraint) bufferBefore() time.Duration {
	return time.Duration(c.BufferBeforeMinutes) * time.Minute
}

func (c BookingConstraint) bufferAfter() time.Duration {
	return time.Duration(c.BufferAfterMinutes) * time.Minute
}

// GenerateInput is everything Generate needs for one date.
type GenerateInput struct {
	Date       availabilityDomain.Date
	Rules      []AvailabilityRule
	Constraint BookingConstraint
	Bookings   []availabilityDomain.TimeRange
	Now        time.Time
	Location   *time.Location
	Rank       bool
}

// Availability is the bookable set for a date. Times and Slots share order.
type Availability struct {
	Times []string
	Slots []availabilityDomain.ScoredSlot
}

// Empty reports whether nothing can be booked.
func (a Availability) Empty() bool {
	return len(a.Times) == 0
}

func emptyAvailability() Availability {
	return Availability{Times: []string{}, Slots: []availabilityDomain.ScoredSlot{}}
}

// RuleFor returns the rule for weekday, if any.
func RuleFor(rules []AvailabilityRule, weekday time.Weekday) (AvailabilityRule, bool) {
	for _, r := range rules {
		if r.DayOfWeek == weekday {
			return r, true
		}
	}
	return AvailabilityRule{}, false
}

// Generate computes the start times still bookable on a date. Any failed
// date-level check yields an empty result; rejected candidates are dropped
// without a reason.
func Generate(in GenerateInput) (Availability, error) {
	if err := in.Constraint.Validate(); err != nil {
		return Availability{}, err
	}
	if err := availabilityDomain.ValidateRanges(in.Bookings); err != nil {
		return Availability{}, err
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	c := in.Constraint

	if c.IsExcluded(in.Date) {
		return emptyAvailability(), nil
	}
	// nothing on the date can satisfy notice once the date's end is too close
	if in.Date.AddDays(1).At(loc).Sub(in.Now) < c.minNotice() {
		return emptyAvailability(), nil
	}
	if c.MaxBookingsPerDay != nil && bookingsOn(in.Bookings, in.Date, loc) >= *c.MaxBookingsPerDay {
		return emptyAvailability(), nil
	}
	rule, ok := RuleFor(in.Rules, in.Date.Weekday())
	if !ok || !rule.IsAvailable {
		return emptyAvailability(), nil
	}
	if err := rule.Window.Validate(); err != nil {
		return Availability{}, err
	}

	window := rule.Window.On(in.Date, loc)
	duration := c.slotDuration()
	var accepted []availabilityDomain.TimeRange
	for start := window.Start; ; start = start.Add(SlotStep) {
		candidate := availabilityDomain.TimeRange{Start: start, End: start.Add(duration)}
		if candidate.End.After(window.End) {
			break
		}
		if start.Before(in.Now) || start.Sub(in.Now) < c.minNotice() {
			continue
		}
		if ConflictsWithBookings(candidate, in.Bookings, c.bufferBefore(), c.bufferAfter()) {
			continue
		}
		accepted = append(accepted, candidate)
	}

	out := emptyAvailability()
	if len(accepted) == 0 {
		return out, nil
	}

	if in.Rank {
		task := availabilityDomain.Task{DurationMinutes: c.SlotDurationMinutes}
		events := make([]availabilityDomain.TimedItem, 0, len(in.Bookings))
		for i, b := range in.Bookings {
			events = append(events, availabilityDomain.TimedItem{ID: fmt.Sprintf("booking-%d", i), Range: b})
		}
		today := availabilityDomain.DateOf(in.Now.In(loc))
		for _, candidate := range accepted {
			out.Slots = append(out.Slots, availabilityDomain.ScoredSlot{
				Start: candidate.Start,
				End:   candidate.End,
				Score: availabilityDomain.ScoreSlot(candidate, task, events, window, today),
			})
		}
		availabilityDomain.RankSlots(out.Slots)
	} else {
		for _, candidate := range accepted {
			out.Slots = append(out.Slots, availabilityDomain.ScoredSlot{Start: candidate.Start, End: candidate.End})
		}
	}

	for _, s := range out.Slots {
		out.Times = append(out.Times, s.Start.In(loc).Format(TimeLayout))
	}
	return out, nil
}

// ConflictsWithBookings widens the candidate and every booking by the buffers
// and reports whether any pair overlaps.
func ConflictsWithBookings(candidate availabilityDomain.TimeRange, bookings []availabilityDomain.TimeRange, bufferBefore, bufferAfter time.Duration) bool {
	padded := candidate.Expand(bufferBefore, bufferAfter)
	for _, b := range bookings {
		if padded.Overlaps(b.Expand(bufferBefore, bufferAfter)) {
			return true
		}
	}
	return false
}

func bookingsOn(bookings []availabilityDomain.TimeRange, date availabilityDomain.Date, loc *time.Location) int {
	n := 0
	for _, b := range bookings {
		if availabilityDomain.DateOf(b.Start.In(loc)) == date {
			n++
		}
	}
	return n
}
