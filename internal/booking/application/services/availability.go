// Package services holds booking logic shared by queries and commands.
package services

import (
	"context"
	"fmt"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	"github.com/google/uuid"
)

// AvailabilityCalculator loads a link's rules, exclusions and bookings and
// computes what can still be booked on a date.
type AvailabilityCalculator struct {
	links    domain.LinkRepository
	bookings domain.BookingRepository
	now      func() time.Time
}

// NewAvailabilityCalculator creates a calculator. A nil now uses time.Now.
func NewAvailabilityCalculator(links domain.LinkRepository, bookings domain.BookingRepository, now func() time.Time) *AvailabilityCalculator {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityCalculator{links: links, bookings: bookings, now: now}
}

// Now returns the calculator clock.
func (c *AvailabilityCalculator) Now() time.Time {
	return c.now()
}

// ResolveLink finds a link by ID or, when ref is not a UUID, by slug.
func (c *AvailabilityCalculator) ResolveLink(ctx context.Context, ref string) (*domain.Link, error) {
	var (
		link *domain.Link
		err  error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		link, err = c.links.FindByID(ctx, id)
	} else {
		link, err = c.links.FindBySlug(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, domain.ErrLinkNotFound
	}
	return link, nil
}

// ForDate computes the bookable times of link on date. An inactive link has
// nothing bookable.
func (c *AvailabilityCalculator) ForDate(ctx context.Context, link *domain.Link, date availabilityDomain.Date, rank bool) (domain.Availability, error) {
	if !link.Active {
		return domain.Availability{Times: []string{}, Slots: []availabilityDomain.ScoredSlot{}}, nil
	}
	loc, err := link.Location()
	if err != nil {
		return domain.Availability{}, err
	}

	rules, err := c.links.FindRules(ctx, link.ID)
	if err != nil {
		return domain.Availability{}, fmt.Errorf("load rules: %w", err)
	}
	excluded, err := c.links.FindExcludedDates(ctx, link.ID)
	if err != nil {
		return domain.Availability{}, fmt.Errorf("load excluded dates: %w", err)
	}

	// bookings just outside the day still matter through the buffers
	pad := time.Duration(link.BufferBeforeMinutes+link.BufferAfterMinutes) * time.Minute
	from := date.At(loc).Add(-pad)
	to := date.AddDays(1).At(loc).Add(pad)
	booked, err := c.bookings.FindConfirmedInRange(ctx, link.ID, from, to)
	if err != nil {
		return domain.Availability{}, fmt.Errorf("load bookings: %w", err)
	}

	return domain.Generate(domain.GenerateInput{
		Date:       date,
		Rules:      rules,
		Constraint: link.Constraint(excluded),
		Bookings:   domain.ConfirmedRanges(booked),
		Now:        c.now(),
		Location:   loc,
		Rank:       rank,
	})
}
