// Package ics imports iCalendar files as calendar events.
package ics

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/felixgeelhaar/planwise/internal/availability/domain"
)

const (
	dateLayout = "20060102"

	propRecurrenceID = ical.ComponentProperty("RECURRENCE-ID")
	propCategories   = ical.ComponentProperty("CATEGORIES")
	propStatus       = ical.ComponentProperty("STATUS")
	propTransparency = ical.ComponentProperty("TRANSP")
)

var ErrMissingUID = errors.New("VEVENT has no UID")

// Decoder converts VEVENTs into domain events. Cancelled, transparent and
// overriding instances are skipped; a VEVENT that cannot be read is logged
// and skipped.
type Decoder struct {
	loc    *time.Location
	logger *slog.Logger
}

// NewDecoder creates a decoder. Floating and all-day times are read in loc.
func NewDecoder(loc *time.Location, logger *slog.Logger) *Decoder {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{loc: loc, logger: logger}
}

// Decode parses a calendar stream.
func (d *Decoder) Decode(r io.Reader, userID uuid.UUID) ([]domain.Event, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	events := []domain.Event{}
	for _, ve := range cal.Events() {
		if skip(ve) {
			continue
		}
		e, err := d.event(ve, userID)
		if err != nil {
			d.logger.Warn("skipping calendar entry", "error", err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func skip(ve *ical.VEvent) bool {
	if ve.GetProperty(propRecurrenceID) != nil {
		return true
	}
	if p := ve.GetProperty(propStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
		return true
	}
	if p := ve.GetProperty(propTransparency); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		return true
	}
	return false
}

func (d *Decoder) event(ve *ical.VEvent, userID uuid.UUID) (domain.Event, error) {
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return domain.Event{}, ErrMissingUID
	}
	e := domain.Event{ID: strings.TrimSpace(uid.Value), UserID: userID}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		e.Title = p.Value
	}
	if p := ve.GetProperty(propCategories); p != nil {
		first, _, _ := strings.Cut(p.Value, ",")
		e.CategoryID = strings.ToLower(strings.TrimSpace(first))
	}

	if err := d.times(ve, &e); err != nil {
		return domain.Event{}, fmt.Errorf("%s: %w", e.ID, err)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		e.RecurrenceRule = p.Value
		e.RecurrenceEnd = seriesEnd(p.Value, e.Start)
	}
	return e, nil
}

func (d *Decoder) times(ve *ical.VEvent, e *domain.Event) error {
	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return errors.New("missing DTSTART")
	}

	if isDate(dtStart) {
		start, err := time.ParseInLocation(dateLayout, dtStart.Value, d.loc)
		if err != nil {
			return fmt.Errorf("parse DTSTART: %w", err)
		}
		e.AllDay = true
		e.Start = start
		e.End = start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := time.ParseInLocation(dateLayout, dtEnd.Value, d.loc); err == nil && end.After(start) {
				e.End = end
			}
		}
		return nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return fmt.Errorf("parse DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil || end.Before(start) {
		end = start
	}
	e.Start, e.End = start, end
	return nil
}

func isDate(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// seriesEnd returns the start of the last occurrence of a bounded series, or
// nil when the series is unbounded or the rule cannot be read.
func seriesEnd(rule string, first time.Time) *time.Time {
	opt, err := domain.ParseRule(rule)
	if err != nil {
		return nil
	}
	if !opt.Until.IsZero() {
		until := opt.Until
		return &until
	}
	if opt.Count == 0 {
		return nil
	}
	opt.Dtstart = first
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil
	}
	all := r.All()
	if len(all) == 0 {
		return nil
	}
	last := all[len(all)-1]
	return &last
}
