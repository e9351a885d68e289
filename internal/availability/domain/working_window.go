package domain

import (
	"errors"
	"fmt"
	"time"
)

// MinutesPerDay is the number of minutes in a calendar day.
const MinutesPerDay = 1440

var ErrInvalidWorkingWindow = errors.New("working window must satisfy 0 <= start < end <= 1440")

// WorkingWindow is a daily window expressed in minutes after midnight.
type WorkingWindow struct {
	StartMinute int
	EndMinute   int
}

// NewWorkingWindow creates a validated working window.
func NewWorkingWindow(startMinute, endMinute int) (WorkingWindow, error) {
	w := WorkingWindow{StartMinute: startMinute, EndMinute: endMinute}
	if err := w.Validate(); err != nil {
		return WorkingWindow{}, err
	}
	return w, nil
}

// ParseWorkingWindow builds a window from two HH:MM strings.
func ParseWorkingWindow(start, end string) (WorkingWindow, error) {
	s, err := ParseClock(start)
	if err != nil {
		return WorkingWindow{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return WorkingWindow{}, err
	}
	if e == 0 && s > 0 {
		e = MinutesPerDay
	}
	return NewWorkingWindow(s, e)
}

// Validate checks the window bounds.
func (w WorkingWindow) Validate() error {
	if w.StartMinute < 0 || w.StartMinute >= MinutesPerDay ||
		w.EndMinute <= 0 || w.EndMinute > MinutesPerDay ||
		w.StartMinute >= w.EndMinute {
		return ErrInvalidWorkingWindow
	}
	return nil
}

// Minutes returns the window length in minutes.
func (w WorkingWindow) Minutes() int {
	return w.EndMinute - w.StartMinute
}

// On returns the absolute range the window covers on date in loc.
func (w WorkingWindow) On(date Date, loc *time.Location) TimeRange {
	if loc == nil {
		loc = time.UTC
	}
	// wall-clock construction keeps the window stable across DST shifts
	return TimeRange{
		Start: time.Date(date.Year, date.Month, date.Day, 0, w.StartMinute, 0, 0, loc),
		End:   time.Date(date.Year, date.Month, date.Day, 0, w.EndMinute, 0, 0, loc),
	}
}

func (w WorkingWindow) String() string {
	return FormatClock(w.StartMinute) + "-" + FormatClock(w.EndMinute)
}

// ParseClock parses HH:MM into minutes after midnight. "24:00" is accepted.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q, use HH:MM: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinuteOfDay returns the wall-clock minute of t in t's location, so 10:00
// is 600 even on a day with a DST transition.
func MinuteOfDay(t time.Time) float64 {
	seconds := float64(t.Second()) + float64(t.Nanosecond())/1e9
	return float64(t.Hour()*60+t.Minute()) + seconds/60
}
