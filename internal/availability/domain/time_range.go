package domain

import (
	"errors"
	"time"
)

// ErrInvalidInterval is returned when an interval ends before it starts.
var ErrInvalidInterval = errors.New("interval end must not be before start")

// TimeRange represents a time period with start and end.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange creates a validated time range.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	r := TimeRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

// Validate checks the start <= end invariant.
func (t TimeRange) Validate() error {
	if t.End.Before(t.Start) {
		return ErrInvalidInterval
	}
	return nil
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Minutes returns the duration in whole and fractional minutes.
func (t TimeRange) Minutes() float64 {
	return t.Duration().Minutes()
}

// Overlaps checks if two time ranges overlap. Touching ranges do not overlap.
func (t TimeRange) Overlaps(other TimeRange) bool {
	return t.Start.Before(other.End) && other.Start.Before(t.End)
}

// Contains reports whether other lies fully inside t, bounds inclusive.
func (t TimeRange) Contains(other TimeRange) bool {
	return !other.Start.Before(t.Start) && !other.End.After(t.End)
}

// Clip returns t restricted to bound. The second result is false when
// nothing of positive length remains.
func (t TimeRange) Clip(bound TimeRange) (TimeRange, bool) {
	start := t.Start
	if start.Before(bound.Start) {
		start = bound.Start
	}
	end := t.End
	if end.After(bound.End) {
		end = bound.End
	}
	if !end.After(start) {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}

// Expand widens the range by before and after.
func (t TimeRange) Expand(before, after time.Duration) TimeRange {
	return TimeRange{Start: t.Start.Add(-before), End: t.End.Add(after)}
}

// ValidateRanges checks every range and returns the first violation.
func ValidateRanges(ranges []TimeRange) error {
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
