package domain

import (
	"sort"
	"time"
)

// MergeResult is the minimal sorted, non-overlapping cover of a set of intervals.
type MergeResult struct {
	Intervals []TimeRange
	Total     time.Duration
}

// TotalMinutes returns the covered duration in minutes.
func (m MergeResult) TotalMinutes() float64 {
	return m.Total.Minutes()
}

// Merge collapses overlapping and touching intervals. When clipTo is set,
// every interval is first restricted to it and empty remainders are dropped.
func Merge(intervals []TimeRange, clipTo *TimeRange) (MergeResult, error) {
	if err := ValidateRanges(intervals); err != nil {
		return MergeResult{}, err
	}
	if clipTo != nil {
		if err := clipTo.Validate(); err != nil {
			return MergeResult{}, err
		}
	}

	work := make([]TimeRange, 0, len(intervals))
	for _, r := range intervals {
		if clipTo != nil {
			clipped, ok := r.Clip(*clipTo)
			if !ok {
				continue
			}
			r = clipped
		}
		work = append(work, r)
	}

	result := MergeResult{Intervals: []TimeRange{}}
	if len(work) == 0 {
		return result, nil
	}

	sort.SliceStable(work, func(i, j int) bool {
		return work[i].Start.Before(work[j].Start)
	})

	current := work[0]
	for _, next := range work[1:] {
		// touching intervals merge so no zero-length gap is reported as free
		if !next.Start.After(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		result.Intervals = append(result.Intervals, current)
		current = next
	}
	result.Intervals = append(result.Intervals, current)

	for _, r := range result.Intervals {
		result.Total += r.Duration()
	}
	return result, nil
}

// MergeItems merges the ranges of timed items.
func MergeItems(items []TimedItem, clipTo *TimeRange) (MergeResult, error) {
	return Merge(itemRanges(items), clipTo)
}
