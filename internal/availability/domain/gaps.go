package domain

import "time"

// GapResult holds the free intervals inside a bound.
type GapResult struct {
	Gaps  []TimeRange
	Total time.Duration
}

// TotalMinutes returns the free time in minutes.
func (g GapResult) TotalMinutes() float64 {
	return g.Total.Minutes()
}

// AverageMinutes returns the mean gap length, 0 when there are no gaps.
func (g GapResult) AverageMinutes() float64 {
	if len(g.Gaps) == 0 {
		return 0
	}
	return g.TotalMinutes() / float64(len(g.Gaps))
}

// LongestMinutes returns the length of the longest gap, 0 when there are none.
func (g GapResult) LongestMinutes() float64 {
	var longest time.Duration
	for _, gap := range g.Gaps {
		if d := gap.Duration(); d > longest {
			longest = d
		}
	}
	return longest.Minutes()
}

// FindGaps returns the complement of merged (sorted, non-overlapping) inside bound.
func FindGaps(merged []TimeRange, bound TimeRange) (GapResult, error) {
	if err := bound.Validate(); err != nil {
		return GapResult{}, err
	}
	if err := ValidateRanges(merged); err != nil {
		return GapResult{}, err
	}

	result := GapResult{Gaps: []TimeRange{}}
	add := func(start, end time.Time) {
		// clipping artifacts can produce empty or inverted candidates
		if !end.After(start) {
			return
		}
		gap := TimeRange{Start: start, End: end}
		result.Gaps = append(result.Gaps, gap)
		result.Total += gap.Duration()
	}

	if len(merged) == 0 {
		add(bound.Start, bound.End)
		return result, nil
	}

	if merged[0].Start.After(bound.Start) {
		add(bound.Start, minTime(merged[0].Start, bound.End))
	}
	for i := 1; i < len(merged); i++ {
		add(maxTime(merged[i-1].End, bound.Start), minTime(merged[i].Start, bound.End))
	}
	last := merged[len(merged)-1]
	if last.End.Before(bound.End) {
		add(maxTime(last.End, bound.Start), bound.End)
	}
	return result, nil
}

// FreeTime merges items within bound and returns the gaps around them.
func FreeTime(items []TimedItem, bound TimeRange) (MergeResult, GapResult, error) {
	merged, err := MergeItems(items, &bound)
	if err != nil {
		return MergeResult{}, GapResult{}, err
	}
	gaps, err := FindGaps(merged.Intervals, bound)
	if err != nil {
		return MergeResult{}, GapResult{}, err
	}
	return merged, gaps, nil
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
