package domain

import (
	"sort"
	"time"
)

// DeepWorkMinGap is the shortest free gap counted as deep-work capacity.
const DeepWorkMinGap = 60 * time.Minute

// CategoryTime is the time spent in one category.
type CategoryTime struct {
	CategoryID string
	Minutes    float64
	Percent    float64
}

// DaySummary describes how one working day is used.
type DaySummary struct {
	Date               Date
	WorkingMinutes     float64
	BusyMinutes        float64
	FreeMinutes        float64
	BusyRatio          float64
	MeetingMinutes     float64
	MeetingLoadPercent float64
	FocusMinutes       float64
	DeepWorkMinutes    float64
	GapCount           int
	AverageGapMinutes  float64
	LongestGapMinutes  float64
	EventCount         int
	Busy               []TimeRange
	Gaps               []TimeRange
	Categories         []CategoryTime
}

// SummarizeDay composes Merge and FindGaps over one day's items.
func SummarizeDay(date Date, items []TimedItem, window TimeRange) (DaySummary, error) {
	if err := validateItems(items); err != nil {
		return DaySummary{}, err
	}
	merged, gaps, err := FreeTime(items, window)
	if err != nil {
		return DaySummary{}, err
	}

	var meetings, focus []TimedItem
	count := 0
	for _, item := range items {
		if _, ok := item.Range.Clip(window); ok {
			count++
		}
		if item.IsMeeting {
			meetings = append(meetings, item)
		}
		if item.IsFocusTime {
			focus = append(focus, item)
		}
	}
	meetingMerged, err := MergeItems(meetings, &window)
	if err != nil {
		return DaySummary{}, err
	}
	focusMerged, err := MergeItems(focus, &window)
	if err != nil {
		return DaySummary{}, err
	}

	var deepWork time.Duration
	for _, gap := range gaps.Gaps {
		if gap.Duration() >= DeepWorkMinGap {
			deepWork += gap.Duration()
		}
	}

	working := window.Minutes()
	s := DaySummary{
		Date:              date,
		WorkingMinutes:    working,
		BusyMinutes:       merged.TotalMinutes(),
		FreeMinutes:       gaps.TotalMinutes(),
		MeetingMinutes:    meetingMerged.TotalMinutes(),
		FocusMinutes:      focusMerged.TotalMinutes(),
		DeepWorkMinutes:   deepWork.Minutes(),
		GapCount:          len(gaps.Gaps),
		AverageGapMinutes: gaps.AverageMinutes(),
		LongestGapMinutes: gaps.LongestMinutes(),
		EventCount:        count,
		Busy:              merged.Intervals,
		Gaps:              gaps.Gaps,
		Categories:        categoryBreakdown(items, window),
	}
	if working > 0 {
		s.BusyRatio = s.BusyMinutes / working
		s.MeetingLoadPercent = s.MeetingMinutes / working * 100
	}
	return s, nil
}

func categoryBreakdown(items []TimedItem, window TimeRange) []CategoryTime {
	byCategory := make(map[string][]TimedItem)
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	out := make([]CategoryTime, 0, len(byCategory))
	var total float64
	for id, group := range byCategory {
		merged, err := MergeItems(group, &window)
		if err != nil || merged.Total == 0 {
			continue
		}
		out = append(out, CategoryTime{CategoryID: id, Minutes: merged.TotalMinutes()})
		total += merged.TotalMinutes()
	}
	for i := range out {
		if total > 0 {
			out[i].Percent = out[i].Minutes / total * 100
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// WeekSummary aggregates consecutive day summaries.
type WeekSummary struct {
	StartDate          Date
	Days               []DaySummary
	WorkingMinutes     float64
	BusyMinutes        float64
	MeetingMinutes     float64
	FocusMinutes       float64
	DeepWorkMinutes    float64
	AverageBusyRatio   float64
	MeetingLoadPercent float64
	BusiestDay         *Date
	Categories         []CategoryTime
}

// SummarizeWeek aggregates day summaries in date order.
func SummarizeWeek(days []DaySummary) WeekSummary {
	sorted := make([]DaySummary, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	w := WeekSummary{Days: sorted}
	if len(sorted) == 0 {
		return w
	}
	w.StartDate = sorted[0].Date

	categories := make(map[string]float64)
	var ratioSum, busiest float64
	for i, d := range sorted {
		w.WorkingMinutes += d.WorkingMinutes
		w.BusyMinutes += d.BusyMinutes
		w.MeetingMinutes += d.MeetingMinutes
		w.FocusMinutes += d.FocusMinutes
		w.DeepWorkMinutes += d.DeepWorkMinutes
		ratioSum += d.BusyRatio
		if d.BusyMinutes > busiest {
			busiest = d.BusyMinutes
			w.BusiestDay = &sorted[i].Date
		}
		for _, c := range d.Categories {
			categories[c.CategoryID] += c.Minutes
		}
	}
	w.AverageBusyRatio = ratioSum / float64(len(sorted))
	if w.WorkingMinutes > 0 {
		w.MeetingLoadPercent = w.MeetingMinutes / w.WorkingMinutes * 100
	}

	var total float64
	for _, m := range categories {
		total += m
	}
	for id, m := range categories {
		w.Categories = append(w.Categories, CategoryTime{CategoryID: id, Minutes: m, Percent: m / total * 100})
	}
	sort.Slice(w.Categories, func(i, j int) bool {
		if w.Categories[i].Minutes != w.Categories[j].Minutes {
			return w.Categories[i].Minutes > w.Categories[j].Minutes
		}
		return w.Categories[i].CategoryID < w.Categories[j].CategoryID
	})
	return w
}
