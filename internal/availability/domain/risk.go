package domain

import "sort"

// RiskType identifies a scheduling risk pattern.
type RiskType string

const (
	RiskOverbooked RiskType = "overbooked"
	RiskBackToBack RiskType = "back_to_back"
	RiskNoBreak    RiskType = "no_break"
	RiskOverlap    RiskType = "overlap"
	RiskTask       RiskType = "task_risk"
)

// ParseRiskType validates a risk type name.
func ParseRiskType(s string) (RiskType, bool) {
	switch t := RiskType(s); t {
	case RiskOverbooked, RiskBackToBack, RiskNoBreak, RiskOverlap, RiskTask:
		return t, true
	}
	return "", false
}

// Severity grades a finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskFinding is a derived fact about one day's schedule.
type RiskFinding struct {
	Type        RiskType
	Severity    Severity
	AffectedIDs []string
	// Value is the measurement that triggered the finding: a ratio for
	// overbooked, a pair count for back_to_back, the longest gap in minutes
	// for no_break, the overlapping pair count for overlap, and the missing
	// minutes for task_risk.
	Value float64
}

// RiskThresholds consolidates every tunable used by DetectRisks.
type RiskThresholds struct {
	OverbookedRatio             float64
	OverbookedHighRatio         float64
	BackToBackGapMinutes        float64
	BackToBackMinCount          int
	BackToBackHighCount         int
	NoBreakGapMinutes           float64
	NoBreakMinScheduledMinutes  float64
	NoBreakHighScheduledMinutes float64
	DefaultTaskMinutes          int
}

// DefaultRiskThresholds returns the standard thresholds.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		OverbookedRatio:             0.85,
		OverbookedHighRatio:         0.95,
		BackToBackGapMinutes:        10,
		BackToBackMinCount:          2,
		BackToBackHighCount:         4,
		NoBreakGapMinutes:           30,
		NoBreakMinScheduledMinutes:  240,
		NoBreakHighScheduledMinutes: 360,
		DefaultTaskMinutes:          DefaultTaskMinutes,
	}
}

// RiskInput is everything DetectRisks needs for one day.
type RiskInput struct {
	Events     []TimedItem
	Tasks      []Task
	Window     TimeRange
	Today      Date
	Thresholds RiskThresholds
}

// DetectRisks evaluates every risk rule against the day. Rules are independent
// and findings are returned in a fixed order.
func DetectRisks(in RiskInput) ([]RiskFinding, error) {
	if err := in.Window.Validate(); err != nil {
		return nil, err
	}
	if err := validateItems(in.Events); err != nil {
		return nil, err
	}

	merged, gaps, err := FreeTime(in.Events, in.Window)
	if err != nil {
		return nil, err
	}

	events := sortedItems(in.Events)
	th := in.Thresholds
	findings := []RiskFinding{}

	if f, ok := checkOverbooked(events, merged, in.Window, th); ok {
		findings = append(findings, f)
	}
	if f, ok := checkBackToBack(events, th); ok {
		findings = append(findings, f)
	}
	if f, ok := checkNoBreak(events, merged, gaps, in.Window, th); ok {
		findings = append(findings, f)
	}
	if f, ok := checkOverlap(events); ok {
		findings = append(findings, f)
	}
	if f, ok := checkTaskRisk(in.Tasks, gaps, in.Today, th); ok {
		findings = append(findings, f)
	}
	return findings, nil
}

func checkOverbooked(events []TimedItem, merged MergeResult, window TimeRange, th RiskThresholds) (RiskFinding, bool) {
	windowMinutes := window.Minutes()
	if windowMinutes <= 0 {
		return RiskFinding{}, false
	}
	ratio := merged.TotalMinutes() / windowMinutes
	if ratio <= th.OverbookedRatio {
		return RiskFinding{}, false
	}
	severity := SeverityMedium
	if ratio > th.OverbookedHighRatio {
		severity = SeverityHigh
	}
	return RiskFinding{
		Type:        RiskOverbooked,
		Severity:    severity,
		AffectedIDs: idsWithin(events, window),
		Value:       ratio,
	}, true
}

func checkBackToBack(events []TimedItem, th RiskThresholds) (RiskFinding, bool) {
	affected := newIDSet()
	count := 0
	for i := 1; i < len(events); i++ {
		gap := events[i].Range.Start.Sub(events[i-1].Range.End).Minutes()
		// overlapping pairs have a negative gap and belong to the overlap rule
		if gap >= 0 && gap < th.BackToBackGapMinutes {
			count++
			affected.add(events[i-1].ID)
			affected.add(events[i].ID)
		}
	}
	if count < th.BackToBackMinCount || count == 0 {
		return RiskFinding{}, false
	}
	severity := SeverityMedium
	if count >= th.BackToBackHighCount {
		severity = SeverityHigh
	}
	return RiskFinding{
		Type:        RiskBackToBack,
		Severity:    severity,
		AffectedIDs: affected.ids,
		Value:       float64(count),
	}, true
}

func checkNoBreak(events []TimedItem, merged MergeResult, gaps GapResult, window TimeRange, th RiskThresholds) (RiskFinding, bool) {
	scheduled := merged.TotalMinutes()
	maxGap := gaps.LongestMinutes()
	if maxGap >= th.NoBreakGapMinutes || scheduled <= th.NoBreakMinScheduledMinutes {
		return RiskFinding{}, false
	}
	severity := SeverityMedium
	if scheduled > th.NoBreakHighScheduledMinutes {
		severity = SeverityHigh
	}
	return RiskFinding{
		Type:        RiskNoBreak,
		Severity:    severity,
		AffectedIDs: idsWithin(events, window),
		Value:       maxGap,
	}, true
}

func checkOverlap(events []TimedItem) (RiskFinding, bool) {
	affected := newIDSet()
	pairs := 0
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			a, b := events[i].Range, events[j].Range
			if a.Start.Before(b.End) && a.End.After(b.Start) {
				pairs++
				affected.add(events[i].ID)
				affected.add(events[j].ID)
			}
		}
	}
	if pairs == 0 {
		return RiskFinding{}, false
	}
	return RiskFinding{
		Type:        RiskOverlap,
		Severity:    SeverityHigh,
		AffectedIDs: affected.ids,
		Value:       float64(pairs),
	}, true
}

func checkTaskRisk(tasks []Task, gaps GapResult, today Date, th RiskThresholds) (RiskFinding, bool) {
	affected := newIDSet()
	required := 0
	for _, task := range tasks {
		if task.IsCompleted() || !task.IsOverdue(today) {
			continue
		}
		minutes := task.DurationMinutes
		if minutes <= 0 {
			minutes = th.DefaultTaskMinutes
		}
		required += minutes
		affected.add(task.ID)
	}
	free := gaps.TotalMinutes()
	if len(affected.ids) == 0 || float64(required) <= free {
		return RiskFinding{}, false
	}
	return RiskFinding{
		Type:        RiskTask,
		Severity:    SeverityHigh,
		AffectedIDs: affected.ids,
		Value:       float64(required) - free,
	}, true
}

func sortedItems(items []TimedItem) []TimedItem {
	out := make([]TimedItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Range.Start.Equal(out[j].Range.Start) {
			return out[i].Range.Start.Before(out[j].Range.Start)
		}
		return out[i].Range.End.Before(out[j].Range.End)
	})
	return out
}

func idsWithin(events []TimedItem, window TimeRange) []string {
	set := newIDSet()
	for _, ev := range events {
		if _, ok := ev.Range.Clip(window); ok {
			set.add(ev.ID)
		}
	}
	return set.ids
}

type idSet struct {
	seen map[string]struct{}
	ids  []string
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]struct{}), ids: []string{}}
}

func (s *idSet) add(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}
