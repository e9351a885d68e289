package domain

import (
	"sort"
	"time"
)

// SlotStep is the granularity at which candidate starts are generated.
const SlotStep = 15 * time.Minute

// NearbyEventWindow is how close an event must be to count against a slot's buffer.
const NearbyEventWindow = 15 * time.Minute

// Scoring weights.
const (
	baseSlotScore       = 100.0
	overdueBonus        = 50.0
	overdueDecayDivisor = 10.0
	dueTodayBonus       = 30.0
	dueTodayDecay       = 20.0
	inWindowBonus       = 20.0
	clearBufferBonus    = 15.0
	nearbyEventPenalty  = 5.0
)

// ScoredSlot is a candidate placement and its heuristic score. Scores are
// only comparable within one scoring run.
type ScoredSlot struct {
	Start time.Time
	End   time.Time
	Score float64
}

// Range returns the slot as a time range.
func (s ScoredSlot) Range() TimeRange {
	return TimeRange{Start: s.Start, End: s.End}
}

// ScoreSlot rates a candidate placement for task. Higher is better; the
// result is never negative.
func ScoreSlot(candidate TimeRange, task Task, dayEvents []TimedItem, window TimeRange, today Date) float64 {
	score := baseSlotScore

	startMinute := MinuteOfDay(candidate.Start)
	switch {
	case task.IsOverdue(today):
		score += overdueBonus - startMinute/overdueDecayDivisor
	case task.IsDueOn(today):
		score += dueTodayBonus - startMinute/dueTodayDecay
	}

	if window.Contains(candidate) {
		score += inWindowBonus
	}

	nearby := countNearby(candidate, dayEvents)
	if nearby == 0 {
		score += clearBufferBonus
	} else {
		score -= nearbyEventPenalty * float64(nearby)
	}

	if score < 0 {
		return 0
	}
	return score
}

func countNearby(candidate TimeRange, events []TimedItem) int {
	zone := candidate.Expand(NearbyEventWindow, NearbyEventWindow)
	n := 0
	for _, ev := range events {
		if ev.Range.End.After(zone.Start) && ev.Range.Start.Before(zone.End) {
			n++
		}
	}
	return n
}

// SlotRequest asks for the best placements of a task on one day.
type SlotRequest struct {
	Task     Task
	Events   []TimedItem
	Window   TimeRange
	Today    Date
	MaxSlots int
}

// FindBestSlots enumerates placements inside the free gaps of the window at
// SlotStep granularity and returns the top MaxSlots by score. Ties keep the
// earlier start. An empty result is valid.
func FindBestSlots(req SlotRequest) ([]ScoredSlot, error) {
	if err := req.Window.Validate(); err != nil {
		return nil, err
	}
	if err := validateItems(req.Events); err != nil {
		return nil, err
	}

	slots := []ScoredSlot{}
	if req.Task.IsCompleted() || req.Task.DurationMinutes <= 0 || req.MaxSlots <= 0 {
		return slots, nil
	}

	_, gaps, err := FreeTime(req.Events, req.Window)
	if err != nil {
		return nil, err
	}

	duration := req.Task.Duration()
	for _, candidate := range Candidates(gaps.Gaps, duration, SlotStep) {
		slots = append(slots, ScoredSlot{
			Start: candidate.Start,
			End:   candidate.End,
			Score: ScoreSlot(candidate, req.Task, req.Events, req.Window, req.Today),
		})
	}

	RankSlots(slots)
	if len(slots) > req.MaxSlots {
		slots = slots[:req.MaxSlots]
	}
	return slots, nil
}

// Candidates enumerates placements of duration inside each gap, stepping from
// the gap start. Results are in ascending start order when gaps are.
func Candidates(gaps []TimeRange, duration, step time.Duration) []TimeRange {
	out := []TimeRange{}
	if duration <= 0 || step <= 0 {
		return out
	}
	for _, gap := range gaps {
		if gap.Duration() < duration {
			continue
		}
		for start := gap.Start; !start.Add(duration).After(gap.End); start = start.Add(step) {
			out = append(out, TimeRange{Start: start, End: start.Add(duration)})
		}
	}
	return out
}

// RankSlots orders slots by score descending, earliest start first on ties.
func RankSlots(slots []ScoredSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score > slots[j].Score
		}
		return slots[i].Start.Before(slots[j].Start)
	})
}
