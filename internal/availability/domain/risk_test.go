package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detect(t *testing.T, events []TimedItem, tasks []Task, window TimeRange) []RiskFinding {
	t.Helper()
	findings, err := DetectRisks(RiskInput{
		Events:     events,
		Tasks:      tasks,
		Window:     window,
		Today:      testDay,
		Thresholds: DefaultRiskThresholds(),
	})
	require.NoError(t, err)
	return findings
}

func findingOf(findings []RiskFinding, typ RiskType) (RiskFinding, bool) {
	for _, f := range findings {
		if f.Type == typ {
			return f, true
		}
	}
	return RiskFinding{}, false
}

func TestDetectRisks_Overbooked(t *testing.T) {
	window := rng(9, 0, 17, 0)

	t.Run("exactly at threshold does not fire", func(t *testing.T) {
		findings := detect(t, []TimedItem{item("a", 9, 0, 15, 48)}, nil, window)
		_, ok := findingOf(findings, RiskOverbooked)
		assert.False(t, ok)
	})

	t.Run("one minute over fires medium", func(t *testing.T) {
		findings := detect(t, []TimedItem{item("a", 9, 0, 15, 49)}, nil, window)
		f, ok := findingOf(findings, RiskOverbooked)
		require.True(t, ok)
		assert.Equal(t, SeverityMedium, f.Severity)
		assert.Equal(t, []string{"a"}, f.AffectedIDs)
		assert.InDelta(t, 409.0/480.0, f.Value, 1e-9)
	})

	t.Run("above high ratio", func(t *testing.T) {
		findings := detect(t, []TimedItem{item("a", 9, 0, 16, 40)}, nil, window)
		f, ok := findingOf(findings, RiskOverbooked)
		require.True(t, ok)
		assert.Equal(t, SeverityHigh, f.Severity)
	})

	t.Run("busy time outside the window is ignored", func(t *testing.T) {
		findings := detect(t, []TimedItem{item("a", 6, 0, 11, 0), item("b", 17, 0, 22, 0)}, nil, window)
		_, ok := findingOf(findings, RiskOverbooked)
		assert.False(t, ok)
	})
}

func TestDetectRisks_BackToBack(t *testing.T) {
	window := rng(8, 0, 17, 0)

	t.Run("three events five minutes apart", func(t *testing.T) {
		events := []TimedItem{
			item("c", 10, 10, 10, 40),
			item("a", 9, 0, 9, 30),
			item("b", 9, 35, 10, 5),
		}
		findings := detect(t, events, nil, window)

		count := 0
		for _, f := range findings {
			if f.Type == RiskBackToBack {
				count++
			}
		}
		require.Equal(t, 1, count)

		f, _ := findingOf(findings, RiskBackToBack)
		assert.Equal(t, SeverityMedium, f.Severity)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, f.AffectedIDs)
		assert.Equal(t, 2.0, f.Value)
	})

	t.Run("single pair is below the minimum count", func(t *testing.T) {
		events := []TimedItem{item("a", 9, 0, 9, 30), item("b", 9, 35, 10, 0)}
		_, ok := findingOf(detect(t, events, nil, window), RiskBackToBack)
		assert.False(t, ok)
	})

	t.Run("gap equal to the threshold does not count", func(t *testing.T) {
		events := []TimedItem{item("a", 9, 0, 9, 30), item("b", 9, 40, 10, 0), item("c", 10, 10, 10, 30)}
		_, ok := findingOf(detect(t, events, nil, window), RiskBackToBack)
		assert.False(t, ok)
	})

	t.Run("four pairs is high", func(t *testing.T) {
		events := []TimedItem{
			item("a", 9, 0, 9, 30),
			item("b", 9, 30, 10, 0),
			item("c", 10, 0, 10, 30),
			item("d", 10, 30, 11, 0),
			item("e", 11, 0, 11, 30),
		}
		f, ok := findingOf(detect(t, events, nil, window), RiskBackToBack)
		require.True(t, ok)
		assert.Equal(t, SeverityHigh, f.Severity)
		assert.Len(t, f.AffectedIDs, 5)
	})
}

func TestDetectRisks_NoBreak(t *testing.T) {
	t.Run("long day without a break", func(t *testing.T) {
		events := []TimedItem{item("a", 9, 0, 12, 0), item("b", 12, 10, 14, 0), item("c", 14, 15, 17, 0)}
		f, ok := findingOf(detect(t, events, nil, rng(9, 0, 17, 0)), RiskNoBreak)
		require.True(t, ok)
		assert.Equal(t, SeverityHigh, f.Severity)
		assert.Equal(t, 15.0, f.Value)
	})

	t.Run("medium when scheduled is below the high mark", func(t *testing.T) {
		events := []TimedItem{item("a", 9, 0, 11, 0), item("b", 11, 20, 14, 20)}
		f, ok := findingOf(detect(t, events, nil, rng(9, 0, 14, 20)), RiskNoBreak)
		require.True(t, ok)
		assert.Equal(t, SeverityMedium, f.Severity)
	})

	t.Run("a long gap prevents the finding", func(t *testing.T) {
		events := []TimedItem{item("a", 9, 0, 12, 0), item("b", 13, 0, 17, 0)}
		_, ok := findingOf(detect(t, events, nil, rng(9, 0, 17, 0)), RiskNoBreak)
		assert.False(t, ok)
	})

	t.Run("light days never fire", func(t *testing.T) {
		events := []TimedItem{item("a", 9, 0, 11, 0)}
		_, ok := findingOf(detect(t, events, nil, rng(9, 0, 11, 10)), RiskNoBreak)
		assert.False(t, ok)
	})
}

func TestDetectRisks_Overlap(t *testing.T) {
	events := []TimedItem{item("a", 9, 0, 10, 0), item("b", 9, 30, 10, 30), item("c", 10, 30, 11, 0)}
	findings := detect(t, events, nil, rng(8, 0, 17, 0))

	f, ok := findingOf(findings, RiskOverlap)
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, f.Severity)
	assert.ElementsMatch(t, []string{"a", "b"}, f.AffectedIDs)
	assert.Equal(t, 1.0, f.Value)

	_, ok = findingOf(findings, RiskBackToBack)
	assert.False(t, ok)
}

func TestDetectRisks_TaskRisk(t *testing.T) {
	window := rng(9, 0, 12, 0)
	yesterday := testDay.AddDays(-1)
	tomorrow := testDay.AddDays(1)
	busy := []TimedItem{item("a", 9, 0, 11, 30)}

	tasks := []Task{
		{ID: "overdue", DurationMinutes: 20, DueDate: &yesterday, Status: TaskStatusTodo},
		{ID: "unsized", DueDate: &yesterday, Status: TaskStatusInProgress},
		{ID: "done", DurationMinutes: 600, DueDate: &yesterday, Status: TaskStatusCompleted},
		{ID: "later", DurationMinutes: 600, DueDate: &tomorrow},
		{ID: "undated", DurationMinutes: 600},
	}

	f, ok := findingOf(detect(t, busy, tasks, window), RiskTask)
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, f.Severity)
	assert.Equal(t, []string{"overdue", "unsized"}, f.AffectedIDs)
	assert.Equal(t, 50.0, f.Value)

	t.Run("enough free time", func(t *testing.T) {
		_, ok := findingOf(detect(t, nil, tasks, window), RiskTask)
		assert.False(t, ok)
	})
}

func TestDetectRisks_Scenario(t *testing.T) {
	events := []TimedItem{item("e1", 9, 0, 10, 30), item("e2", 10, 30, 12, 0), item("e3", 13, 0, 17, 0)}
	window := rng(8, 0, 17, 0)

	findings := detect(t, events, nil, window)
	assert.Empty(t, findings)
	assert.NotNil(t, findings)

	merged, gaps, err := FreeTime(events, window)
	require.NoError(t, err)
	assert.Equal(t, []TimeRange{rng(9, 0, 12, 0), rng(13, 0, 17, 0)}, merged.Intervals)
	assert.Equal(t, []TimeRange{rng(8, 0, 9, 0), rng(12, 0, 13, 0)}, gaps.Gaps)
	assert.InDelta(t, 0.778, merged.TotalMinutes()/window.Minutes(), 0.001)
}

func TestDetectRisks_FixedOrder(t *testing.T) {
	events := []TimedItem{
		item("a", 9, 0, 10, 0),
		item("b", 9, 30, 12, 0),
		item("c", 12, 5, 14, 0),
		item("d", 14, 5, 17, 0),
	}
	findings := detect(t, events, nil, rng(9, 0, 17, 0))

	var types []RiskType
	for _, f := range findings {
		types = append(types, f.Type)
	}
	assert.Equal(t, []RiskType{RiskOverbooked, RiskBackToBack, RiskNoBreak, RiskOverlap}, types)
}

func TestDetectRisks_InvalidInput(t *testing.T) {
	_, err := DetectRisks(RiskInput{Window: TimeRange{Start: at(17, 0), End: at(9, 0)}})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = DetectRisks(RiskInput{
		Window: rng(9, 0, 17, 0),
		Events: []TimedItem{{ID: "x", Range: TimeRange{Start: at(11, 0), End: at(10, 0)}}},
	})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestParseRiskType(t *testing.T) {
	typ, ok := ParseRiskType("no_break")
	assert.True(t, ok)
	assert.Equal(t, RiskNoBreak, typ)

	_, ok = ParseRiskType("boredom")
	assert.False(t, ok)
}
