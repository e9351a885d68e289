package queries

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/felixgeelhaar/planwise/internal/availability/application/services"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	monday     = availabilityDomain.NewDate(2024, time.January, 15)
	nineToFive = availabilityDomain.WorkingWindow{StartMinute: 9 * 60, EndMinute: 17 * 60}
)

func at(h, m int) time.Time {
	return time.Date(2024, time.January, 15, h, m, 0, 0, time.UTC)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(id string, sh, sm, eh, em int) availabilityDomain.Event {
	return availabilityDomain.Event{ID: id, Title: id, Start: at(sh, sm), End: at(eh, em)}
}

func newLoader(src services.EventSource, tasks availabilityDomain.TaskRepository) *services.DayLoader {
	return services.NewDayLoader(src, tasks, nil, nil, services.DayLoaderConfig{
		Window: nineToFive,
		Now:    func() time.Time { return at(7, 0) },
	}, quietLogger(), nil)
}

func TestGetDayRisksHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	dayStart, dayEnd := monday.At(time.UTC), monday.AddDays(1).At(time.UTC)
	events := []availabilityDomain.Event{
		event("a", 9, 0, 10, 0),
		event("b", 9, 30, 10, 30),
	}
	overlapKey := services.DismissalKey(userID, monday, availabilityDomain.RiskOverlap)

	setup := func() (*mockEventSource, *mockTaskRepo) {
		src := new(mockEventSource)
		src.On("FindInRange", ctx, userID, dayStart, dayEnd).Return(events, nil)
		tasks := new(mockTaskRepo)
		tasks.On("FindOpen", ctx, userID).Return([]availabilityDomain.Task{}, nil)
		return src, tasks
	}

	t.Run("reports findings", func(t *testing.T) {
		src, tasks := setup()
		metrics := observability.NewInMemoryMetrics()
		handler := NewGetDayRisksHandler(newLoader(src, tasks), nil, availabilityDomain.DefaultRiskThresholds(), quietLogger(), metrics)

		result, err := handler.Handle(ctx, GetDayRisksQuery{UserID: userID, Date: monday})

		require.NoError(t, err)
		require.Len(t, result.Findings, 1)
		assert.Equal(t, availabilityDomain.RiskOverlap, result.Findings[0].Type)
		assert.Equal(t, []string{"a", "b"}, result.Findings[0].AffectedIDs)
		assert.Empty(t, result.Dismissed)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricRisksDetected,
			observability.T("type", "overlap"), observability.T("severity", "high")))
		src.AssertExpectations(t)
		tasks.AssertExpectations(t)
	})

	t.Run("hides dismissed findings", func(t *testing.T) {
		src, tasks := setup()
		store := new(mockStateStore)
		store.On("Get", ctx, overlapKey).Return("1", true, nil)
		handler := NewGetDayRisksHandler(newLoader(src, tasks), store, availabilityDomain.DefaultRiskThresholds(), quietLogger(), nil)

		result, err := handler.Handle(ctx, GetDayRisksQuery{UserID: userID, Date: monday})

		require.NoError(t, err)
		assert.Empty(t, result.Findings)
		assert.Equal(t, []availabilityDomain.RiskType{availabilityDomain.RiskOverlap}, result.Dismissed)
		store.AssertExpectations(t)
	})

	t.Run("include dismissed skips the store", func(t *testing.T) {
		src, tasks := setup()
		store := new(mockStateStore)
		handler := NewGetDayRisksHandler(newLoader(src, tasks), store, availabilityDomain.DefaultRiskThresholds(), quietLogger(), nil)

		result, err := handler.Handle(ctx, GetDayRisksQuery{UserID: userID, Date: monday, IncludeDismissed: true})

		require.NoError(t, err)
		assert.Len(t, result.Findings, 1)
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("store failure keeps the finding", func(t *testing.T) {
		src, tasks := setup()
		store := new(mockStateStore)
		store.On("Get", ctx, overlapKey).Return("", false, errors.New("redis down"))
		handler := NewGetDayRisksHandler(newLoader(src, tasks), store, availabilityDomain.DefaultRiskThresholds(), quietLogger(), nil)

		result, err := handler.Handle(ctx, GetDayRisksQuery{UserID: userID, Date: monday})

		require.NoError(t, err)
		assert.Len(t, result.Findings, 1)
	})

	t.Run("event source error", func(t *testing.T) {
		src := new(mockEventSource)
		src.On("FindInRange", ctx, userID, dayStart, dayEnd).Return(nil, services.ErrEventSourceUnavailable)
		handler := NewGetDayRisksHandler(newLoader(src, new(mockTaskRepo)), nil, availabilityDomain.DefaultRiskThresholds(), quietLogger(), nil)

		_, err := handler.Handle(ctx, GetDayRisksQuery{UserID: userID, Date: monday})
		assert.ErrorIs(t, err, services.ErrEventSourceUnavailable)
	})
}

func TestFindBestSlotsHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	dayStart, dayEnd := monday.At(time.UTC), monday.AddDays(1).At(time.UTC)

	// only 12:00-13:00 is free
	busy := []availabilityDomain.Event{
		event("morning", 9, 0, 12, 0),
		event("afternoon", 13, 0, 17, 0),
	}

	t.Run("places a stored task", func(t *testing.T) {
		src := new(mockEventSource)
		src.On("FindInRange", ctx, userID, dayStart, dayEnd).Return(busy, nil)
		tasks := new(mockTaskRepo)
		task := &availabilityDomain.Task{ID: "t1", DurationMinutes: 60, Status: availabilityDomain.TaskStatusTodo}
		tasks.On("FindByID", ctx, userID, "t1").Return(task, nil)
		metrics := observability.NewInMemoryMetrics()
		handler := NewFindBestSlotsHandler(newLoader(src, tasks), tasks, quietLogger(), metrics)

		result, err := handler.Handle(ctx, FindBestSlotsQuery{UserID: userID, TaskID: "t1", Date: monday, MaxSlots: 5})

		require.NoError(t, err)
		assert.Equal(t, "t1", result.Task.ID)
		require.Len(t, result.Slots, 1)
		assert.Equal(t, at(12, 0), result.Slots[0].Start)
		assert.Equal(t, at(13, 0), result.Slots[0].End)
		assert.Equal(t, []float64{1}, metrics.GetHistogram(observability.MetricSlotsFound))
		tasks.AssertExpectations(t)
	})

	t.Run("ad hoc duration", func(t *testing.T) {
		src := new(mockEventSource)
		src.On("FindInRange", ctx, userID, dayStart, dayEnd).Return(busy, nil)
		handler := NewFindBestSlotsHandler(newLoader(src, new(mockTaskRepo)), new(mockTaskRepo), quietLogger(), nil)

		result, err := handler.Handle(ctx, FindBestSlotsQuery{UserID: userID, DurationMinutes: 30, Date: monday, MaxSlots: 5})

		require.NoError(t, err)
		require.Len(t, result.Slots, 3)
		for _, s := range result.Slots {
			assert.False(t, s.Start.Before(at(12, 0)))
			assert.False(t, s.End.After(at(13, 0)))
		}
	})

	t.Run("ad hoc without duration", func(t *testing.T) {
		handler := NewFindBestSlotsHandler(newLoader(new(mockEventSource), new(mockTaskRepo)), new(mockTaskRepo), quietLogger(), nil)
		_, err := handler.Handle(ctx, FindBestSlotsQuery{UserID: userID, Date: monday, MaxSlots: 5})
		assert.ErrorIs(t, err, availabilityDomain.ErrInvalidTask)
	})

	t.Run("unknown task", func(t *testing.T) {
		tasks := new(mockTaskRepo)
		tasks.On("FindByID", ctx, userID, "missing").Return(nil, availabilityDomain.ErrTaskNotFound)
		handler := NewFindBestSlotsHandler(newLoader(new(mockEventSource), tasks), tasks, quietLogger(), nil)

		_, err := handler.Handle(ctx, FindBestSlotsQuery{UserID: userID, TaskID: "missing", Date: monday, MaxSlots: 5})
		assert.ErrorIs(t, err, availabilityDomain.ErrTaskNotFound)
	})
}

func TestInsightsHandler(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("day", func(t *testing.T) {
		src := new(mockEventSource)
		src.On("FindInRange", ctx, userID, monday.At(time.UTC), monday.AddDays(1).At(time.UTC)).
			Return([]availabilityDomain.Event{event("a", 9, 0, 11, 0)}, nil)
		handler := NewInsightsHandler(newLoader(src, new(mockTaskRepo)), quietLogger(), nil)

		summary, err := handler.HandleDay(ctx, GetDayInsightsQuery{UserID: userID, Date: monday})

		require.NoError(t, err)
		assert.Equal(t, 480.0, summary.WorkingMinutes)
		assert.Equal(t, 120.0, summary.BusyMinutes)
		assert.Equal(t, 360.0, summary.FreeMinutes)
		assert.Equal(t, 1, summary.EventCount)
	})

	t.Run("week loads seven days from monday", func(t *testing.T) {
		src := new(mockEventSource)
		src.On("FindInRange", mock.Anything, userID, monday.At(time.UTC), mock.Anything).
			Return([]availabilityDomain.Event{event("a", 9, 0, 13, 0)}, nil)
		src.On("FindInRange", mock.Anything, userID, mock.Anything, mock.Anything).
			Return([]availabilityDomain.Event{}, nil)
		handler := NewInsightsHandler(newLoader(src, new(mockTaskRepo)), quietLogger(), nil)

		wednesday := monday.AddDays(2)
		week, err := handler.HandleWeek(ctx, GetWeekInsightsQuery{UserID: userID, Date: wednesday})

		require.NoError(t, err)
		require.Len(t, week.Days, 7)
		assert.Equal(t, monday, week.StartDate)
		assert.Equal(t, 7*480.0, week.WorkingMinutes)
		assert.Equal(t, 240.0, week.BusyMinutes)
		require.NotNil(t, week.BusiestDay)
		assert.Equal(t, monday, *week.BusiestDay)
		src.AssertNumberOfCalls(t, "FindInRange", 7)
	})

	t.Run("week fails when a day fails", func(t *testing.T) {
		src := new(mockEventSource)
		src.On("FindInRange", mock.Anything, userID, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		handler := NewInsightsHandler(newLoader(src, new(mockTaskRepo)), quietLogger(), nil)

		_, err := handler.HandleWeek(ctx, GetWeekInsightsQuery{UserID: userID, Date: monday})
		assert.ErrorContains(t, err, "db down")
	})
}

func TestExpandRecurrenceHandler(t *testing.T) {
	ctx := context.Background()
	handler := NewExpandRecurrenceHandler(nil, quietLogger(), nil)
	first := availabilityDomain.TimeRange{Start: at(9, 0), End: at(9, 30)}

	got, err := handler.Handle(ctx, ExpandRecurrenceQuery{
		Rule:  "FREQ=DAILY;COUNT=3",
		First: first,
		From:  at(0, 0),
		To:    at(0, 0).AddDate(0, 0, 10),
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, at(9, 0).AddDate(0, 0, 2), got[2].Start)

	_, err = handler.Handle(ctx, ExpandRecurrenceQuery{Rule: "FREQ=NEVER", First: first, From: at(0, 0), To: at(23, 0)})
	var perr *availabilityDomain.ParseError
	assert.ErrorAs(t, err, &perr)
}
