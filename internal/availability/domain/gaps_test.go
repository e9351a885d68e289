package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindGaps(t *testing.T) {
	bound := rng(8, 0, 17, 0)

	t.Run("empty merged returns the bound", func(t *testing.T) {
		got, err := FindGaps(nil, bound)
		require.NoError(t, err)
		assert.Equal(t, []TimeRange{bound}, got.Gaps)
		assert.Equal(t, 540.0, got.TotalMinutes())
		assert.Equal(t, 540.0, got.AverageMinutes())
	})

	t.Run("edge and inner gaps", func(t *testing.T) {
		merged := []TimeRange{rng(9, 0, 12, 0), rng(13, 0, 16, 0)}
		got, err := FindGaps(merged, bound)
		require.NoError(t, err)
		assert.Equal(t, []TimeRange{rng(8, 0, 9, 0), rng(12, 0, 13, 0), rng(16, 0, 17, 0)}, got.Gaps)
		assert.Equal(t, 180.0, got.TotalMinutes())
		assert.Equal(t, 60.0, got.AverageMinutes())
		assert.Equal(t, 60.0, got.LongestMinutes())
	})

	t.Run("fully booked has no gaps", func(t *testing.T) {
		got, err := FindGaps([]TimeRange{bound}, bound)
		require.NoError(t, err)
		assert.Empty(t, got.Gaps)
		assert.Equal(t, 0.0, got.AverageMinutes())
		assert.Equal(t, 0.0, got.LongestMinutes())
	})

	t.Run("busy time beyond the bound yields no negative gaps", func(t *testing.T) {
		merged := []TimeRange{rng(6, 0, 8, 30), rng(16, 30, 19, 0)}
		got, err := FindGaps(merged, bound)
		require.NoError(t, err)
		assert.Equal(t, []TimeRange{rng(8, 30, 16, 30)}, got.Gaps)
	})

	t.Run("invalid bound", func(t *testing.T) {
		_, err := FindGaps(nil, TimeRange{Start: at(17, 0), End: at(8, 0)})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}

func TestMergeGapComplement(t *testing.T) {
	bound := rng(8, 0, 18, 0)
	sets := [][]TimeRange{
		nil,
		{rng(9, 0, 10, 0)},
		{rng(7, 0, 9, 0), rng(8, 30, 11, 0), rng(12, 0, 12, 0), rng(17, 30, 19, 0)},
		{rng(8, 0, 18, 0)},
		{rng(10, 0, 10, 30), rng(10, 30, 11, 0), rng(14, 0, 15, 45)},
	}
	for _, set := range sets {
		merged, err := Merge(set, &bound)
		require.NoError(t, err)
		gaps, err := FindGaps(merged.Intervals, bound)
		require.NoError(t, err)
		assert.Equal(t, bound.Duration(), merged.Total+gaps.Total)
	}
}

func TestFreeTime(t *testing.T) {
	bound := rng(9, 0, 12, 0)
	merged, gaps, err := FreeTime([]TimedItem{item("a", 10, 0, 11, 0)}, bound)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, merged.Total)
	assert.Equal(t, 2*time.Hour, gaps.Total)
}
