package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		in    []TimeRange
		want  []TimeRange
		total time.Duration
	}{
		{
			name:  "empty input",
			in:    nil,
			want:  []TimeRange{},
			total: 0,
		},
		{
			name:  "overlapping intervals",
			in:    []TimeRange{rng(9, 0, 10, 0), rng(9, 30, 11, 0)},
			want:  []TimeRange{rng(9, 0, 11, 0)},
			total: 2 * time.Hour,
		},
		{
			name:  "touching intervals merge",
			in:    []TimeRange{rng(9, 0, 10, 0), rng(10, 0, 11, 0)},
			want:  []TimeRange{rng(9, 0, 11, 0)},
			total: 2 * time.Hour,
		},
		{
			name:  "unsorted disjoint intervals",
			in:    []TimeRange{rng(13, 0, 14, 0), rng(9, 0, 10, 0)},
			want:  []TimeRange{rng(9, 0, 10, 0), rng(13, 0, 14, 0)},
			total: 2 * time.Hour,
		},
		{
			name:  "contained interval",
			in:    []TimeRange{rng(9, 0, 12, 0), rng(10, 0, 11, 0)},
			want:  []TimeRange{rng(9, 0, 12, 0)},
			total: 3 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(tt.in, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Intervals)
			assert.Equal(t, tt.total, got.Total)
		})
	}
}

func TestMerge_Clip(t *testing.T) {
	bound := rng(9, 0, 17, 0)
	in := []TimeRange{
		rng(7, 0, 8, 0),   // outside
		rng(8, 0, 9, 0),   // ends at bound start
		rng(8, 30, 9, 30), // straddles start
		rng(16, 0, 18, 0), // straddles end
	}

	got, err := Merge(in, &bound)
	require.NoError(t, err)
	assert.Equal(t, []TimeRange{rng(9, 0, 9, 30), rng(16, 0, 17, 0)}, got.Intervals)
	assert.Equal(t, 90*time.Minute, got.Total)
}

func TestMerge_InvalidInterval(t *testing.T) {
	_, err := Merge([]TimeRange{{Start: at(10, 0), End: at(9, 0)}}, nil)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestMerge_Idempotent(t *testing.T) {
	inputs := [][]TimeRange{
		{rng(9, 0, 10, 0), rng(9, 30, 11, 0), rng(13, 0, 14, 0)},
		{rng(8, 0, 8, 15), rng(8, 15, 8, 30), rng(12, 0, 12, 0)},
		{rng(15, 0, 16, 0), rng(9, 0, 17, 0)},
	}
	for _, in := range inputs {
		once, err := Merge(in, nil)
		require.NoError(t, err)
		twice, err := Merge(once.Intervals, nil)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	in := []TimeRange{rng(13, 0, 14, 0), rng(9, 0, 10, 0)}
	_, err := Merge(in, nil)
	require.NoError(t, err)
	assert.Equal(t, rng(13, 0, 14, 0), in[0])
}
