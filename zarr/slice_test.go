package zarr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSlice(t *testing.T) {
	tests := []struct {
		name  string
		s     Slice
		n     int
		start int
		stop  int
		step  int
		count int
	}{
		{"full default", FullSlice(), 5, 0, 5, 1, 5},
		{"simple range", NewSlice(1, 3), 3, 1, 3, 1, 2},
		{"negative start", NewSlice(-2, None), 5, 3, 5, 1, 2},
		{"negative stop", NewSlice(None, -1), 5, 0, 4, 1, 4},
		{"clamped stop", NewSlice(0, 100), 5, 0, 5, 1, 5},
		{"clamped start", NewSlice(-100, None), 5, 0, 5, 1, 5},
		{"empty range", NewSlice(0, 0), 2, 0, 0, 1, 0},
		{"empty out of range", NewSlice(5, 5), 2, 2, 2, 1, 0},
		{"inverted positive", NewSlice(3, 1), 5, 3, 1, 1, 0},
		{"step two", NewSliceStep(0, 5, 2), 5, 0, 5, 2, 3},
		{"reverse full", NewSliceStep(None, None, -1), 5, 4, -1, -1, 5},
		{"reverse partial", NewSliceStep(4, 0, -2), 5, 4, 0, -2, 2},
		{"reverse clamped", NewSliceStep(100, None, -1), 5, 4, -1, -1, 5},
		{"reverse from zero", NewSliceStep(0, None, -1), 5, 0, -1, -1, 1},
		{"big negative step", NewSliceStep(None, None, -5), 2, 1, -1, -5, 1},
		{"zero length axis", FullSlice(), 0, 0, 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, stop, step, count, err := normalizeSlice(tt.s, tt.n)
			require.NoError(t, err)
			require.Equal(t, tt.start, start, "start")
			require.Equal(t, tt.stop, stop, "stop")
			require.Equal(t, tt.step, step, "step")
			require.Equal(t, tt.count, count, "count")
		})
	}
}

func TestNormalizeSliceZeroStep(t *testing.T) {
	_, _, _, _, err := normalizeSlice(NewSliceStep(0, 5, 0), 5)
	require.ErrorIs(t, err, ErrInvalidSlice)
}

func TestNormalizeInt(t *testing.T) {
	tests := []struct {
		i, n, want int
		wantErr    bool
	}{
		{0, 3, 0, false},
		{2, 3, 2, false},
		{-1, 3, 2, false},
		{-3, 3, 0, false},
		{3, 3, 0, true},
		{-4, 3, 0, true},
	}
	for _, tt := range tests {
		got, err := normalizeInt(tt.i, tt.n)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrBoundsCheck, "normalizeInt(%d, %d)", tt.i, tt.n)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got, "normalizeInt(%d, %d)", tt.i, tt.n)
	}
}

func TestNormalizeSliceInputNotMutated(t *testing.T) {
	s := NewSliceStep(-2, None, -1)
	_, _, _, _, err := normalizeSlice(s, 5)
	require.NoError(t, err)
	require.Equal(t, NewSliceStep(-2, None, -1), s)
}
