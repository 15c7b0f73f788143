package zarr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, bi *BasicIndexer) []ChunkProjection {
	t.Helper()
	var out []ChunkProjection
	require.NoError(t, bi.forEach(func(p ChunkProjection) error {
		out = append(out, p)
		return nil
	}))
	return out
}

func TestSliceDimIndexerForward(t *testing.T) {
	di, err := newSliceDimIndexer(NewSlice(1, 7), 10, 3)
	require.NoError(t, err)
	require.Equal(t, 6, di.numItems())

	// Elements 1..6 over chunks of 3: chunk 0 holds 1,2; chunk 1 holds
	// 3,4,5; chunk 2 holds 6.
	want := []dimProjection{
		{chunkIdx: 0, localStart: 1, localStep: 1, count: 2, outStart: 0},
		{chunkIdx: 1, localStart: 0, localStep: 1, count: 3, outStart: 2},
		{chunkIdx: 2, localStart: 0, localStep: 1, count: 1, outStart: 5},
	}
	require.Equal(t, want, di.projections())
}

func TestSliceDimIndexerStrided(t *testing.T) {
	di, err := newSliceDimIndexer(NewSliceStep(0, 10, 4), 10, 3)
	require.NoError(t, err)
	require.Equal(t, 3, di.numItems())

	// Points 0, 4, 8; chunk 1 (elements 3..5) gets point 4, chunk 2
	// gets point 8. No point lands in chunk 0's successor positions.
	want := []dimProjection{
		{chunkIdx: 0, localStart: 0, localStep: 4, count: 1, outStart: 0},
		{chunkIdx: 1, localStart: 1, localStep: 4, count: 1, outStart: 1},
		{chunkIdx: 2, localStart: 2, localStep: 4, count: 1, outStart: 2},
	}
	require.Equal(t, want, di.projections())
}

func TestSliceDimIndexerSkipsEmptyChunks(t *testing.T) {
	// Points 0 and 6 with chunks of 2: chunks 1 and 2 hold no point.
	di, err := newSliceDimIndexer(NewSliceStep(0, 7, 6), 8, 2)
	require.NoError(t, err)
	require.Equal(t, 2, di.numItems())

	want := []dimProjection{
		{chunkIdx: 0, localStart: 0, localStep: 6, count: 1, outStart: 0},
		{chunkIdx: 3, localStart: 0, localStep: 6, count: 1, outStart: 1},
	}
	require.Equal(t, want, di.projections())
}

func TestSliceDimIndexerReverse(t *testing.T) {
	di, err := newSliceDimIndexer(NewSliceStep(None, None, -1), 5, 2)
	require.NoError(t, err)
	require.Equal(t, 5, di.numItems())

	// Reverse order: element 4 (chunk 2), then 3,2 (chunk 1), then 1,0
	// (chunk 0). Output offsets follow iteration order.
	want := []dimProjection{
		{chunkIdx: 2, localStart: 0, localStep: -1, count: 1, outStart: 0},
		{chunkIdx: 1, localStart: 1, localStep: -1, count: 2, outStart: 1},
		{chunkIdx: 0, localStart: 1, localStep: -1, count: 2, outStart: 3},
	}
	require.Equal(t, want, di.projections())
}

func TestSliceDimIndexerReverseStrided(t *testing.T) {
	di, err := newSliceDimIndexer(NewSliceStep(4, 0, -2), 5, 2)
	require.NoError(t, err)
	require.Equal(t, 2, di.numItems())

	want := []dimProjection{
		{chunkIdx: 2, localStart: 0, localStep: -2, count: 1, outStart: 0},
		{chunkIdx: 1, localStart: 0, localStep: -2, count: 1, outStart: 1},
	}
	require.Equal(t, want, di.projections())
}

func TestIntDimIndexer(t *testing.T) {
	di, err := newIntDimIndexer(Index(7), 10, 3)
	require.NoError(t, err)
	require.Equal(t, []dimProjection{
		{chunkIdx: 2, localStart: 1, localStep: 1, count: 1, scalar: true},
	}, di.projections())

	di, err = newIntDimIndexer(Index(-1), 10, 3)
	require.NoError(t, err)
	require.Equal(t, 3, di.projections()[0].chunkIdx)
	require.Equal(t, 0, di.projections()[0].localStart)

	_, err = newIntDimIndexer(Index(10), 10, 3)
	require.ErrorIs(t, err, ErrBoundsCheck)
}

func TestBasicIndexerOutShape(t *testing.T) {
	tests := []struct {
		name     string
		sel      []DimSelection
		shape    []int
		chunks   []int
		outShape []int
		dropAxes []int
	}{
		{"full pad", nil, []int{4, 6}, []int{2, 3}, []int{4, 6}, nil},
		{"partial pad", []DimSelection{NewSlice(1, 3)}, []int{4, 6}, []int{2, 3}, []int{2, 6}, nil},
		{"drop axis", []DimSelection{Index(0), FullSlice()}, []int{2, 3}, []int{2, 3}, []int{3}, []int{0}},
		{"drop all", []DimSelection{Index(-2), Index(-1)}, []int{2, 3}, []int{2, 3}, []int{}, []int{0, 1}},
		{"zero count", []DimSelection{NewSlice(0, 0)}, []int{2, 3}, []int{2, 3}, []int{0, 3}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bi, err := NewBasicIndexer(tt.sel, tt.shape, tt.chunks)
			require.NoError(t, err)
			require.Equal(t, tt.outShape, bi.OutShape())
			if tt.dropAxes == nil {
				require.Empty(t, bi.DropAxes())
			} else {
				require.Equal(t, tt.dropAxes, bi.DropAxes())
			}
		})
	}
}

func TestBasicIndexerTooManyIndices(t *testing.T) {
	_, err := NewBasicIndexer([]DimSelection{Index(0), Index(0)}, []int{4}, []int{2})
	require.ErrorIs(t, err, ErrTooManyIndices)
}

func TestBasicIndexerChunkOrder(t *testing.T) {
	bi, err := NewBasicIndexer(nil, []int{4, 4}, []int{2, 2})
	require.NoError(t, err)

	var coords [][]int
	for _, p := range collect(t, bi) {
		coords = append(coords, p.ChunkCoords)
	}
	require.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, coords)
}

func TestBasicIndexerProjectionCounts(t *testing.T) {
	// Every projection maps the same number of elements on both sides,
	// and the output spans tile the result without gaps or overlap.
	bi, err := NewBasicIndexer(
		[]DimSelection{NewSliceStep(None, None, -1), NewSlice(1, 6)},
		[]int{5, 7}, []int{2, 3},
	)
	require.NoError(t, err)

	covered := make(map[[2]int]int)
	for _, p := range collect(t, bi) {
		chunkN, outN := 1, 1
		for _, s := range p.chunkSel {
			if !s.scalar {
				chunkN *= s.count
			}
		}
		for _, s := range p.outSel {
			outN *= s.count
		}
		require.Equal(t, chunkN, outN)

		for i := p.outSel[0].start; i < p.outSel[0].start+p.outSel[0].count; i++ {
			for j := p.outSel[1].start; j < p.outSel[1].start+p.outSel[1].count; j++ {
				covered[[2]int{i, j}]++
			}
		}
	}
	require.Len(t, covered, 5*5)
	for pos, n := range covered {
		require.Equal(t, 1, n, "output position %v covered %d times", pos, n)
	}
}

func TestBasicIndexerEmptyAxisEmptiesStream(t *testing.T) {
	bi, err := NewBasicIndexer([]DimSelection{NewSlice(0, 0)}, []int{2, 3}, []int{2, 3})
	require.NoError(t, err)
	require.Empty(t, collect(t, bi))
	require.Equal(t, []int{0, 3}, bi.OutShape())
}

func TestBasicIndexerZeroRank(t *testing.T) {
	bi, err := NewBasicIndexer(nil, []int{}, []int{})
	require.NoError(t, err)
	projs := collect(t, bi)
	require.Len(t, projs, 1)
	require.Empty(t, projs[0].ChunkCoords)
}

func TestIsTotalSlice(t *testing.T) {
	chunks := []int{2, 3}
	require.True(t, isTotalSlice([]span{
		{start: 0, step: 1, count: 2},
		{start: 0, step: 1, count: 3},
	}, chunks))
	require.False(t, isTotalSlice([]span{
		{start: 0, step: 1, count: 2},
		{start: 1, step: 1, count: 2},
	}, chunks))
	// stop-start equal to the chunk length is not enough; coverage must
	// begin at zero.
	require.False(t, isTotalSlice([]span{
		{start: 1, step: 1, count: 2},
		{start: 0, step: 1, count: 3},
	}, chunks))
	// A dropped axis only covers a chunk of extent one.
	require.True(t, isTotalSlice([]span{
		{start: 0, count: 1, scalar: true},
	}, []int{1}))
	require.False(t, isTotalSlice([]span{
		{start: 0, count: 1, scalar: true},
	}, []int{2}))
}

func TestContiguousOut(t *testing.T) {
	outShape := []int{4, 3}
	outStrides := strides(outShape)

	// A row range over full trailing axes is contiguous.
	off, ok := contiguousOut([]span{
		{start: 1, step: 1, count: 2},
		{start: 0, step: 1, count: 3},
	}, outShape, outStrides)
	require.True(t, ok)
	require.Equal(t, 3, off)

	// A partial trailing axis after a partial leading axis is not.
	_, ok = contiguousOut([]span{
		{start: 1, step: 1, count: 2},
		{start: 0, step: 1, count: 2},
	}, outShape, outStrides)
	require.False(t, ok)
}
