package zarr

import "fmt"

// span is a per-axis selection in concrete form: count elements starting
// at start, step apart. A scalar span comes from an integer index and is
// dropped from the output coordinate space.
type span struct {
	start  int
	step   int
	count  int
	scalar bool
}

// dimProjection is one axis's contribution to a chunk projection: which
// chunk along the axis, the selection inside that chunk's local
// coordinates, and where the selected elements land in the output.
type dimProjection struct {
	chunkIdx   int
	localStart int
	localStep  int
	count      int
	outStart   int
	scalar     bool
}

// dimIndexer enumerates the chunks one axis selection touches.
type dimIndexer interface {
	projections() []dimProjection
	numItems() int
	dropped() bool
}

// sliceDimIndexer covers a slice selection along one axis. Chunks are
// enumerated in the order determined by the step sign; chunks containing
// no point of the arithmetic progression are skipped.
type sliceDimIndexer struct {
	nitems int
	projs  []dimProjection
}

func newSliceDimIndexer(s Slice, dimLen, chunkLen int) (*sliceDimIndexer, error) {
	start, stop, step, count, err := normalizeSlice(s, dimLen)
	if err != nil {
		return nil, err
	}
	di := &sliceDimIndexer{nitems: count}
	if count == 0 {
		return di, nil
	}

	if step > 0 {
		first := start / chunkLen
		last := (start + (count-1)*step) / chunkLen
		outOff := 0
		for c := first; c <= last; c++ {
			lo := c * chunkLen
			hi := lo + chunkLen
			// First progression point at or past the chunk start.
			p := start
			if p < lo {
				k := (lo - start + step - 1) / step
				p = start + k*step
			}
			limit := min(hi, stop)
			if p >= limit {
				continue
			}
			n := (limit - p + step - 1) / step
			di.projs = append(di.projs, dimProjection{
				chunkIdx:   c,
				localStart: p - lo,
				localStep:  step,
				count:      n,
				outStart:   outOff,
			})
			outOff += n
		}
	} else {
		neg := -step
		first := start / chunkLen
		last := (start + (count-1)*step) / chunkLen
		outOff := 0
		for c := first; c >= last; c-- {
			lo := c * chunkLen
			hi := lo + chunkLen
			// First progression point at or before the chunk end.
			p := start
			if p > hi-1 {
				k := (start - (hi - 1) + neg - 1) / neg
				p = start - k*neg
			}
			limit := max(lo, stop+1)
			if p < limit {
				continue
			}
			n := (p-limit)/neg + 1
			di.projs = append(di.projs, dimProjection{
				chunkIdx:   c,
				localStart: p - lo,
				localStep:  step,
				count:      n,
				outStart:   outOff,
			})
			outOff += n
		}
	}
	return di, nil
}

func (di *sliceDimIndexer) projections() []dimProjection { return di.projs }
func (di *sliceDimIndexer) numItems() int                { return di.nitems }
func (di *sliceDimIndexer) dropped() bool                { return false }

// intDimIndexer covers an integer selection: a single chunk, a single
// element, and no output axis.
type intDimIndexer struct {
	proj dimProjection
}

func newIntDimIndexer(i Index, dimLen, chunkLen int) (*intDimIndexer, error) {
	v, err := normalizeInt(int(i), dimLen)
	if err != nil {
		return nil, err
	}
	return &intDimIndexer{proj: dimProjection{
		chunkIdx:   v / chunkLen,
		localStart: v % chunkLen,
		localStep:  1,
		count:      1,
		scalar:     true,
	}}, nil
}

func (di *intDimIndexer) projections() []dimProjection { return []dimProjection{di.proj} }
func (di *intDimIndexer) numItems() int                { return 1 }
func (di *intDimIndexer) dropped() bool                { return true }

// ChunkProjection maps one chunk touched by a selection onto the output:
// the chunk's grid coordinates, the selection within the chunk's local
// coordinate system, and the region of the output it fills. Output spans
// are always unit-step contiguous ranges.
type ChunkProjection struct {
	ChunkCoords []int
	chunkSel    []span // one per array axis
	outSel      []span // one per surviving output axis
}

// BasicIndexer translates a selection against a shape and chunk grid
// into a finite stream of chunk projections, visiting chunks in
// row-major order with axis 0 outermost.
type BasicIndexer struct {
	dims     []dimIndexer
	outShape []int
	dropAxes []int
}

// NewBasicIndexer normalizes a selection to exactly one entry per axis
// (right-padding with full-axis slices) and builds per-axis indexers.
func NewBasicIndexer(sel []DimSelection, shape, chunks []int) (*BasicIndexer, error) {
	ndim := len(shape)
	if len(sel) > ndim {
		return nil, fmt.Errorf("%w: %d indices for %d dimensions", ErrTooManyIndices, len(sel), ndim)
	}
	bi := &BasicIndexer{}
	for d := 0; d < ndim; d++ {
		var ds DimSelection = FullSlice()
		if d < len(sel) && sel[d] != nil {
			ds = sel[d]
		}
		switch s := ds.(type) {
		case Slice:
			di, err := newSliceDimIndexer(s, shape[d], chunks[d])
			if err != nil {
				return nil, err
			}
			bi.dims = append(bi.dims, di)
			bi.outShape = append(bi.outShape, di.numItems())
		case Index:
			di, err := newIntDimIndexer(s, shape[d], chunks[d])
			if err != nil {
				return nil, err
			}
			bi.dims = append(bi.dims, di)
			bi.dropAxes = append(bi.dropAxes, d)
		default:
			return nil, fmt.Errorf("%w: unsupported selection %T", ErrValue, ds)
		}
	}
	return bi, nil
}

// OutShape returns the shape of the operation's result, with integer-
// indexed axes dropped.
func (bi *BasicIndexer) OutShape() []int {
	out := make([]int, len(bi.outShape))
	copy(out, bi.outShape)
	return out
}

// DropAxes returns the array axes removed from the output by integer
// indices.
func (bi *BasicIndexer) DropAxes() []int {
	out := make([]int, len(bi.dropAxes))
	copy(out, bi.dropAxes)
	return out
}

// forEach walks the Cartesian product of the per-axis projections and
// assembles one ChunkProjection per combination. If any axis yields no
// projections the stream is empty.
func (bi *BasicIndexer) forEach(fn func(ChunkProjection) error) error {
	ndim := len(bi.dims)
	if ndim == 0 {
		// 0-d array: a single chunk with no axes.
		return fn(ChunkProjection{ChunkCoords: []int{}})
	}

	per := make([][]dimProjection, ndim)
	for d, di := range bi.dims {
		per[d] = di.projections()
		if len(per[d]) == 0 {
			return nil
		}
	}

	odo := make([]int, ndim)
	for {
		p := ChunkProjection{ChunkCoords: make([]int, ndim)}
		for d := 0; d < ndim; d++ {
			dp := per[d][odo[d]]
			p.ChunkCoords[d] = dp.chunkIdx
			p.chunkSel = append(p.chunkSel, span{
				start:  dp.localStart,
				step:   dp.localStep,
				count:  dp.count,
				scalar: dp.scalar,
			})
			if !dp.scalar {
				p.outSel = append(p.outSel, span{
					start: dp.outStart,
					step:  1,
					count: dp.count,
				})
			}
		}
		if err := fn(p); err != nil {
			return err
		}

		d := ndim - 1
		for ; d >= 0; d-- {
			odo[d]++
			if odo[d] < len(per[d]) {
				break
			}
			odo[d] = 0
		}
		if d < 0 {
			return nil
		}
	}
}

// isTotalSlice reports whether the chunk-local selection covers an
// entire chunk of the given shape along every axis.
func isTotalSlice(chunkSel []span, chunks []int) bool {
	for d, s := range chunkSel {
		if s.start != 0 || s.count != chunks[d] {
			return false
		}
		if !s.scalar && s.count > 1 && s.step != 1 {
			return false
		}
	}
	return true
}

// contiguousOut reports whether the output spans address a contiguous
// run of the destination buffer, and returns its element offset. Once a
// non-full axis is seen, every following axis must be full.
func contiguousOut(outSel []span, outShape, outStrides []int) (int, bool) {
	offset := 0
	partial := false
	for k, s := range outSel {
		offset += s.start * outStrides[k]
		if partial && (s.start != 0 || s.count != outShape[k]) {
			return 0, false
		}
		if s.count != outShape[k] {
			partial = true
		}
	}
	return offset, true
}
