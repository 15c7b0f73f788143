package zarr

import (
	"fmt"
	"slices"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// NestedArray is an in-memory n-dimensional array: a contiguous
// little-endian buffer in C order plus a shape and element type. It is
// the interchange type between the array engine and callers. Get and
// Set apply the same selection semantics as the engine, with the whole
// array treated as a single chunk.
type NestedArray struct {
	dtype DType
	shape []int
	str   []int // element strides, C order
	data  []byte
}

// NewNestedArray allocates a zero-initialised array.
func NewNestedArray(dt DType, shape []int) *NestedArray {
	return &NestedArray{
		dtype: dt,
		shape: slices.Clone(shape),
		str:   strides(shape),
		data:  make([]byte, product(shape)*dt.ItemSize()),
	}
}

// NestedArrayFromBytes wraps a flat little-endian buffer without
// copying. The buffer length must equal product(shape) * item size.
func NestedArrayFromBytes(dt DType, shape []int, data []byte) (*NestedArray, error) {
	if len(data) != product(shape)*dt.ItemSize() {
		return nil, fmt.Errorf("%w: buffer is %d bytes, shape %v of %s needs %d",
			ErrValue, len(data), shape, dt, product(shape)*dt.ItemSize())
	}
	return &NestedArray{
		dtype: dt,
		shape: slices.Clone(shape),
		str:   strides(shape),
		data:  data,
	}, nil
}

// Shape returns a copy of the array's shape.
func (a *NestedArray) Shape() []int { return slices.Clone(a.shape) }

// DType returns the element type tag.
func (a *NestedArray) DType() DType { return a.dtype }

// Size returns the total number of elements.
func (a *NestedArray) Size() int { return product(a.shape) }

// Bytes returns the underlying buffer. The buffer is shared with the
// array; mutate through Set instead unless the array is throwaway.
func (a *NestedArray) Bytes() []byte { return a.data }

// Flatten copies the elements into a fresh contiguous buffer in C order.
func (a *NestedArray) Flatten() []byte {
	out := make([]byte, len(a.data))
	copy(out, a.data)
	return out
}

// Item returns the single element of a rank-0 array in its native Go
// type.
func (a *NestedArray) Item() (any, error) {
	if len(a.shape) != 0 {
		return nil, fmt.Errorf("%w: Item on array of shape %v", ErrValue, a.shape)
	}
	return scalarAt(a.data, 0, a.dtype), nil
}

// Get extracts the selected region as a new NestedArray. Axes selected
// with an integer Index are dropped from the result's shape.
func (a *NestedArray) Get(sel ...DimSelection) (*NestedArray, error) {
	bi, err := NewBasicIndexer(sel, a.shape, a.singleChunk())
	if err != nil {
		return nil, err
	}
	out := NewNestedArray(a.dtype, bi.OutShape())
	if out.Size() == 0 {
		return out, nil
	}
	err = bi.forEach(func(p ChunkProjection) error {
		srcBase, srcStrides, counts := spanView(p.chunkSel, a.str)
		copyRegion(out.data, 0, out.str, a.data, srcBase, srcStrides, counts, a.dtype.ItemSize())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetValue is Get with rank-0 results unwrapped to their native scalar.
func (a *NestedArray) GetValue(sel ...DimSelection) (any, error) {
	out, err := a.Get(sel...)
	if err != nil {
		return nil, err
	}
	if len(out.shape) == 0 {
		return out.Item()
	}
	return out, nil
}

// Set writes value into the selected region. value may be a
// *NestedArray whose shape equals the selection's output shape, a flat
// little-endian []byte of matching length, or a numeric scalar to
// broadcast.
func (a *NestedArray) Set(value any, sel ...DimSelection) error {
	bi, err := NewBasicIndexer(sel, a.shape, a.singleChunk())
	if err != nil {
		return err
	}
	outShape := bi.OutShape()

	if f, ok := toFloat64(value); ok {
		pattern := make([]byte, a.dtype.ItemSize())
		putScalar(pattern, a.dtype, f)
		return bi.forEach(func(p ChunkProjection) error {
			base, strs, counts := spanView(p.chunkSel, a.str)
			fillRegion(a.data, base, strs, counts, pattern)
			return nil
		})
	}

	src, err := coerceValue(value, a.dtype, outShape)
	if err != nil {
		return err
	}
	return bi.forEach(func(p ChunkProjection) error {
		dstBase, dstStrides, counts := spanView(p.chunkSel, a.str)
		copyRegion(a.data, dstBase, dstStrides, src.data, 0, src.str, counts, a.dtype.ItemSize())
		return nil
	})
}

// Tensor converts the array to a gomlx tensor, copying the data.
func (a *NestedArray) Tensor() (*tensors.Tensor, error) {
	shape := a.shape
	if len(shape) == 0 {
		shape = []int{1}
	}
	switch v := bytesToTyped(a.dtype, a.data).(type) {
	case []float32:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []float64:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []int8:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []int16:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []int32:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []uint8:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []uint16:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	case []uint32:
		return tensors.FromFlatDataAndDimensions(v, shape...), nil
	default:
		return nil, fmt.Errorf("%w: no tensor mapping for dtype %s", ErrValue, a.dtype)
	}
}

// singleChunk returns the chunk grid that treats the whole array as one
// chunk. Zero-length axes still need a positive chunk extent.
func (a *NestedArray) singleChunk() []int {
	chunks := make([]int, len(a.shape))
	for i, n := range a.shape {
		chunks[i] = max(n, 1)
	}
	return chunks
}

// coerceValue normalizes a Set value into a NestedArray of the wanted
// shape and dtype.
func coerceValue(value any, dt DType, shape []int) (*NestedArray, error) {
	switch v := value.(type) {
	case *NestedArray:
		if !slices.Equal(v.shape, shape) {
			return nil, fmt.Errorf("%w: value shape %v does not match selection shape %v",
				ErrValue, v.shape, shape)
		}
		if v.dtype.Kind != dt.Kind || v.dtype.Size != dt.Size {
			return nil, fmt.Errorf("%w: value dtype %s does not match array dtype %s",
				ErrValue, v.dtype, dt)
		}
		return v, nil
	case []byte:
		return NestedArrayFromBytes(dt, shape, v)
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrValue, value)
	}
}

// spanView resolves per-axis spans against element strides: the base
// offset (scalar axes contribute a fixed offset), plus effective strides
// and counts for the surviving axes, in axis order.
func spanView(sel []span, str []int) (base int, effStrides, counts []int) {
	for d, s := range sel {
		base += s.start * str[d]
		if s.scalar {
			continue
		}
		effStrides = append(effStrides, s.step*str[d])
		counts = append(counts, s.count)
	}
	return base, effStrides, counts
}

// copyRegion copies a counts-shaped region between two strided buffers.
// Strides are in elements and already folded with the selection step;
// negative strides walk backwards. The innermost dimension is bulk
// copied when both sides are unit stride.
func copyRegion(dst []byte, dstBase int, dstStrides []int, src []byte, srcBase int, srcStrides []int, counts []int, itemSize int) {
	if len(counts) == 0 {
		copy(dst[dstBase*itemSize:(dstBase+1)*itemSize], src[srcBase*itemSize:(srcBase+1)*itemSize])
		return
	}

	var iterate func(dim, srcIdx, dstIdx int)
	iterate = func(dim, srcIdx, dstIdx int) {
		if dim == len(counts)-1 {
			n := counts[dim]
			if srcStrides[dim] == 1 && dstStrides[dim] == 1 {
				byteLen := n * itemSize
				copy(dst[dstIdx*itemSize:dstIdx*itemSize+byteLen], src[srcIdx*itemSize:srcIdx*itemSize+byteLen])
				return
			}
			for i := 0; i < n; i++ {
				s := (srcIdx + i*srcStrides[dim]) * itemSize
				d := (dstIdx + i*dstStrides[dim]) * itemSize
				copy(dst[d:d+itemSize], src[s:s+itemSize])
			}
			return
		}
		for i := 0; i < counts[dim]; i++ {
			iterate(dim+1, srcIdx+i*srcStrides[dim], dstIdx+i*dstStrides[dim])
		}
	}
	iterate(0, srcBase, dstBase)
}

// fillRegion broadcasts one encoded element over a counts-shaped region.
func fillRegion(dst []byte, base int, effStrides []int, counts []int, pattern []byte) {
	itemSize := len(pattern)
	if len(counts) == 0 {
		copy(dst[base*itemSize:(base+1)*itemSize], pattern)
		return
	}

	var iterate func(dim, idx int)
	iterate = func(dim, idx int) {
		if dim == len(counts)-1 {
			for i := 0; i < counts[dim]; i++ {
				d := (idx + i*effStrides[dim]) * itemSize
				copy(dst[d:d+itemSize], pattern)
			}
			return
		}
		for i := 0; i < counts[dim]; i++ {
			iterate(dim+1, idx+i*effStrides[dim])
		}
	}
	iterate(0, base)
}
