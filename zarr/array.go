package zarr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
)

// Array is a chunked n-dimensional array backed by a Store. Reads and
// writes accept arbitrary hyper-rectangular selections; the engine
// translates them into per-chunk loads, decodes, partial writes and
// encodes. A single Array makes no guarantees for concurrent callers
// touching overlapping regions.
type Array struct {
	store Store
	path  string

	meta       *Metadata
	dtype      DType
	fill       float64
	fillNull   bool
	compressor Codec
	filters    []Codec
	sep        string

	readOnly  bool
	cacheMeta bool
}

// ArrayOption configures an Array at open time.
type ArrayOption func(*Array)

// WithReadOnly rejects SetSelection with ErrReadOnly.
func WithReadOnly() ArrayOption {
	return func(a *Array) { a.readOnly = true }
}

// WithoutMetadataCaching reloads .zarray before every operation instead
// of keeping the copy loaded at open time.
func WithoutMetadataCaching() ArrayOption {
	return func(a *Array) { a.cacheMeta = false }
}

// OpenArray opens the array stored under path in the given store. The
// path is normalized to end in "/" (empty for the store root); the
// metadata document is expected at <path>.zarray.
func OpenArray(ctx context.Context, store Store, path string, opts ...ArrayOption) (*Array, error) {
	a := &Array{
		store:     store,
		path:      normalizePath(path),
		cacheMeta: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.loadMetadata(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func normalizePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return ""
	}
	return path + "/"
}

func (a *Array) loadMetadata(ctx context.Context) error {
	raw, err := a.store.GetItem(ctx, a.path+".zarray")
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return fmt.Errorf("%w: %s.zarray", ErrMetadataMissing, a.path)
		}
		return err
	}
	meta, err := LoadMetadata(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	if err := meta.Validate(); err != nil {
		return err
	}

	dt, err := ParseDType(meta.DType)
	if err != nil {
		return err
	}
	fill, fillNull, err := meta.ParseFillValue(dt)
	if err != nil {
		return err
	}
	compressor, err := compressorFor(meta.Compressor)
	if err != nil {
		return err
	}
	filters, err := filtersFor(meta.Filters, dt.ItemSize())
	if err != nil {
		return err
	}

	a.meta = meta
	a.dtype = dt
	a.fill = fill
	a.fillNull = fillNull
	a.compressor = compressor
	a.filters = filters
	a.sep = meta.Separator()
	return nil
}

// refresh reloads metadata when caching is disabled.
func (a *Array) refresh(ctx context.Context) error {
	if a.cacheMeta {
		return nil
	}
	return a.loadMetadata(ctx)
}

// Shape returns a copy of the array shape.
func (a *Array) Shape() []int {
	out := make([]int, len(a.meta.Shape))
	copy(out, a.meta.Shape)
	return out
}

// Chunks returns a copy of the chunk grid.
func (a *Array) Chunks() []int {
	out := make([]int, len(a.meta.Chunks))
	copy(out, a.meta.Chunks)
	return out
}

// DType returns the array's element type.
func (a *Array) DType() DType { return a.dtype }

// Metadata returns the loaded .zarray metadata.
func (a *Array) Metadata() *Metadata { return a.meta }

// ReadOnly reports whether writes are rejected.
func (a *Array) ReadOnly() bool { return a.readOnly }

func (a *Array) chunkKey(coords []int) string {
	return a.path + ChunkKey(coords, a.sep)
}

func (a *Array) chunkByteLen() int {
	return product(a.meta.Chunks) * a.dtype.ItemSize()
}

// GetSelection reads the selected region into a fresh NestedArray.
// Axes selected with an integer Index are dropped from the result.
// Chunks absent from the store read as the fill value; with a null fill
// value their output positions stay zero.
func (a *Array) GetSelection(ctx context.Context, sel ...DimSelection) (*NestedArray, error) {
	if err := a.refresh(ctx); err != nil {
		return nil, err
	}
	bi, err := NewBasicIndexer(sel, a.meta.Shape, a.meta.Chunks)
	if err != nil {
		return nil, err
	}
	out := NewNestedArray(a.dtype, bi.OutShape())
	if out.Size() == 0 {
		return out, nil
	}

	var fillPattern []byte
	if !a.fillNull {
		fillPattern = make([]byte, a.dtype.ItemSize())
		putScalar(fillPattern, a.dtype, a.fill)
	}

	err = bi.forEach(func(p ChunkProjection) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := a.store.GetItem(ctx, a.chunkKey(p.ChunkCoords))
		if errors.Is(err, ErrKeyNotFound) {
			if fillPattern != nil {
				base, strs, counts := spanView(p.outSel, out.str)
				fillRegion(out.data, base, strs, counts, fillPattern)
			}
			return nil
		}
		if err != nil {
			return err
		}
		buf, err := a.decodeChunk(raw)
		if err != nil {
			return err
		}

		if len(a.filters) == 0 && isTotalSlice(p.chunkSel, a.meta.Chunks) {
			if off, ok := contiguousOut(p.outSel, out.shape, out.str); ok {
				copy(out.data[off*a.dtype.ItemSize():], buf)
				return nil
			}
		}

		chunkStrides := strides(a.meta.Chunks)
		srcBase, srcStrides, counts := spanView(p.chunkSel, chunkStrides)
		dstBase, dstStrides, _ := spanView(p.outSel, out.str)
		copyRegion(out.data, dstBase, dstStrides, buf, srcBase, srcStrides, counts, a.dtype.ItemSize())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get is GetSelection with rank-0 results unwrapped to their native
// scalar type.
func (a *Array) Get(ctx context.Context, sel ...DimSelection) (any, error) {
	out, err := a.GetSelection(ctx, sel...)
	if err != nil {
		return nil, err
	}
	if len(out.shape) == 0 {
		return out.Item()
	}
	return out, nil
}

// SetSelection writes value into the selected region. value may be a
// *NestedArray whose shape equals the selection's output shape, a flat
// little-endian []byte of matching length, or a numeric scalar to
// broadcast. A selection that covers whole chunks replaces them without
// reading; partial chunks are read, modified and written back, with
// absent chunks initialised from the fill value (zero when null).
func (a *Array) SetSelection(ctx context.Context, value any, sel ...DimSelection) error {
	if a.readOnly {
		return fmt.Errorf("%w: set on %q", ErrReadOnly, a.path)
	}
	if err := a.refresh(ctx); err != nil {
		return err
	}
	bi, err := NewBasicIndexer(sel, a.meta.Shape, a.meta.Chunks)
	if err != nil {
		return err
	}

	var src *NestedArray
	var scalarPattern []byte
	if f, ok := toFloat64(value); ok {
		scalarPattern = make([]byte, a.dtype.ItemSize())
		putScalar(scalarPattern, a.dtype, f)
	} else {
		src, err = coerceValue(value, a.dtype, bi.OutShape())
		if err != nil {
			return err
		}
	}

	var fillPattern []byte
	if !a.fillNull {
		fillPattern = make([]byte, a.dtype.ItemSize())
		putScalar(fillPattern, a.dtype, a.fill)
	}

	chunkStrides := strides(a.meta.Chunks)
	return bi.forEach(func(p ChunkProjection) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := a.chunkKey(p.ChunkCoords)
		total := isTotalSlice(p.chunkSel, a.meta.Chunks)

		var buf []byte
		if total {
			buf = make([]byte, a.chunkByteLen())
		} else {
			raw, err := a.store.GetItem(ctx, key)
			switch {
			case errors.Is(err, ErrKeyNotFound):
				buf = make([]byte, a.chunkByteLen())
				if fillPattern != nil && a.fill != 0 {
					for i := 0; i < len(buf); i += len(fillPattern) {
						copy(buf[i:], fillPattern)
					}
				}
			case err != nil:
				return err
			default:
				if buf, err = a.decodeChunk(raw); err != nil {
					return err
				}
			}
		}

		dstBase, dstStrides, counts := spanView(p.chunkSel, chunkStrides)
		if scalarPattern != nil {
			fillRegion(buf, dstBase, dstStrides, counts, scalarPattern)
		} else {
			srcBase, srcStrides, _ := spanView(p.outSel, src.str)
			copyRegion(buf, dstBase, dstStrides, src.data, srcBase, srcStrides, counts, a.dtype.ItemSize())
		}

		encoded, err := a.encodeChunk(buf)
		if err != nil {
			return err
		}
		return a.store.SetItem(ctx, key, encoded)
	})
}

// decodeChunk turns raw stored bytes into a full-size little-endian
// chunk buffer: decompress, undo filters in reverse, byte-swap
// big-endian dtypes, then check the length against the chunk shape.
func (a *Array) decodeChunk(raw []byte) ([]byte, error) {
	buf := raw
	var err error
	if a.compressor != nil {
		if buf, err = a.compressor.Decode(buf); err != nil {
			return nil, err
		}
	}
	for i := len(a.filters) - 1; i >= 0; i-- {
		if buf, err = a.filters[i].Decode(buf); err != nil {
			return nil, err
		}
	}
	if a.dtype.BigEndian {
		byteSwap(buf, a.dtype.ItemSize())
	}
	if len(buf) != a.chunkByteLen() {
		return nil, fmt.Errorf("%w: decoded chunk is %d bytes, want %d",
			ErrValue, len(buf), a.chunkByteLen())
	}
	return buf, nil
}

// encodeChunk is the inverse of decodeChunk. It may mutate buf.
func (a *Array) encodeChunk(buf []byte) ([]byte, error) {
	if a.dtype.BigEndian {
		byteSwap(buf, a.dtype.ItemSize())
	}
	var err error
	for _, f := range a.filters {
		if buf, err = f.Encode(buf); err != nil {
			return nil, err
		}
	}
	if a.compressor != nil {
		if buf, err = a.compressor.Encode(buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}
