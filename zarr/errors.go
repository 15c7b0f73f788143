// Package zarr reads and writes Zarr v2 arrays stored as per-chunk blobs
// behind a key-value store. Arbitrary hyper-rectangular selections
// (NumPy-style slices and integer indices) are translated into the minimal
// set of chunk loads, decodes, partial writes and encodes.
package zarr

import "errors"

// Common errors. Callers discriminate with errors.Is; the engine wraps
// these with operation context.
var (
	ErrBoundsCheck     = errors.New("index out of bounds")
	ErrInvalidSlice    = errors.New("invalid slice")
	ErrTooManyIndices  = errors.New("too many indices for array")
	ErrNegativeStep    = errors.New("negative step not supported here")
	ErrValue           = errors.New("invalid value")
	ErrReadOnly        = errors.New("array is read-only")
	ErrKeyNotFound     = errors.New("key not found")
	ErrMetadataMissing = errors.New("array metadata not found")
)
