package zarr

import (
	"context"
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Dataset iterates a Zarr array along its first axis in batches,
// yielding gomlx tensors. It is a thin cursor over an Array, so every
// dtype, compressor and fill value the engine understands works here
// too.
type Dataset struct {
	arr          *Array
	store        *BlobStore // owned when opened via NewDataset
	CurrentIndex int
}

// NewDataset opens the array at the given bucket URL and wraps it in a
// cursor positioned at row 0.
func NewDataset(ctx context.Context, path string) (*Dataset, error) {
	store, err := OpenStore(ctx, path)
	if err != nil {
		return nil, err
	}
	arr, err := OpenArray(ctx, store, "")
	if err != nil {
		store.Close()
		return nil, err
	}
	if len(arr.meta.Shape) == 0 {
		store.Close()
		return nil, fmt.Errorf("%w: cannot batch over a 0-d array", ErrValue)
	}
	return &Dataset{arr: arr, store: store}, nil
}

// NewDatasetFromArray wraps an already-open array. The caller keeps
// ownership of the array's store.
func NewDatasetFromArray(arr *Array) (*Dataset, error) {
	if len(arr.meta.Shape) == 0 {
		return nil, fmt.Errorf("%w: cannot batch over a 0-d array", ErrValue)
	}
	return &Dataset{arr: arr}, nil
}

// Array returns the underlying array.
func (d *Dataset) Array() *Array { return d.arr }

// NextBatch reads the next batch of up to batchSize rows along axis 0.
// Returns io.EOF when the array is exhausted.
func (d *Dataset) NextBatch(ctx context.Context, batchSize int) (*tensors.Tensor, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size %d", ErrValue, batchSize)
	}
	if d.CurrentIndex >= d.arr.meta.Shape[0] {
		return nil, io.EOF
	}

	start := d.CurrentIndex
	end := min(start+batchSize, d.arr.meta.Shape[0])

	batch, err := d.arr.GetSelection(ctx, NewSlice(start, end))
	if err != nil {
		return nil, err
	}

	d.CurrentIndex = end
	return batch.Tensor()
}

// Reset rewinds the cursor to row 0.
func (d *Dataset) Reset() { d.CurrentIndex = 0 }

// Close releases the store if the dataset owns it.
func (d *Dataset) Close() error {
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}
