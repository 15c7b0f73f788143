package zarr

import (
	"context"
	"fmt"
)

// ReadFull reads the entire array.
func (a *Array) ReadFull(ctx context.Context) (*NestedArray, error) {
	return a.GetSelection(ctx)
}

// ReadRegion reads the axis-aligned rectangular region of the given
// start coordinates and shape.
func (a *Array) ReadRegion(ctx context.Context, start, shape []int) (*NestedArray, error) {
	if len(start) != len(a.meta.Shape) || len(shape) != len(a.meta.Shape) {
		return nil, fmt.Errorf("%w: start and shape must match array dimensionality", ErrValue)
	}
	for i := range a.meta.Shape {
		if start[i] < 0 || shape[i] < 0 || start[i]+shape[i] > a.meta.Shape[i] {
			return nil, fmt.Errorf("%w: region out of bounds at dimension %d", ErrBoundsCheck, i)
		}
	}
	sel := make([]DimSelection, len(start))
	for i := range start {
		sel[i] = NewSlice(start[i], start[i]+shape[i])
	}
	return a.GetSelection(ctx, sel...)
}

// WriteRegion writes a NestedArray into the axis-aligned rectangular
// region starting at the given coordinates.
func (a *Array) WriteRegion(ctx context.Context, start []int, value *NestedArray) error {
	if len(start) != len(a.meta.Shape) || len(value.shape) != len(a.meta.Shape) {
		return fmt.Errorf("%w: start and value must match array dimensionality", ErrValue)
	}
	sel := make([]DimSelection, len(start))
	for i := range start {
		sel[i] = NewSlice(start[i], start[i]+value.shape[i])
	}
	return a.SetSelection(ctx, value, sel...)
}
