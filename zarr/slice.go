package zarr

import (
	"fmt"
	"math"
)

// None marks a Slice field as unset. An unset field takes the NumPy
// default for the step's sign.
const None = math.MinInt

// Slice selects a range along one axis with NumPy semantics:
// negative Start/Stop count from the end of the axis, a negative Step
// iterates in reverse, and out-of-range bounds are clamped rather than
// rejected.
type Slice struct {
	Start, Stop, Step int
}

// FullSlice selects an entire axis.
func FullSlice() Slice {
	return Slice{Start: None, Stop: None, Step: None}
}

// NewSlice selects [start, stop) with step 1.
func NewSlice(start, stop int) Slice {
	return Slice{Start: start, Stop: stop, Step: None}
}

// NewSliceStep selects [start, stop) with the given step.
func NewSliceStep(start, stop, step int) Slice {
	return Slice{Start: start, Stop: stop, Step: step}
}

// DimSelection selects along a single axis: either a Slice or an
// integer Index (which drops the axis from the result).
type DimSelection interface {
	isDimSelection()
}

func (Slice) isDimSelection() {}

// Index selects a single position along an axis. Negative values count
// from the end. The indexed axis is absent from the operation's output.
type Index int

func (Index) isDimSelection() {}

// normalizeSlice resolves a Slice against an axis of length n and
// returns a concrete (start, stop, step) triple plus the number of
// elements it yields. The triple is directly usable as a loop
// descriptor; for a negative step, stop may be -1 meaning "past the
// beginning".
func normalizeSlice(s Slice, n int) (start, stop, step, count int, err error) {
	step = s.Step
	if step == None {
		step = 1
	}
	if step == 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: step must not be zero", ErrInvalidSlice)
	}

	if step > 0 {
		start, stop = 0, n
	} else {
		start, stop = n-1, -1
	}

	if s.Start != None {
		start = s.Start
		if start < 0 {
			start += n
		}
		if start < 0 {
			if step > 0 {
				start = 0
			} else {
				start = -1
			}
		} else if start >= n {
			if step > 0 {
				start = n
			} else {
				start = n - 1
			}
		}
	}

	if s.Stop != None {
		stop = s.Stop
		if stop < 0 {
			stop += n
		}
		if stop < 0 {
			if step > 0 {
				stop = 0
			} else {
				stop = -1
			}
		} else if stop >= n {
			if step > 0 {
				stop = n
			} else {
				stop = n - 1
			}
		}
	}

	if step > 0 {
		if stop > start {
			count = (stop - start + step - 1) / step
		}
	} else {
		if start > stop {
			count = (start - stop - step - 1) / -step
		}
	}
	return start, stop, step, count, nil
}

// normalizeInt resolves a possibly-negative index against an axis of
// length n.
func normalizeInt(i, n int) (int, error) {
	v := i
	if v < 0 {
		v += n
	}
	if v < 0 || v >= n {
		return 0, fmt.Errorf("%w: index %d for axis of length %d", ErrBoundsCheck, i, n)
	}
	return v, nil
}
