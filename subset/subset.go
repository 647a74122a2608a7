package subset

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrDimensionMismatch = errors.New("dimensionality mismatch")
	ErrEndBeforeStart    = errors.New("end is before start")
)

// IncompatibleShapeError reports a subset that does not fit inside an array
// shape.
type IncompatibleShapeError struct {
	Subset ArraySubset
	Shape  []uint64
}

func (e *IncompatibleShapeError) Error() string {
	return fmt.Sprintf("subset %v is not compatible with array shape %v", e.Subset, e.Shape)
}

// ArraySubset is a rectangular region of N-dimensional index space. The zero
// value is the zero-dimensional subset, which holds one element.
type ArraySubset struct {
	start []uint64
	shape []uint64
}

// New creates the subset with the given start and shape.
func New(start, shape []uint64) (ArraySubset, error) {
	if len(start) != len(shape) {
		return ArraySubset{}, fmt.Errorf("%w: start %v, shape %v", ErrDimensionMismatch, start, shape)
	}
	return ArraySubset{start: clone(start), shape: clone(shape)}, nil
}

// Full returns the subset covering the whole of an array with the given
// shape, starting at the origin.
func Full(shape []uint64) ArraySubset {
	return ArraySubset{start: make([]uint64, len(shape)), shape: clone(shape)}
}

// NewFromStartEndExc creates the subset [start_i, end_i) per axis.
func NewFromStartEndExc(start, end []uint64) (ArraySubset, error) {
	if len(start) != len(end) {
		return ArraySubset{}, fmt.Errorf("%w: start %v, end %v", ErrDimensionMismatch, start, end)
	}
	shape := make([]uint64, len(start))
	for i := range start {
		if end[i] < start[i] {
			return ArraySubset{}, fmt.Errorf("%w: axis %d: [%d, %d)", ErrEndBeforeStart, i, start[i], end[i])
		}
		shape[i] = end[i] - start[i]
	}
	return ArraySubset{start: clone(start), shape: shape}, nil
}

// NewFromStartEndInc creates the subset [start_i, end_i] per axis.
func NewFromStartEndInc(start, end []uint64) (ArraySubset, error) {
	if len(start) != len(end) {
		return ArraySubset{}, fmt.Errorf("%w: start %v, end %v", ErrDimensionMismatch, start, end)
	}
	shape := make([]uint64, len(start))
	for i := range start {
		if end[i] < start[i] {
			return ArraySubset{}, fmt.Errorf("%w: axis %d: [%d, %d]", ErrEndBeforeStart, i, start[i], end[i])
		}
		shape[i] = end[i] - start[i] + 1
	}
	return ArraySubset{start: clone(start), shape: shape}, nil
}

func clone(v []uint64) []uint64 {
	out := make([]uint64, len(v))
	copy(out, v)
	return out
}

// Start returns the start coordinates. The slice must not be modified.
func (s ArraySubset) Start() []uint64 { return s.start }

// Shape returns the shape. The slice must not be modified.
func (s ArraySubset) Shape() []uint64 { return s.shape }

// End returns the exclusive end coordinates.
func (s ArraySubset) End() []uint64 {
	end := make([]uint64, len(s.start))
	for i := range s.start {
		end[i] = s.start[i] + s.shape[i]
	}
	return end
}

// Dimensionality returns the number of axes.
func (s ArraySubset) Dimensionality() int { return len(s.start) }

// NumElements returns the number of coordinates in the subset. A
// zero-dimensional subset holds one element.
func (s ArraySubset) NumElements() uint64 {
	n := uint64(1)
	for _, c := range s.shape {
		n *= c
	}
	return n
}

// IsEmpty reports whether any shape component is zero.
func (s ArraySubset) IsEmpty() bool {
	for _, c := range s.shape {
		if c == 0 {
			return true
		}
	}
	return false
}

// Contains reports whether the coordinates lie inside the subset.
func (s ArraySubset) Contains(indices []uint64) bool {
	if len(indices) != len(s.start) {
		return false
	}
	for i, x := range indices {
		if x < s.start[i] || x >= s.start[i]+s.shape[i] {
			return false
		}
	}
	return true
}

// InsideShape reports whether the subset lies entirely inside an array of
// the given shape.
func (s ArraySubset) InsideShape(shape []uint64) bool {
	if len(shape) != len(s.start) {
		return false
	}
	for i := range s.start {
		if s.start[i]+s.shape[i] > shape[i] {
			return false
		}
	}
	return true
}

// Overlap returns the intersection of two subsets. An empty intersection is
// a valid subset with at least one zero shape component.
func (s ArraySubset) Overlap(other ArraySubset) (ArraySubset, error) {
	if other.Dimensionality() != s.Dimensionality() {
		return ArraySubset{}, fmt.Errorf("%w: %v and %v", ErrDimensionMismatch, s, other)
	}
	start := make([]uint64, len(s.start))
	shape := make([]uint64, len(s.start))
	for i := range s.start {
		start[i] = max64(s.start[i], other.start[i])
		end := min64(s.start[i]+s.shape[i], other.start[i]+other.shape[i])
		if end > start[i] {
			shape[i] = end - start[i]
		}
	}
	return ArraySubset{start: start, shape: shape}, nil
}

// RelativeTo translates the subset into the coordinate system with the given
// origin. Every start coordinate must be at or beyond the origin.
func (s ArraySubset) RelativeTo(origin []uint64) (ArraySubset, error) {
	if len(origin) != len(s.start) {
		return ArraySubset{}, fmt.Errorf("%w: %v relative to %v", ErrDimensionMismatch, s, origin)
	}
	start := make([]uint64, len(s.start))
	for i := range s.start {
		if s.start[i] < origin[i] {
			return ArraySubset{}, fmt.Errorf("subset %v starts before origin %v", s, origin)
		}
		start[i] = s.start[i] - origin[i]
	}
	return ArraySubset{start: start, shape: clone(s.shape)}, nil
}

// Bound clips the subset to an array of the given shape.
func (s ArraySubset) Bound(shape []uint64) (ArraySubset, error) {
	if len(shape) != len(s.start) {
		return ArraySubset{}, fmt.Errorf("%w: %v bound to %v", ErrDimensionMismatch, s, shape)
	}
	return s.Overlap(Full(shape))
}

func (s ArraySubset) String() string {
	return fmt.Sprintf("{start %v, shape %v}", s.start, s.shape)
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// RavelIndices converts coordinates to a flat row-major offset within shape.
func RavelIndices(indices, shape []uint64) uint64 {
	var offset uint64
	for i, x := range indices {
		offset = offset*shape[i] + x
	}
	return offset
}

// UnravelIndex converts a flat row-major offset within shape to coordinates.
func UnravelIndex(offset uint64, shape []uint64) []uint64 {
	out := make([]uint64, len(shape))
	for i := len(shape) - 1; i >= 0; i-- {
		out[i] = offset % shape[i]
		offset /= shape[i]
	}
	return out
}
