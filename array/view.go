package array

import (
	"context"
	"fmt"

	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/lorenzocerrone/zarrs/subset"
)

// ArrayView addresses a rectangular window of a caller-owned row-major
// buffer. Decoded bytes are written into the window instead of a freshly
// allocated result. Views of the same buffer must not overlap when used
// concurrently.
type ArrayView struct {
	data   []byte
	shape  []uint64
	window subset.ArraySubset
}

// NewArrayView creates a view of data, which holds an array of the given
// shape; window selects the region operations apply to.
func NewArrayView(data []byte, shape []uint64, window subset.ArraySubset, elementSize int) (*ArrayView, error) {
	if window.Dimensionality() != len(shape) {
		return nil, fmt.Errorf("%w: window %v for shape %v", ErrInvalidArraySubset, window, shape)
	}
	if !window.InsideShape(shape) {
		return nil, fmt.Errorf("%w: window %v exceeds shape %v", ErrInvalidArraySubset, window, shape)
	}
	expected := uint64(elementSize)
	for _, c := range shape {
		expected *= c
	}
	if uint64(len(data)) != expected {
		return nil, fmt.Errorf("view buffer has %d bytes, expected %d for shape %v", len(data), expected, shape)
	}
	s := make([]uint64, len(shape))
	copy(s, shape)
	return &ArrayView{data: data, shape: s, window: window}, nil
}

// Shape returns the shape of the viewed buffer.
func (v *ArrayView) Shape() []uint64 { return v.shape }

// Window returns the view's window subset.
func (v *ArrayView) Window() subset.ArraySubset { return v.window }

// write scatters bytes, the window's elements in row-major order, into the
// buffer.
func (v *ArrayView) write(bytes []byte, elementSize uint64) error {
	return v.window.OverwriteBytes(v.data, v.shape, elementSize, bytes)
}

// RetrieveChunkIntoArrayView decodes a chunk directly into a view. The
// view's window shape must equal the chunk shape.
func (a *Array) RetrieveChunkIntoArrayView(ctx context.Context, chunkCoords []uint64, view *ArrayView, opts codec.Options) error {
	rep, err := a.ChunkRepresentation(chunkCoords)
	if err != nil {
		return err
	}
	if !sameShape(view.window.Shape(), rep.Shape()) {
		return fmt.Errorf("%w: view window %v for chunk shape %v", ErrInvalidArraySubset, view.window, rep.Shape())
	}
	data, err := a.RetrieveChunk(ctx, chunkCoords, opts)
	if err != nil {
		return err
	}
	return view.write(data, uint64(rep.ElementSize()))
}

// RetrieveChunkSubsetIntoArrayView decodes a chunk subset directly into a
// view. The view's window shape must equal the subset shape.
func (a *Array) RetrieveChunkSubsetIntoArrayView(ctx context.Context, chunkCoords []uint64, chunkSubset subset.ArraySubset, view *ArrayView, opts codec.Options) error {
	if !sameShape(view.window.Shape(), chunkSubset.Shape()) {
		return fmt.Errorf("%w: view window %v for subset %v", ErrInvalidArraySubset, view.window, chunkSubset)
	}
	data, err := a.RetrieveChunkSubset(ctx, chunkCoords, chunkSubset, opts)
	if err != nil {
		return err
	}
	return view.write(data, uint64(a.meta.DataType.ElementSize()))
}

// RetrieveArraySubsetIntoArrayView reads an array subset directly into a
// view. The view's window shape must equal the subset shape.
func (a *Array) RetrieveArraySubsetIntoArrayView(ctx context.Context, s subset.ArraySubset, view *ArrayView, opts codec.Options) error {
	if !sameShape(view.window.Shape(), s.Shape()) {
		return fmt.Errorf("%w: view window %v for subset %v", ErrInvalidArraySubset, view.window, s)
	}
	data, err := a.RetrieveArraySubset(ctx, s, opts)
	if err != nil {
		return err
	}
	return view.write(data, uint64(a.meta.DataType.ElementSize()))
}

func sameShape(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
