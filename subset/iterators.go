package subset

import "fmt"

// Indices iterates the coordinate tuples of a subset in row-major order.
type Indices struct {
	subset ArraySubset
	pos    uint64
	end    uint64
}

// Indices returns an iterator over the coordinates of the subset.
func (s ArraySubset) Indices() *Indices {
	return &Indices{subset: s, end: s.NumElements()}
}

// Len returns the number of coordinates remaining.
func (it *Indices) Len() uint64 { return it.end - it.pos }

// Next returns the next coordinate tuple, or false when exhausted.
func (it *Indices) Next() ([]uint64, bool) {
	if it.pos >= it.end {
		return nil, false
	}
	rel := UnravelIndex(it.pos, it.subset.shape)
	for i := range rel {
		rel[i] += it.subset.start[i]
	}
	it.pos++
	return rel, true
}

// NextBack returns the last remaining coordinate tuple, iterating from the
// back, or false when exhausted.
func (it *Indices) NextBack() ([]uint64, bool) {
	if it.pos >= it.end {
		return nil, false
	}
	it.end--
	rel := UnravelIndex(it.end, it.subset.shape)
	for i := range rel {
		rel[i] += it.subset.start[i]
	}
	return rel, true
}

// Split partitions the remaining coordinates into n disjoint iterators
// covering contiguous stretches of the logical sequence. Fewer than n
// iterators are returned when fewer elements remain.
func (it *Indices) Split(n int) []*Indices {
	if n < 1 {
		n = 1
	}
	total := it.Len()
	parts := make([]*Indices, 0, n)
	chunk := total / uint64(n)
	rem := total % uint64(n)
	pos := it.pos
	for i := 0; i < n && pos < it.end; i++ {
		size := chunk
		if uint64(i) < rem {
			size++
		}
		if size == 0 {
			continue
		}
		parts = append(parts, &Indices{subset: it.subset, pos: pos, end: pos + size})
		pos += size
	}
	return parts
}

// Collect drains the iterator into a slice.
func (it *Indices) Collect() [][]uint64 {
	out := make([][]uint64, 0, it.Len())
	for {
		indices, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, indices)
	}
}

// LinearisedIndices iterates the flat row-major offsets of a subset's
// coordinates within an enclosing array shape.
type LinearisedIndices struct {
	inner      *Indices
	arrayShape []uint64
}

// LinearisedIndices returns an iterator over the flat offsets of the
// subset's coordinates in an array of the given shape.
func (s ArraySubset) LinearisedIndices(arrayShape []uint64) (*LinearisedIndices, error) {
	if !s.InsideShape(arrayShape) {
		return nil, &IncompatibleShapeError{Subset: s, Shape: clone(arrayShape)}
	}
	return &LinearisedIndices{inner: s.Indices(), arrayShape: clone(arrayShape)}, nil
}

// Len returns the number of offsets remaining.
func (it *LinearisedIndices) Len() uint64 { return it.inner.Len() }

// Next returns the next flat offset, or false when exhausted.
func (it *LinearisedIndices) Next() (uint64, bool) {
	indices, ok := it.inner.Next()
	if !ok {
		return 0, false
	}
	return RavelIndices(indices, it.arrayShape), true
}

// ContiguousIndices iterates maximal contiguous runs of a subset within an
// enclosing array shape. Each run is reported as its start coordinates and
// its element count.
type ContiguousIndices struct {
	outer      *Indices // iterates run starts in the collapsed outer dims
	runLen     uint64
	runStartLo []uint64 // fixed trailing coordinates of every run start
}

// ContiguousIndices returns a run iterator for the subset within an array of
// the given shape.
func (s ArraySubset) ContiguousIndices(arrayShape []uint64) (*ContiguousIndices, error) {
	if !s.InsideShape(arrayShape) {
		return nil, &IncompatibleShapeError{Subset: s, Shape: clone(arrayShape)}
	}
	ndim := s.Dimensionality()
	if ndim == 0 {
		outer := Full(nil).Indices()
		return &ContiguousIndices{outer: outer, runLen: 1}, nil
	}
	if s.IsEmpty() {
		empty := ArraySubset{start: []uint64{0}, shape: []uint64{0}}
		return &ContiguousIndices{outer: empty.Indices(), runLen: 0}, nil
	}

	// Merge trailing axes while the subset spans the full array extent.
	d := ndim - 1
	runLen := s.shape[d]
	for d > 0 && s.start[d] == 0 && s.shape[d] == arrayShape[d] {
		d--
		runLen *= s.shape[d]
	}

	outerSub := ArraySubset{start: s.start[:d], shape: s.shape[:d]}
	return &ContiguousIndices{
		outer:      outerSub.Indices(),
		runLen:     runLen,
		runStartLo: clone(s.start[d:]),
	}, nil
}

// Len returns the number of runs remaining.
func (it *ContiguousIndices) Len() uint64 { return it.outer.Len() }

// ContiguousElements returns the length of each run.
func (it *ContiguousIndices) ContiguousElements() uint64 { return it.runLen }

// Next returns the start coordinates and length of the next run, or false
// when exhausted.
func (it *ContiguousIndices) Next() ([]uint64, uint64, bool) {
	hi, ok := it.outer.Next()
	if !ok {
		return nil, 0, false
	}
	start := make([]uint64, 0, len(hi)+len(it.runStartLo))
	start = append(start, hi...)
	start = append(start, it.runStartLo...)
	return start, it.runLen, true
}

// ContiguousLinearisedIndices iterates the same runs as [ContiguousIndices]
// but reports each run start as a flat row-major offset.
type ContiguousLinearisedIndices struct {
	inner      *ContiguousIndices
	arrayShape []uint64
}

// ContiguousLinearisedIndices returns a linearised run iterator for the
// subset within an array of the given shape.
func (s ArraySubset) ContiguousLinearisedIndices(arrayShape []uint64) (*ContiguousLinearisedIndices, error) {
	inner, err := s.ContiguousIndices(arrayShape)
	if err != nil {
		return nil, err
	}
	return &ContiguousLinearisedIndices{inner: inner, arrayShape: clone(arrayShape)}, nil
}

// Len returns the number of runs remaining.
func (it *ContiguousLinearisedIndices) Len() uint64 { return it.inner.Len() }

// ContiguousElements returns the length of each run.
func (it *ContiguousLinearisedIndices) ContiguousElements() uint64 { return it.inner.ContiguousElements() }

// Next returns the flat offset and length of the next run, or false when
// exhausted.
func (it *ContiguousLinearisedIndices) Next() (uint64, uint64, bool) {
	start, n, ok := it.inner.Next()
	if !ok {
		return 0, 0, false
	}
	return RavelIndices(start, it.arrayShape), n, true
}

// Chunks iterates the chunk coordinates of a regular grid with the given
// chunk shape that overlap the subset.
type Chunks struct {
	inner *Indices
}

// Chunks returns an iterator over the coordinates of the chunks overlapping
// the subset, for a regular grid with the given chunk shape.
func (s ArraySubset) Chunks(chunkShape []uint64) (*Chunks, error) {
	if len(chunkShape) != s.Dimensionality() {
		return nil, fmt.Errorf("%w: subset %v, chunk shape %v", ErrDimensionMismatch, s, chunkShape)
	}
	ndim := s.Dimensionality()
	first := make([]uint64, ndim)
	shape := make([]uint64, ndim)
	for i := 0; i < ndim; i++ {
		if chunkShape[i] == 0 {
			return nil, fmt.Errorf("chunk shape %v has a zero component", chunkShape)
		}
		if s.shape[i] == 0 {
			// Empty subset overlaps no chunks.
			return &Chunks{inner: ArraySubset{start: make([]uint64, ndim), shape: make([]uint64, ndim)}.Indices()}, nil
		}
		first[i] = s.start[i] / chunkShape[i]
		last := (s.start[i] + s.shape[i] - 1) / chunkShape[i]
		shape[i] = last - first[i] + 1
	}
	return &Chunks{inner: ArraySubset{start: first, shape: shape}.Indices()}, nil
}

// Len returns the number of chunk coordinates remaining.
func (it *Chunks) Len() uint64 { return it.inner.Len() }

// Next returns the next chunk coordinates, or false when exhausted.
func (it *Chunks) Next() ([]uint64, bool) { return it.inner.Next() }

// Split partitions the remaining chunk coordinates into n disjoint
// iterators.
func (it *Chunks) Split(n int) []*Chunks {
	parts := it.inner.Split(n)
	out := make([]*Chunks, len(parts))
	for i, p := range parts {
		out[i] = &Chunks{inner: p}
	}
	return out
}

// Collect drains the iterator into a slice.
func (it *Chunks) Collect() [][]uint64 { return it.inner.Collect() }
