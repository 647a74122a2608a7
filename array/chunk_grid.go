package array

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lorenzocerrone/zarrs/subset"
)

// ChunkGrid partitions an array's index space into chunks. Implementations
// map chunk coordinates to chunk shapes and origins, and array coordinates
// back to chunk coordinates. Grids need not be regular.
type ChunkGrid interface {
	// Dimensionality returns the number of axes.
	Dimensionality() int

	// GridShape returns the number of chunks along each axis for an array
	// of the given shape.
	GridShape(arrayShape []uint64) ([]uint64, error)

	// ChunkShape returns the shape of the chunk at chunkCoords.
	ChunkShape(chunkCoords []uint64) ([]uint64, error)

	// ChunkOrigin returns the array coordinates of the chunk's first
	// element.
	ChunkOrigin(chunkCoords []uint64) ([]uint64, error)

	// ChunkSubset returns the array-space subset covered by the chunk.
	ChunkSubset(chunkCoords []uint64) (subset.ArraySubset, error)

	// ChunkCoords returns the coordinates of the chunk containing the
	// array coordinates.
	ChunkCoords(arrayIndices []uint64) ([]uint64, error)

	// ChunksInSubset returns the chunk-coordinate subset of every chunk
	// overlapping the array-space subset.
	ChunksInSubset(s subset.ArraySubset) (subset.ArraySubset, error)

	// MetadataName returns the grid's metadata name.
	MetadataName() string

	// MetadataConfiguration returns the grid's configuration object.
	MetadataConfiguration() (json.RawMessage, error)
}

// RegularGrid is a chunk grid with one chunk shape repeated across the
// array. The last chunk along an axis may extend beyond the array shape;
// stored chunks are always full size.
type RegularGrid struct {
	chunkShape []uint64
}

var _ ChunkGrid = (*RegularGrid)(nil)

// NewRegularGrid creates a regular grid with the given chunk shape, whose
// components must be strictly positive.
func NewRegularGrid(chunkShape []uint64) (*RegularGrid, error) {
	for _, c := range chunkShape {
		if c == 0 {
			return nil, fmt.Errorf("chunk shape %v has a zero component", chunkShape)
		}
	}
	s := make([]uint64, len(chunkShape))
	copy(s, chunkShape)
	return &RegularGrid{chunkShape: s}, nil
}

// BaseChunkShape returns the grid's chunk shape. The slice must not be
// modified.
func (g *RegularGrid) BaseChunkShape() []uint64 { return g.chunkShape }

// Dimensionality returns the number of axes.
func (g *RegularGrid) Dimensionality() int { return len(g.chunkShape) }

// GridShape returns ceil(arrayShape / chunkShape) per axis.
func (g *RegularGrid) GridShape(arrayShape []uint64) ([]uint64, error) {
	if len(arrayShape) != len(g.chunkShape) {
		return nil, fmt.Errorf("%w: array shape %v, chunk shape %v", subset.ErrDimensionMismatch, arrayShape, g.chunkShape)
	}
	out := make([]uint64, len(arrayShape))
	for i := range arrayShape {
		out[i] = (arrayShape[i] + g.chunkShape[i] - 1) / g.chunkShape[i]
	}
	return out, nil
}

// ChunkShape returns the base chunk shape for any coordinates.
func (g *RegularGrid) ChunkShape(chunkCoords []uint64) ([]uint64, error) {
	if len(chunkCoords) != len(g.chunkShape) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChunkCoords, chunkCoords)
	}
	out := make([]uint64, len(g.chunkShape))
	copy(out, g.chunkShape)
	return out, nil
}

// ChunkOrigin returns chunkCoords * chunkShape.
func (g *RegularGrid) ChunkOrigin(chunkCoords []uint64) ([]uint64, error) {
	if len(chunkCoords) != len(g.chunkShape) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChunkCoords, chunkCoords)
	}
	out := make([]uint64, len(g.chunkShape))
	for i := range chunkCoords {
		out[i] = chunkCoords[i] * g.chunkShape[i]
	}
	return out, nil
}

// ChunkSubset returns [origin, origin+chunkShape).
func (g *RegularGrid) ChunkSubset(chunkCoords []uint64) (subset.ArraySubset, error) {
	origin, err := g.ChunkOrigin(chunkCoords)
	if err != nil {
		return subset.ArraySubset{}, err
	}
	return subset.New(origin, g.chunkShape)
}

// ChunkCoords returns arrayIndices / chunkShape.
func (g *RegularGrid) ChunkCoords(arrayIndices []uint64) ([]uint64, error) {
	if len(arrayIndices) != len(g.chunkShape) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChunkCoords, arrayIndices)
	}
	out := make([]uint64, len(g.chunkShape))
	for i := range arrayIndices {
		out[i] = arrayIndices[i] / g.chunkShape[i]
	}
	return out, nil
}

// ChunksInSubset returns the chunk coordinates overlapping s.
func (g *RegularGrid) ChunksInSubset(s subset.ArraySubset) (subset.ArraySubset, error) {
	if s.Dimensionality() != len(g.chunkShape) {
		return subset.ArraySubset{}, fmt.Errorf("%w: subset %v, chunk shape %v", subset.ErrDimensionMismatch, s, g.chunkShape)
	}
	ndim := len(g.chunkShape)
	first := make([]uint64, ndim)
	shape := make([]uint64, ndim)
	for i := 0; i < ndim; i++ {
		if s.Shape()[i] == 0 {
			return subset.New(make([]uint64, ndim), make([]uint64, ndim))
		}
		first[i] = s.Start()[i] / g.chunkShape[i]
		last := (s.Start()[i] + s.Shape()[i] - 1) / g.chunkShape[i]
		shape[i] = last - first[i] + 1
	}
	return subset.New(first, shape)
}

// MetadataName returns "regular".
func (g *RegularGrid) MetadataName() string { return "regular" }

type regularGridConfig struct {
	ChunkShape []uint64 `json:"chunk_shape"`
}

// MetadataConfiguration returns the grid configuration object.
func (g *RegularGrid) MetadataConfiguration() (json.RawMessage, error) {
	return json.Marshal(regularGridConfig{ChunkShape: g.chunkShape})
}

// RectangularGrid is a chunk grid with explicit per-axis chunk extents. Each
// axis carries a list of chunk sizes; chunk boundaries are their partial
// sums.
type RectangularGrid struct {
	sizes   [][]uint64 // chunk extents per axis
	offsets [][]uint64 // cumulative offsets per axis, len(sizes[i])+1
}

var _ ChunkGrid = (*RectangularGrid)(nil)

// NewRectangularGrid creates a rectangular grid from per-axis chunk extent
// lists. Every extent must be strictly positive.
func NewRectangularGrid(sizes [][]uint64) (*RectangularGrid, error) {
	g := &RectangularGrid{
		sizes:   make([][]uint64, len(sizes)),
		offsets: make([][]uint64, len(sizes)),
	}
	for i, axis := range sizes {
		if len(axis) == 0 {
			return nil, fmt.Errorf("axis %d has no chunk extents", i)
		}
		g.sizes[i] = make([]uint64, len(axis))
		copy(g.sizes[i], axis)
		offsets := make([]uint64, len(axis)+1)
		for j, c := range axis {
			if c == 0 {
				return nil, fmt.Errorf("axis %d has a zero chunk extent", i)
			}
			offsets[j+1] = offsets[j] + c
		}
		g.offsets[i] = offsets
	}
	return g, nil
}

// Dimensionality returns the number of axes.
func (g *RectangularGrid) Dimensionality() int { return len(g.sizes) }

// GridShape returns the number of chunk extents per axis. The array shape
// must match the extents' total.
func (g *RectangularGrid) GridShape(arrayShape []uint64) ([]uint64, error) {
	if len(arrayShape) != len(g.sizes) {
		return nil, fmt.Errorf("%w: array shape %v", subset.ErrDimensionMismatch, arrayShape)
	}
	out := make([]uint64, len(g.sizes))
	for i := range g.sizes {
		if total := g.offsets[i][len(g.sizes[i])]; arrayShape[i] > total {
			return nil, fmt.Errorf("array shape %v exceeds grid extent %d on axis %d", arrayShape, total, i)
		}
		out[i] = uint64(len(g.sizes[i]))
	}
	return out, nil
}

func (g *RectangularGrid) validCoords(chunkCoords []uint64) error {
	if len(chunkCoords) != len(g.sizes) {
		return fmt.Errorf("%w: %v", ErrInvalidChunkCoords, chunkCoords)
	}
	for i, c := range chunkCoords {
		if c >= uint64(len(g.sizes[i])) {
			return fmt.Errorf("%w: %v exceeds grid shape on axis %d", ErrInvalidChunkCoords, chunkCoords, i)
		}
	}
	return nil
}

// ChunkShape returns the extents of the chunk at chunkCoords.
func (g *RectangularGrid) ChunkShape(chunkCoords []uint64) ([]uint64, error) {
	if err := g.validCoords(chunkCoords); err != nil {
		return nil, err
	}
	out := make([]uint64, len(chunkCoords))
	for i, c := range chunkCoords {
		out[i] = g.sizes[i][c]
	}
	return out, nil
}

// ChunkOrigin returns the cumulative offsets of the chunk at chunkCoords.
func (g *RectangularGrid) ChunkOrigin(chunkCoords []uint64) ([]uint64, error) {
	if err := g.validCoords(chunkCoords); err != nil {
		return nil, err
	}
	out := make([]uint64, len(chunkCoords))
	for i, c := range chunkCoords {
		out[i] = g.offsets[i][c]
	}
	return out, nil
}

// ChunkSubset returns the array-space subset of the chunk.
func (g *RectangularGrid) ChunkSubset(chunkCoords []uint64) (subset.ArraySubset, error) {
	origin, err := g.ChunkOrigin(chunkCoords)
	if err != nil {
		return subset.ArraySubset{}, err
	}
	shape, err := g.ChunkShape(chunkCoords)
	if err != nil {
		return subset.ArraySubset{}, err
	}
	return subset.New(origin, shape)
}

// chunkIndexOnAxis finds the chunk index containing x on axis i.
func (g *RectangularGrid) chunkIndexOnAxis(i int, x uint64) (uint64, error) {
	offsets := g.offsets[i]
	if x >= offsets[len(offsets)-1] {
		return 0, fmt.Errorf("coordinate %d exceeds grid extent %d on axis %d", x, offsets[len(offsets)-1], i)
	}
	// First boundary beyond x; the chunk is the one before it.
	j := sort.Search(len(offsets), func(j int) bool { return offsets[j] > x })
	return uint64(j - 1), nil
}

// ChunkCoords locates the chunk containing the array coordinates.
func (g *RectangularGrid) ChunkCoords(arrayIndices []uint64) ([]uint64, error) {
	if len(arrayIndices) != len(g.sizes) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChunkCoords, arrayIndices)
	}
	out := make([]uint64, len(arrayIndices))
	for i, x := range arrayIndices {
		c, err := g.chunkIndexOnAxis(i, x)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// ChunksInSubset returns the chunk coordinates overlapping s.
func (g *RectangularGrid) ChunksInSubset(s subset.ArraySubset) (subset.ArraySubset, error) {
	if s.Dimensionality() != len(g.sizes) {
		return subset.ArraySubset{}, fmt.Errorf("%w: subset %v", subset.ErrDimensionMismatch, s)
	}
	ndim := len(g.sizes)
	first := make([]uint64, ndim)
	shape := make([]uint64, ndim)
	for i := 0; i < ndim; i++ {
		if s.Shape()[i] == 0 {
			return subset.New(make([]uint64, ndim), make([]uint64, ndim))
		}
		lo, err := g.chunkIndexOnAxis(i, s.Start()[i])
		if err != nil {
			return subset.ArraySubset{}, err
		}
		hi, err := g.chunkIndexOnAxis(i, s.Start()[i]+s.Shape()[i]-1)
		if err != nil {
			return subset.ArraySubset{}, err
		}
		first[i] = lo
		shape[i] = hi - lo + 1
	}
	return subset.New(first, shape)
}

// MetadataName returns "rectangular".
func (g *RectangularGrid) MetadataName() string { return "rectangular" }

type rectangularGridConfig struct {
	ChunkShape [][]uint64 `json:"chunk_shape"`
}

// MetadataConfiguration returns the grid configuration object.
func (g *RectangularGrid) MetadataConfiguration() (json.RawMessage, error) {
	return json.Marshal(rectangularGridConfig{ChunkShape: g.sizes})
}

// gridFromMetadata resolves a chunk grid metadata entry.
func gridFromMetadata(name string, config json.RawMessage) (ChunkGrid, error) {
	switch name {
	case "regular":
		var cfg regularGridConfig
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, err
		}
		return NewRegularGrid(cfg.ChunkShape)
	case "rectangular":
		var cfg rectangularGridConfig
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, err
		}
		return NewRectangularGrid(cfg.ChunkShape)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGrid, name)
	}
}
