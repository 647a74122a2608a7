package codec

import (
	"fmt"

	"github.com/lorenzocerrone/zarrs/dtype"
)

// ChunkRepresentation describes the decoded form of a chunk: its shape, its
// element data type and its fill value. Chunk shape components are strictly
// positive.
type ChunkRepresentation struct {
	shape []uint64
	dt    dtype.DataType
	fill  dtype.FillValue
}

// NewChunkRepresentation validates and creates a chunk representation.
func NewChunkRepresentation(shape []uint64, dt dtype.DataType, fill dtype.FillValue) (ChunkRepresentation, error) {
	for _, c := range shape {
		if c == 0 {
			return ChunkRepresentation{}, fmt.Errorf("chunk shape %v has a zero component", shape)
		}
	}
	if fill.Size() != dt.ElementSize() {
		return ChunkRepresentation{}, fmt.Errorf("fill value has %d bytes, expected %d for %s",
			fill.Size(), dt.ElementSize(), dt)
	}
	s := make([]uint64, len(shape))
	copy(s, shape)
	return ChunkRepresentation{shape: s, dt: dt, fill: fill}, nil
}

// Shape returns the chunk shape. The slice must not be modified.
func (r ChunkRepresentation) Shape() []uint64 { return r.shape }

// DataType returns the element data type.
func (r ChunkRepresentation) DataType() dtype.DataType { return r.dt }

// FillValue returns the fill value.
func (r ChunkRepresentation) FillValue() dtype.FillValue { return r.fill }

// Dimensionality returns the number of axes.
func (r ChunkRepresentation) Dimensionality() int { return len(r.shape) }

// NumElements returns the number of elements in the chunk.
func (r ChunkRepresentation) NumElements() uint64 {
	n := uint64(1)
	for _, c := range r.shape {
		n *= c
	}
	return n
}

// ElementSize returns the size in bytes of one element.
func (r ChunkRepresentation) ElementSize() int { return r.dt.ElementSize() }

// Size returns the size in bytes of the decoded chunk.
func (r ChunkRepresentation) Size() uint64 {
	return r.NumElements() * uint64(r.dt.ElementSize())
}

// SizeKind classifies the encoded size of a representation.
type SizeKind int

// Encoded size classifications.
const (
	// SizeFixed means the encoded value is exactly Size bytes.
	SizeFixed SizeKind = iota
	// SizeBounded means the encoded value is at most Size bytes.
	SizeBounded
	// SizeUnbounded means the encoded size has no known bound.
	SizeUnbounded
)

// BytesRepresentation describes the encoded form of a chunk.
type BytesRepresentation struct {
	Kind SizeKind
	Size uint64
}

// FixedBytes returns a fixed-size representation of exactly n bytes.
func FixedBytes(n uint64) BytesRepresentation {
	return BytesRepresentation{Kind: SizeFixed, Size: n}
}

// BoundedBytes returns a bounded representation of at most n bytes.
func BoundedBytes(n uint64) BytesRepresentation {
	return BytesRepresentation{Kind: SizeBounded, Size: n}
}

// UnboundedBytes returns a representation with no known size bound.
func UnboundedBytes() BytesRepresentation {
	return BytesRepresentation{Kind: SizeUnbounded}
}

func (r BytesRepresentation) String() string {
	switch r.Kind {
	case SizeFixed:
		return fmt.Sprintf("fixed(%d)", r.Size)
	case SizeBounded:
		return fmt.Sprintf("bounded(%d)", r.Size)
	default:
		return "unbounded"
	}
}
