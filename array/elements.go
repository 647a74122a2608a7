package array

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/lorenzocerrone/zarrs/subset"
)

// Element-typed wrappers around the byte operations. The element type must
// be plain old data whose in-memory layout matches the array's element
// representation exactly: fixed size, no pointers, no padding. Numeric
// element bytes are kept in native byte order in memory, so any Go numeric
// type of the matching width qualifies.

// BytesToElements reinterprets decoded element bytes as a typed slice. The
// bytes are copied into properly aligned storage.
func BytesToElements[T any](data []byte, elementSize int) ([]T, error) {
	var zero T
	if size := int(unsafe.Sizeof(zero)); size != elementSize {
		return nil, fmt.Errorf("%w: %T is %d bytes, the data type is %d bytes", ErrInvalidElementSize, zero, size, elementSize)
	}
	if len(data)%elementSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte elements", ErrInvalidElementSize, len(data), elementSize)
	}
	n := len(data) / elementSize
	out := make([]T, n)
	if n > 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(data)), data)
	}
	return out, nil
}

// ElementsToBytes reinterprets a typed slice as element bytes. The result is
// a copy.
func ElementsToBytes[T any](elements []T) []byte {
	var zero T
	size := int(unsafe.Sizeof(zero))
	out := make([]byte, len(elements)*size)
	if len(elements) > 0 {
		copy(out, unsafe.Slice((*byte)(unsafe.Pointer(&elements[0])), len(out)))
	}
	return out
}

func checkElementType[T any](a *Array) error {
	var zero T
	if size := int(unsafe.Sizeof(zero)); size != a.meta.DataType.ElementSize() {
		return fmt.Errorf("%w: %T is %d bytes, %s is %d bytes",
			ErrInvalidElementSize, zero, size, a.meta.DataType, a.meta.DataType.ElementSize())
	}
	return nil
}

// RetrieveChunkElements reads and decodes a chunk as typed elements.
func RetrieveChunkElements[T any](ctx context.Context, a *Array, chunkCoords []uint64, opts codec.Options) ([]T, error) {
	if err := checkElementType[T](a); err != nil {
		return nil, err
	}
	data, err := a.RetrieveChunk(ctx, chunkCoords, opts)
	if err != nil {
		return nil, err
	}
	return BytesToElements[T](data, a.meta.DataType.ElementSize())
}

// RetrieveChunkSubsetElements reads a chunk subset as typed elements.
func RetrieveChunkSubsetElements[T any](ctx context.Context, a *Array, chunkCoords []uint64, chunkSubset subset.ArraySubset, opts codec.Options) ([]T, error) {
	if err := checkElementType[T](a); err != nil {
		return nil, err
	}
	data, err := a.RetrieveChunkSubset(ctx, chunkCoords, chunkSubset, opts)
	if err != nil {
		return nil, err
	}
	return BytesToElements[T](data, a.meta.DataType.ElementSize())
}

// RetrieveArraySubsetElements reads an array subset as typed elements.
func RetrieveArraySubsetElements[T any](ctx context.Context, a *Array, s subset.ArraySubset, opts codec.Options) ([]T, error) {
	if err := checkElementType[T](a); err != nil {
		return nil, err
	}
	data, err := a.RetrieveArraySubset(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	return BytesToElements[T](data, a.meta.DataType.ElementSize())
}

// StoreChunkElements encodes and stores typed elements as a chunk.
func StoreChunkElements[T any](ctx context.Context, a *Array, chunkCoords []uint64, elements []T, opts codec.Options) error {
	if err := checkElementType[T](a); err != nil {
		return err
	}
	return a.StoreChunk(ctx, chunkCoords, ElementsToBytes(elements), opts)
}

// StoreChunkSubsetElements writes typed elements into a chunk subset.
func StoreChunkSubsetElements[T any](ctx context.Context, a *Array, chunkCoords []uint64, chunkSubset subset.ArraySubset, elements []T, opts codec.Options) error {
	if err := checkElementType[T](a); err != nil {
		return err
	}
	return a.StoreChunkSubset(ctx, chunkCoords, chunkSubset, ElementsToBytes(elements), opts)
}

// StoreArraySubsetElements writes typed elements into an array subset.
func StoreArraySubsetElements[T any](ctx context.Context, a *Array, s subset.ArraySubset, elements []T, opts codec.Options) error {
	if err := checkElementType[T](a); err != nil {
		return err
	}
	return a.StoreArraySubset(ctx, s, ElementsToBytes(elements), opts)
}
