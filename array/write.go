package array

import (
	"context"
	"fmt"

	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/lorenzocerrone/zarrs/subset"
	"golang.org/x/sync/errgroup"
)

// StoreChunk encodes data and stores it at the chunk's key. A chunk
// consisting entirely of the fill value is erased instead of stored, so an
// all-fill chunk never occupies space.
func (a *Array) StoreChunk(ctx context.Context, chunkCoords []uint64, data []byte, opts codec.Options) error {
	rep, err := a.ChunkRepresentation(chunkCoords)
	if err != nil {
		return err
	}
	if uint64(len(data)) != rep.Size() {
		return fmt.Errorf("chunk %v: got %d bytes, expected %d", chunkCoords, len(data), rep.Size())
	}
	if a.meta.FillValue.EqualsAll(data) {
		return a.EraseChunk(ctx, chunkCoords)
	}
	encoded, err := a.chain.Encode(data, rep, opts)
	if err != nil {
		return fmt.Errorf("encoding chunk %v: %w", chunkCoords, err)
	}
	key, err := a.ChunkKey(chunkCoords)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, key, encoded); err != nil {
		return fmt.Errorf("writing chunk %q: %w", key, err)
	}
	return nil
}

// StoreChunkSubset overwrites a subset of a chunk. chunkSubset is relative
// to the chunk's origin. The update is a read-modify-write linearized by the
// store's per-key lock; a whole-chunk subset skips the read.
func (a *Array) StoreChunkSubset(ctx context.Context, chunkCoords []uint64, chunkSubset subset.ArraySubset, data []byte, opts codec.Options) error {
	rep, err := a.ChunkRepresentation(chunkCoords)
	if err != nil {
		return err
	}
	if !chunkSubset.InsideShape(rep.Shape()) {
		return fmt.Errorf("%w: subset %v of chunk %v", ErrInvalidArraySubset, chunkSubset, chunkCoords)
	}
	elementSize := uint64(rep.ElementSize())
	if expected := chunkSubset.NumElements() * elementSize; uint64(len(data)) != expected {
		return fmt.Errorf("chunk %v subset %v: got %d bytes, expected %d", chunkCoords, chunkSubset, len(data), expected)
	}

	if isFullSubset(chunkSubset, rep.Shape()) {
		return a.StoreChunk(ctx, chunkCoords, data, opts)
	}

	key, err := a.ChunkKey(chunkCoords)
	if err != nil {
		return err
	}
	unlock := a.store.Locks().Lock(key)
	defer unlock()

	chunkBytes, err := a.RetrieveChunk(ctx, chunkCoords, opts)
	if err != nil {
		return err
	}
	if err := chunkSubset.OverwriteBytes(chunkBytes, rep.Shape(), elementSize, data); err != nil {
		return err
	}
	return a.StoreChunk(ctx, chunkCoords, chunkBytes, opts)
}

// EraseChunk removes the chunk's key. Erasing an absent chunk succeeds.
func (a *Array) EraseChunk(ctx context.Context, chunkCoords []uint64) error {
	key, err := a.ChunkKey(chunkCoords)
	if err != nil {
		return err
	}
	return a.store.Erase(ctx, key)
}

// EraseChunks removes a rectangular range of chunks.
func (a *Array) EraseChunks(ctx context.Context, chunks subset.ArraySubset) error {
	it := chunks.Indices()
	for {
		chunkCoords, ok := it.Next()
		if !ok {
			return nil
		}
		if err := a.EraseChunk(ctx, chunkCoords); err != nil {
			return err
		}
	}
}

// EraseAllChunks removes every chunk of the array.
func (a *Array) EraseAllChunks(ctx context.Context) error {
	gridShape, err := a.ChunkGridShape()
	if err != nil {
		return err
	}
	return a.EraseChunks(ctx, subset.Full(gridShape))
}

// StoreArraySubset writes data into an arbitrary subset of the array. The
// subset must lie within the array shape. Chunks fully covered by the subset
// take the direct store path; boundary chunks are read-modify-written.
// Chunks are processed in parallel within the concurrency budget.
func (a *Array) StoreArraySubset(ctx context.Context, s subset.ArraySubset, data []byte, opts codec.Options) error {
	if s.Dimensionality() != a.Dimensionality() {
		return fmt.Errorf("%w: subset %v for a %d-dimensional array",
			ErrInvalidArraySubset, s, a.Dimensionality())
	}
	if !s.InsideShape(a.meta.Shape) {
		return fmt.Errorf("%w: subset %v, array shape %v", ErrInvalidArraySubset, s, a.meta.Shape)
	}
	elementSize := uint64(a.meta.DataType.ElementSize())
	if expected := s.NumElements() * elementSize; uint64(len(data)) != expected {
		return fmt.Errorf("subset %v: got %d bytes, expected %d", s, len(data), expected)
	}
	if s.IsEmpty() {
		return nil
	}

	chunks, err := a.ChunksInSubset(s)
	if err != nil {
		return err
	}
	baseRep, err := a.ChunkRepresentation(chunks.Start())
	if err != nil {
		return err
	}
	rec, err := a.chain.RecommendedConcurrency(baseRep)
	if err != nil {
		return err
	}
	chunkConcurrency, codecConcurrency := concurrencyChunksAndCodec(opts.ConcurrentTarget, chunks.NumElements(), rec)
	chunkOpts := opts.WithConcurrentTarget(codecConcurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkConcurrency)
	it := chunks.Indices()
	for {
		chunkCoords, ok := it.Next()
		if !ok {
			break
		}
		g.Go(func() error {
			return a.storeChunkSubsetFrom(gctx, chunkCoords, s, data, elementSize, chunkOpts)
		})
	}
	return g.Wait()
}

// storeChunkSubsetFrom writes the part of data overlapping one chunk.
func (a *Array) storeChunkSubsetFrom(ctx context.Context, chunkCoords []uint64, request subset.ArraySubset, data []byte, elementSize uint64, opts codec.Options) error {
	chunkSubset, err := a.ChunkSubsetBounded(chunkCoords)
	if err != nil {
		return err
	}
	overlap, err := chunkSubset.Overlap(request)
	if err != nil {
		return err
	}
	if overlap.IsEmpty() {
		return nil
	}

	inRequest, err := overlap.RelativeTo(request.Start())
	if err != nil {
		return err
	}
	overlapBytes, err := inRequest.ExtractBytes(data, request.Shape(), elementSize)
	if err != nil {
		return err
	}

	inChunk, err := overlap.RelativeTo(chunkSubset.Start())
	if err != nil {
		return err
	}
	return a.StoreChunkSubset(ctx, chunkCoords, inChunk, overlapBytes, opts)
}

// StoreChunks writes a rectangular range of whole chunks from one row-major
// buffer covering their union.
func (a *Array) StoreChunks(ctx context.Context, chunks subset.ArraySubset, data []byte, opts codec.Options) error {
	if chunks.IsEmpty() {
		return nil
	}
	union, err := a.chunksUnionSubset(chunks)
	if err != nil {
		return err
	}
	elementSize := uint64(a.meta.DataType.ElementSize())
	if expected := union.NumElements() * elementSize; uint64(len(data)) != expected {
		return fmt.Errorf("chunk range %v: got %d bytes, expected %d", chunks, len(data), expected)
	}

	baseRep, err := a.ChunkRepresentation(chunks.Start())
	if err != nil {
		return err
	}
	rec, err := a.chain.RecommendedConcurrency(baseRep)
	if err != nil {
		return err
	}
	chunkConcurrency, codecConcurrency := concurrencyChunksAndCodec(opts.ConcurrentTarget, chunks.NumElements(), rec)
	chunkOpts := opts.WithConcurrentTarget(codecConcurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkConcurrency)
	it := chunks.Indices()
	for {
		chunkCoords, ok := it.Next()
		if !ok {
			break
		}
		g.Go(func() error {
			chunkSubset, err := a.ChunkSubset(chunkCoords)
			if err != nil {
				return err
			}
			inUnion, err := chunkSubset.RelativeTo(union.Start())
			if err != nil {
				return err
			}
			chunkBytes, err := inUnion.ExtractBytes(data, union.Shape(), elementSize)
			if err != nil {
				return err
			}
			return a.StoreChunk(gctx, chunkCoords, chunkBytes, chunkOpts)
		})
	}
	return g.Wait()
}
