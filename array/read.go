package array

import (
	"context"
	"fmt"

	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/lorenzocerrone/zarrs/subset"
	"golang.org/x/sync/errgroup"
)

// RetrieveChunk reads and decodes the chunk at chunkCoords. A missing chunk
// yields a buffer filled with the fill value. The result always has exactly
// the chunk's byte size.
func (a *Array) RetrieveChunk(ctx context.Context, chunkCoords []uint64, opts codec.Options) ([]byte, error) {
	data, err := a.RetrieveChunkIfExists(ctx, chunkCoords, opts)
	if err != nil {
		return nil, err
	}
	if data == nil {
		rep, err := a.ChunkRepresentation(chunkCoords)
		if err != nil {
			return nil, err
		}
		return a.meta.FillValue.Repeat(rep.NumElements()), nil
	}
	return data, nil
}

// RetrieveChunkIfExists reads and decodes the chunk at chunkCoords, or
// returns nil if the chunk key does not exist.
func (a *Array) RetrieveChunkIfExists(ctx context.Context, chunkCoords []uint64, opts codec.Options) ([]byte, error) {
	rep, err := a.ChunkRepresentation(chunkCoords)
	if err != nil {
		return nil, err
	}
	key, err := a.ChunkKey(chunkCoords)
	if err != nil {
		return nil, err
	}
	encoded, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading chunk %q: %w", key, err)
	}
	if encoded == nil {
		return nil, nil
	}
	decoded, err := a.chain.Decode(encoded, rep, opts)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk %q: %w", key, err)
	}
	return decoded, nil
}

// RetrieveChunkSubset reads a subset of a chunk. chunkSubset is relative to
// the chunk's origin. Whole-chunk requests delegate to [Array.RetrieveChunk];
// anything smaller goes through the codec chain's partial decoder.
func (a *Array) RetrieveChunkSubset(ctx context.Context, chunkCoords []uint64, chunkSubset subset.ArraySubset, opts codec.Options) ([]byte, error) {
	rep, err := a.ChunkRepresentation(chunkCoords)
	if err != nil {
		return nil, err
	}
	if !chunkSubset.InsideShape(rep.Shape()) {
		return nil, fmt.Errorf("%w: subset %v of chunk %v", ErrInvalidArraySubset, chunkSubset, chunkCoords)
	}
	if isFullSubset(chunkSubset, rep.Shape()) {
		return a.RetrieveChunk(ctx, chunkCoords, opts)
	}

	key, err := a.ChunkKey(chunkCoords)
	if err != nil {
		return nil, err
	}
	dec, err := a.chain.PartialDecoder(codec.NewStoragePartialDecoder(a.store, key), rep, opts)
	if err != nil {
		return nil, err
	}
	out, err := dec.PartialDecode(ctx, []subset.ArraySubset{chunkSubset}, opts)
	if err != nil {
		return nil, fmt.Errorf("partially decoding chunk %q: %w", key, err)
	}
	return out[0], nil
}

// isSameSubset reports whether two subsets cover identical coordinates.
func isSameSubset(a, b subset.ArraySubset) bool {
	if a.Dimensionality() != b.Dimensionality() {
		return false
	}
	for i := range a.Start() {
		if a.Start()[i] != b.Start()[i] || a.Shape()[i] != b.Shape()[i] {
			return false
		}
	}
	return true
}

// isFullSubset reports whether s covers the entirety of shape.
func isFullSubset(s subset.ArraySubset, shape []uint64) bool {
	for i, start := range s.Start() {
		if start != 0 || s.Shape()[i] != shape[i] {
			return false
		}
	}
	return s.Dimensionality() == len(shape)
}

// RetrieveArraySubset reads an arbitrary subset of the array. Portions
// beyond the array shape are filled with the fill value; reads never fail on
// bounds. Chunks are fetched in parallel within the concurrency budget.
func (a *Array) RetrieveArraySubset(ctx context.Context, s subset.ArraySubset, opts codec.Options) ([]byte, error) {
	if s.Dimensionality() != a.Dimensionality() {
		return nil, fmt.Errorf("%w: subset %v for a %d-dimensional array",
			ErrInvalidArraySubset, s, a.Dimensionality())
	}
	elementSize := uint64(a.meta.DataType.ElementSize())
	out := a.meta.FillValue.Repeat(s.NumElements())
	if s.IsEmpty() {
		return out, nil
	}

	// Only the in-bounds region maps to chunks.
	bounded, err := s.Bound(a.meta.Shape)
	if err != nil {
		return nil, err
	}
	if bounded.IsEmpty() {
		return out, nil
	}
	chunks, err := a.ChunksInSubset(bounded)
	if err != nil {
		return nil, err
	}

	// Fast path: the request is exactly one whole chunk.
	if chunks.NumElements() == 1 {
		chunkSubset, err := a.ChunkSubset(chunks.Start())
		if err != nil {
			return nil, err
		}
		if chunkSubset.NumElements() == s.NumElements() && isSameSubset(chunkSubset, s) {
			return a.RetrieveChunk(ctx, chunks.Start(), opts)
		}
	}

	baseRep, err := a.ChunkRepresentation(chunks.Start())
	if err != nil {
		return nil, err
	}
	rec, err := a.chain.RecommendedConcurrency(baseRep)
	if err != nil {
		return nil, err
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
			return a.retrieveChunkSubsetInto(gctx, chunkCoords, bounded, out, s, elementSize, chunkOpts)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// retrieveChunkSubsetInto decodes the part of a chunk overlapping request
// and scatters it into out, which covers the request subset. Distinct
// chunks write disjoint regions of out.
func (a *Array) retrieveChunkSubsetInto(ctx context.Context, chunkCoords []uint64, bounded subset.ArraySubset, out []byte, request subset.ArraySubset, elementSize uint64, opts codec.Options) error {
	chunkSubset, err := a.ChunkSubset(chunkCoords)
	if err != nil {
		return err
	}
	overlap, err := chunkSubset.Overlap(bounded)
	if err != nil {
		return err
	}
	if overlap.IsEmpty() {
		return nil
	}

	var overlapBytes []byte
	if overlap.NumElements() == chunkSubset.NumElements() {
		// Chunk fully inside the request: decode whole, skip subset copy.
		overlapBytes, err = a.RetrieveChunk(ctx, chunkCoords, opts)
	} else {
		var inChunk subset.ArraySubset
		inChunk, err = overlap.RelativeTo(chunkSubset.Start())
		if err != nil {
			return err
		}
		overlapBytes, err = a.RetrieveChunkSubset(ctx, chunkCoords, inChunk, opts)
	}
	if err != nil {
		return err
	}

	inRequest, err := overlap.RelativeTo(request.Start())
	if err != nil {
		return err
	}
	return inRequest.OverwriteBytes(out, request.Shape(), elementSize, overlapBytes)
}

// RetrieveChunks reads a rectangular range of whole chunks, returned as one
// row-major buffer covering their union.
func (a *Array) RetrieveChunks(ctx context.Context, chunks subset.ArraySubset, opts codec.Options) ([]byte, error) {
	s, err := a.chunksUnionSubset(chunks)
	if err != nil {
		return nil, err
	}
	return a.RetrieveArraySubset(ctx, s, opts)
}

// chunksUnionSubset returns the array-space subset covered by a rectangular
// range of chunks.
func (a *Array) chunksUnionSubset(chunks subset.ArraySubset) (subset.ArraySubset, error) {
	if chunks.Dimensionality() != a.Dimensionality() {
		return subset.ArraySubset{}, fmt.Errorf("%w: chunk range %v for a %d-dimensional array",
			ErrInvalidChunkCoords, chunks, a.Dimensionality())
	}
	if chunks.IsEmpty() {
		zero := make([]uint64, a.Dimensionality())
		return subset.New(zero, zero)
	}
	first, err := a.ChunkSubset(chunks.Start())
	if err != nil {
		return subset.ArraySubset{}, err
	}
	end := chunks.End()
	lastCoords := make([]uint64, len(end))
	for i := range end {
		lastCoords[i] = end[i] - 1
	}
	last, err := a.ChunkSubset(lastCoords)
	if err != nil {
		return subset.ArraySubset{}, err
	}
	return subset.NewFromStartEndExc(first.Start(), last.End())
}
