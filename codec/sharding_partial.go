package codec

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/lorenzocerrone/zarrs/storage"
	"github.com/lorenzocerrone/zarrs/subset"
)

// shardingPartialDecoder serves array-subset reads of a shard. The shard
// index is fetched once, lazily; inner chunks are then addressed by
// byte-range reads against the underlying input.
type shardingPartialDecoder struct {
	codec          *ShardingCodec
	input          BytesPartialDecoder
	rep            ChunkRepresentation
	innerRep       ChunkRepresentation
	indexRep       ChunkRepresentation
	indexSize      uint64
	chunksPerShard []uint64

	once     sync.Once
	index    []uint64 // nil if the shard does not exist
	indexErr error
}

func (d *shardingPartialDecoder) ElementSize() int { return d.rep.ElementSize() }

// fetchIndex reads and decodes the shard index once per decoder lifetime.
func (d *shardingPartialDecoder) fetchIndex(ctx context.Context, opts Options) ([]uint64, error) {
	d.once.Do(func() {
		var r storage.ByteRange
		if d.codec.location == IndexLocationStart {
			r = storage.FromStart(0, int64(d.indexSize))
		} else {
			r = storage.FromEnd(0, int64(d.indexSize))
		}
		parts, err := d.input.PartialDecode(ctx, []storage.ByteRange{r}, opts)
		if err != nil {
			d.indexErr = err
			return
		}
		if parts == nil {
			return // missing shard
		}
		indexBytes, err := d.codec.index.Decode(parts[0], d.indexRep, opts.WithConcurrentTarget(1))
		if err != nil {
			d.indexErr = err
			return
		}
		index := make([]uint64, len(indexBytes)/8)
		for i := range index {
			index[i] = binary.NativeEndian.Uint64(indexBytes[8*i:])
		}
		d.index = index
	})
	return d.index, d.indexErr
}

// PartialDecode decodes the requested subsets of the shard. Inner chunks
// fully covered by a subset are decoded whole; boundary chunks go through
// the inner chain's partial decoder.
func (d *shardingPartialDecoder) PartialDecode(ctx context.Context, subsets []subset.ArraySubset, opts Options) ([][]byte, error) {
	index, err := d.fetchIndex(ctx, opts)
	if err != nil {
		return nil, err
	}

	fill := d.rep.FillValue()
	out := make([][]byte, len(subsets))
	for i, s := range subsets {
		if !s.InsideShape(d.rep.Shape()) {
			return nil, &subset.IncompatibleShapeError{Subset: s, Shape: d.rep.Shape()}
		}
		buf := fill.Repeat(s.NumElements())
		if index != nil {
			if err := d.decodeSubsetInto(ctx, buf, s, index, opts); err != nil {
				return nil, err
			}
		}
		out[i] = buf
	}
	return out, nil
}

func (d *shardingPartialDecoder) decodeSubsetInto(ctx context.Context, buf []byte, s subset.ArraySubset, index []uint64, opts Options) error {
	elementSize := uint64(d.rep.ElementSize())
	chunks, err := s.Chunks(d.codec.innerShape)
	if err != nil {
		return err
	}
	for {
		chunkCoords, ok := chunks.Next()
		if !ok {
			return nil
		}
		entry := subset.RavelIndices(chunkCoords, d.chunksPerShard)
		offset, length := index[2*entry], index[2*entry+1]
		if offset == missingChunk && length == missingChunk {
			continue // fill value, already in buf
		}
		chunkSubset, err := d.codec.innerChunkSubset(chunkCoords)
		if err != nil {
			return err
		}
		overlap, err := chunkSubset.Overlap(s)
		if err != nil {
			return err
		}

		var overlapBytes []byte
		if overlap.NumElements() == chunkSubset.NumElements() {
			// The subset spans the whole inner chunk: a full decode avoids
			// the partial decoding stack.
			parts, err := d.input.PartialDecode(ctx, []storage.ByteRange{storage.FromStart(offset, int64(length))}, opts)
			if err != nil {
				return err
			}
			if parts == nil {
				continue
			}
			overlapBytes, err = d.codec.inner.Decode(parts[0], d.innerRep, opts)
			if err != nil {
				return err
			}
		} else {
			inChunk, err := overlap.RelativeTo(chunkSubset.Start())
			if err != nil {
				return err
			}
			window := NewByteIntervalPartialDecoder(d.input, offset, length)
			dec, err := d.codec.inner.PartialDecoder(window, d.innerRep, opts)
			if err != nil {
				return err
			}
			parts, err := dec.PartialDecode(ctx, []subset.ArraySubset{inChunk}, opts)
			if err != nil {
				return err
			}
			overlapBytes = parts[0]
		}

		inBuf, err := overlap.RelativeTo(s.Start())
		if err != nil {
			return err
		}
		if err := inBuf.OverwriteBytes(buf, s.Shape(), elementSize, overlapBytes); err != nil {
			return err
		}
	}
}
