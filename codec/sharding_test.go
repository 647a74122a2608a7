package codec

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/lorenzocerrone/zarrs/dtype"
	"github.com/lorenzocerrone/zarrs/storage"
	"github.com/lorenzocerrone/zarrs/subset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSharding(t *testing.T, innerShape []uint64, location IndexLocation) *ShardingCodec {
	t.Helper()
	inner, err := NewChain(NewBytesCodec(LittleEndian), NewCrc32cCodec())
	require.NoError(t, err)
	index, err := NewChain(NewBytesCodec(LittleEndian), NewCrc32cCodec())
	require.NoError(t, err)
	c, err := NewShardingCodec(innerShape, inner, index, location)
	require.NoError(t, err)
	return c
}

func TestShardingRoundTrip(t *testing.T) {
	for _, location := range []IndexLocation{IndexLocationEnd, IndexLocationStart} {
		t.Run(location.String(), func(t *testing.T) {
			c := newTestSharding(t, []uint64{2, 2}, location)
			rep := testRep(t, []uint64{4, 4}, dtype.Int32)
			data := sequentialInt32(16)
			opts := DefaultOptions()

			encoded, err := c.Encode(data, rep, opts)
			require.NoError(t, err)
			decoded, err := c.Decode(encoded, rep, opts)
			require.NoError(t, err)
			assert.Equal(t, data, decoded)
		})
	}
}

// TestShardingFillValueInnerChunk pins the encoded layout: an all-fill inner
// chunk is the MAX sentinel in the index and contributes no bytes, so the
// shard length is the index size plus the three present chunks.
func TestShardingFillValueInnerChunk(t *testing.T) {
	c := newTestSharding(t, []uint64{2, 2}, IndexLocationEnd)
	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	opts := DefaultOptions()

	// Zero (the fill value) in the top-left inner chunk, data elsewhere.
	data := sequentialInt32(16)
	for _, flat := range []uint64{0, 1, 4, 5} {
		binary.NativeEndian.PutUint32(data[4*flat:], 0)
	}

	encoded, err := c.Encode(data, rep, opts)
	require.NoError(t, err)

	// Index: 2x2x2 uint64 entries through [bytes, crc32c] = 4*16 + 4 bytes.
	const indexSize = 4*16 + 4
	// Each present inner chunk: 2x2 int32 through [bytes, crc32c] = 20 bytes.
	assert.Len(t, encoded, indexSize+3*20)

	indexRep, err := c.indexRepresentation([]uint64{2, 2})
	require.NoError(t, err)
	index, err := c.decodeIndex(encoded, indexRep, indexSize, opts)
	require.NoError(t, err)
	assert.Equal(t, uint64(missingChunk), index[0])
	assert.Equal(t, uint64(missingChunk), index[1])
	for i := 1; i < 4; i++ {
		assert.NotEqual(t, uint64(missingChunk), index[2*i], "inner chunk %d offset", i)
		assert.Equal(t, uint64(20), index[2*i+1], "inner chunk %d length", i)
	}

	decoded, err := c.Decode(encoded, rep, opts)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestShardingEncodedSizeBounded(t *testing.T) {
	c := newTestSharding(t, []uint64{2, 2}, IndexLocationEnd)
	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	size, err := c.EncodedSize(rep)
	require.NoError(t, err)
	assert.Equal(t, SizeBounded, size.Kind)
	assert.Equal(t, uint64(4*16+4+4*20), size.Size)
}

func TestShardingInnerShapeMustDivide(t *testing.T) {
	c := newTestSharding(t, []uint64{3, 3}, IndexLocationEnd)
	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	_, err := c.Encode(sequentialInt32(16), rep, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidChunkShape)
}

func TestShardingPartialDecode(t *testing.T) {
	for _, location := range []IndexLocation{IndexLocationEnd, IndexLocationStart} {
		t.Run(location.String(), func(t *testing.T) {
			c := newTestSharding(t, []uint64{2, 2}, location)
			rep := testRep(t, []uint64{4, 4}, dtype.Int32)
			data := sequentialInt32(16)
			opts := DefaultOptions()
			ctx := context.Background()

			encoded, err := c.Encode(data, rep, opts)
			require.NoError(t, err)

			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(ctx, "shard", encoded))

			dec, err := c.PartialDecoder(NewStoragePartialDecoder(store, "shard"), rep, opts)
			require.NoError(t, err)

			subsets := []subset.ArraySubset{
				mustSubset(t, []uint64{0, 0}, []uint64{2, 2}), // one whole inner chunk
				mustSubset(t, []uint64{1, 1}, []uint64{2, 2}), // straddles all four
				mustSubset(t, []uint64{3, 0}, []uint64{1, 4}), // bottom row
				subset.Full([]uint64{4, 4}),
			}
			got, err := dec.PartialDecode(ctx, subsets, opts)
			require.NoError(t, err)
			for i, s := range subsets {
				want, err := s.ExtractBytes(data, rep.Shape(), 4)
				require.NoError(t, err)
				assert.Equal(t, want, got[i], "subset %v", s)
			}
		})
	}
}

func TestShardingPartialDecodeMissingShard(t *testing.T) {
	c := newTestSharding(t, []uint64{2, 2}, IndexLocationEnd)
	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	opts := DefaultOptions()
	ctx := context.Background()

	store := storage.NewMemoryStore()
	dec, err := c.PartialDecoder(NewStoragePartialDecoder(store, "missing"), rep, opts)
	require.NoError(t, err)

	got, err := dec.PartialDecode(ctx, []subset.ArraySubset{subset.Full([]uint64{4, 4})}, opts)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 64), got[0])
}

func TestShardingMetadataRoundTrip(t *testing.T) {
	c := newTestSharding(t, []uint64{2, 2}, IndexLocationStart)
	raw, err := json.Marshal(c.Metadata())
	require.NoError(t, err)

	var meta Metadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	rebuilt, err := FromMetadata(meta)
	require.NoError(t, err)

	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	data := sequentialInt32(16)
	encoded, err := c.Encode(data, rep, DefaultOptions())
	require.NoError(t, err)
	decoded, err := rebuilt.(ArrayToBytes).Decode(encoded, rep, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestShardingIndexNotFixedSize(t *testing.T) {
	inner, err := NewChain(NewBytesCodec(LittleEndian))
	require.NoError(t, err)
	index, err := NewChain(NewBytesCodec(LittleEndian), mustGzip(t, 5))
	require.NoError(t, err)
	c, err := NewShardingCodec([]uint64{2, 2}, inner, index, IndexLocationEnd)
	require.NoError(t, err)

	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	_, err = c.EncodedSize(rep)
	assert.ErrorIs(t, err, ErrNotFixedSize)
}

// TestShardingNestedInChain runs a shard as the array→bytes codec of an
// outer chain, with partial decoding through storage.
func TestShardingNestedInChain(t *testing.T) {
	sharding := newTestSharding(t, []uint64{2, 2}, IndexLocationEnd)
	chain, err := NewChain(sharding)
	require.NoError(t, err)

	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	data := sequentialInt32(16)
	opts := DefaultOptions()
	ctx := context.Background()

	encoded, err := chain.Encode(data, rep, opts)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "c/0/0", encoded))
	dec, err := chain.PartialDecoder(NewStoragePartialDecoder(store, "c/0/0"), rep, opts)
	require.NoError(t, err)

	s := mustSubset(t, []uint64{2, 2}, []uint64{2, 2})
	got, err := dec.PartialDecode(ctx, []subset.ArraySubset{s}, opts)
	require.NoError(t, err)
	want, err := s.ExtractBytes(data, rep.Shape(), 4)
	require.NoError(t, err)
	assert.Equal(t, want, got[0])
}
