package array

import (
	"context"
	"testing"

	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/lorenzocerrone/zarrs/dtype"
	"github.com/lorenzocerrone/zarrs/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShardedArray(t *testing.T) (*Array, *storage.MemoryStore) {
	t.Helper()
	inner, err := codec.NewChain(codec.NewBytesCodec(codec.LittleEndian), codec.NewCrc32cCodec())
	require.NoError(t, err)
	index, err := codec.NewChain(codec.NewBytesCodec(codec.LittleEndian), codec.NewCrc32cCodec())
	require.NoError(t, err)
	sharding, err := codec.NewShardingCodec([]uint64{2, 2}, inner, index, codec.IndexLocationEnd)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	a, err := Create(context.Background(), store, "/", []uint64{4, 4}, dtype.Int32, []uint64{4, 4},
		WithCodecs(sharding))
	require.NoError(t, err)
	return a, store
}

// TestShardedArray drives a whole shard through the array facade: one outer
// chunk of 4x4 with 2x2 inner chunks, one of which stays fill value.
func TestShardedArray(t *testing.T) {
	a, store := newShardedArray(t)
	ctx := context.Background()
	opts := codec.DefaultOptions()

	data := make([]int32, 16)
	for i := range data {
		data[i] = int32(i)
	}
	// Zero out the top-left inner chunk.
	for _, flat := range []int{0, 1, 4, 5} {
		data[flat] = 0
	}
	require.NoError(t, StoreChunkElements(ctx, a, []uint64{0, 0}, data, opts))

	// Shard length: 68-byte index plus three 20-byte inner chunks.
	size, ok, err := store.SizeKey(ctx, "c/0/0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(68+3*20), size)

	got, err := RetrieveChunkElements[int32](ctx, a, []uint64{0, 0}, opts)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Subset read through the shard's partial decoder.
	part, err := RetrieveArraySubsetElements[int32](ctx, a, mustSubset(t, []uint64{1, 1}, []uint64{2, 2}), opts)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 6, 9, 10}, part)
}

// TestShardedArrayAllFillErases pins the redesigned behavior: overwriting a
// shard holding data with all-fill content erases the stored shard.
func TestShardedArrayAllFillErases(t *testing.T) {
	a, store := newShardedArray(t)
	ctx := context.Background()
	opts := codec.DefaultOptions()

	data := make([]int32, 16)
	data[9] = 5
	require.NoError(t, StoreChunkElements(ctx, a, []uint64{0, 0}, data, opts))
	_, ok, err := store.SizeKey(ctx, "c/0/0")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, StoreChunkElements(ctx, a, []uint64{0, 0}, make([]int32, 16), opts))
	_, ok, err = store.SizeKey(ctx, "c/0/0")
	require.NoError(t, err)
	assert.False(t, ok)
}
