package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract exercises the full capability set against a store.
func testStoreContract(t *testing.T, store ReadableWritableListable) {
	ctx := context.Background()

	// Missing keys are not errors.
	v, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	vs, err := store.GetPartialValuesKey(ctx, "missing", []ByteRange{EntireValue()})
	require.NoError(t, err)
	assert.Nil(t, vs)

	_, ok, err := store.SizeKey(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	// Round trip.
	value := []byte("0123456789")
	require.NoError(t, store.Set(ctx, "a/b", value))
	got, err := store.Get(ctx, "a/b")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	size, ok, err := store.SizeKey(ctx, "a/b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(10), size)

	// Partial reads.
	parts, err := store.GetPartialValuesKey(ctx, "a/b", []ByteRange{
		FromStart(0, 3),
		FromEnd(0, 2),
		FromStart(4, -1),
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("012"), []byte("89"), []byte("456789")}, parts)

	// Out-of-bounds partial read is an error.
	_, err = store.GetPartialValuesKey(ctx, "a/b", []ByteRange{FromStart(8, 5)})
	var rangeErr *InvalidByteRangeError
	assert.ErrorAs(t, err, &rangeErr)

	// Batched reads across keys; missing keys yield nil entries.
	require.NoError(t, store.Set(ctx, "a/c", []byte("xyz")))
	batch, err := store.GetPartialValues(ctx, []StoreKeyRange{
		{Key: "a/b", Range: FromStart(1, 2)},
		{Key: "nope", Range: EntireValue()},
		{Key: "a/c", Range: EntireValue()},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("12"), batch[0])
	assert.Nil(t, batch[1])
	assert.Equal(t, []byte("xyz"), batch[2])

	// Listing.
	require.NoError(t, store.Set(ctx, "zarr.json", []byte("{}")))
	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StoreKey{"a/b", "a/c", "zarr.json"}, keys)

	keys, err = store.ListPrefix(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []StoreKey{"a/b", "a/c"}, keys)

	dir, err := store.ListDir(ctx, RootPrefix)
	require.NoError(t, err)
	assert.Equal(t, []StoreKey{"zarr.json"}, dir.Keys)
	assert.Equal(t, []StorePrefix{"a/"}, dir.Prefixes)

	// Sizes.
	total, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10+3+2), total)
	prefixSize, err := store.SizePrefix(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, uint64(13), prefixSize)

	// Partial writes extend and zero fill.
	require.NoError(t, store.SetPartialValues(ctx, []StoreKeyOffsetValue{
		{Key: "a/b", Offset: 2, Value: []byte("AB")},
		{Key: "a/new", Offset: 2, Value: []byte("CD")},
	}))
	got, err = store.Get(ctx, "a/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("01AB456789"), got)
	got, err = store.Get(ctx, "a/new")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 'C', 'D'}, got)

	// Idempotent erasure.
	require.NoError(t, store.Erase(ctx, "a/b"))
	require.NoError(t, store.Erase(ctx, "a/b"))
	v, err = store.Get(ctx, "a/b")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, store.ErasePrefix(ctx, "a/"))
	keys, err = store.ListPrefix(ctx, "a/")
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, store.EraseValues(ctx, []StoreKey{"zarr.json", "missing"}))
	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryStoreContract(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestFilesystemStoreContract(t *testing.T) {
	store, err := NewFilesystemStore(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	testStoreContract(t, store)
}

func TestBoltStoreContract(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	defer store.Close()
	testStoreContract(t, store)
}

func TestMemoryStoreConcurrentPartialWrites(t *testing.T) {
	// Interleaved partial writes to disjoint regions of one key must all
	// land; the per-key lock linearizes the read-modify-write cycles.
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", make([]byte, 64)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value := make([]byte, 8)
			for j := range value {
				value[j] = byte(i + 1)
			}
			err := store.SetPartialValues(ctx, []StoreKeyOffsetValue{
				{Key: "k", Offset: uint64(i * 8), Value: value},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			assert.Equal(t, byte(i+1), got[i*8+j], "offset %d", i*8+j)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Set(ctx, "k", nil), context.Canceled)
}
