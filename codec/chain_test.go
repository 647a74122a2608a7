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

func testRep(t *testing.T, shape []uint64, dt dtype.DataType) ChunkRepresentation {
	t.Helper()
	rep, err := NewChunkRepresentation(shape, dt, dtype.ZeroFill(dt))
	require.NoError(t, err)
	return rep
}

// sequentialInt32 returns n little 32-bit integers 0..n-1 in native order.
func sequentialInt32(n int) []byte {
	out := make([]byte, 4*n)
	for i := 0; i < n; i++ {
		binary.NativeEndian.PutUint32(out[4*i:], uint32(i))
	}
	return out
}

func mustGzip(t *testing.T, level int) *GzipCodec {
	t.Helper()
	c, err := NewGzipCodec(level)
	require.NoError(t, err)
	return c
}

func mustZstd(t *testing.T, level int) *ZstdCodec {
	t.Helper()
	c, err := NewZstdCodec(level, true)
	require.NoError(t, err)
	return c
}

func mustShuffle(t *testing.T, size int) *ShuffleCodec {
	t.Helper()
	c, err := NewShuffleCodec(size)
	require.NoError(t, err)
	return c
}

func mustTranspose(t *testing.T, order ...int) *TransposeCodec {
	t.Helper()
	c, err := NewTransposeCodec(order)
	require.NoError(t, err)
	return c
}

func TestChainRequiresArrayToBytes(t *testing.T) {
	_, err := NewChain(NewCrc32cCodec())
	assert.ErrorIs(t, err, ErrMissingA2B)

	_, err = NewChain(NewBytesCodec(LittleEndian), NewBytesCodec(BigEndian))
	assert.ErrorIs(t, err, ErrMultipleA2B)
}

func TestChainRoundTrip(t *testing.T) {
	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	data := sequentialInt32(16)
	opts := DefaultOptions()

	chains := map[string]*Chain{}
	mustChain := func(name string, codecs ...Codec) {
		c, err := NewChain(codecs...)
		require.NoError(t, err)
		chains[name] = c
	}
	mustChain("bytes le", NewBytesCodec(LittleEndian))
	mustChain("bytes be", NewBytesCodec(BigEndian))
	mustChain("bytes gzip", NewBytesCodec(LittleEndian), mustGzip(t, 5))
	mustChain("bytes zstd", NewBytesCodec(LittleEndian), mustZstd(t, 3))
	mustChain("bytes crc32c", NewBytesCodec(LittleEndian), NewCrc32cCodec())
	mustChain("bytes xxh64", NewBytesCodec(LittleEndian), NewXxh64Codec())
	mustChain("bytes shuffle gzip", NewBytesCodec(LittleEndian), mustShuffle(t, 4), mustGzip(t, 1))
	mustChain("transpose bytes crc32c", mustTranspose(t, 1, 0), NewBytesCodec(LittleEndian), NewCrc32cCodec())

	for name, chain := range chains {
		t.Run(name, func(t *testing.T) {
			encoded, err := chain.Encode(data, rep, opts)
			require.NoError(t, err)
			decoded, err := chain.Decode(encoded, rep, opts)
			require.NoError(t, err)
			assert.Equal(t, data, decoded)
		})
	}
}

func TestChainEncodedSize(t *testing.T) {
	rep := testRep(t, []uint64{4, 4}, dtype.Int32)

	chain, err := NewChain(NewBytesCodec(LittleEndian))
	require.NoError(t, err)
	size, err := chain.EncodedSize(rep)
	require.NoError(t, err)
	assert.Equal(t, FixedBytes(64), size)

	chain, err = NewChain(NewBytesCodec(LittleEndian), NewCrc32cCodec())
	require.NoError(t, err)
	size, err = chain.EncodedSize(rep)
	require.NoError(t, err)
	assert.Equal(t, FixedBytes(68), size)

	chain, err = NewChain(NewBytesCodec(LittleEndian), mustGzip(t, 5))
	require.NoError(t, err)
	size, err = chain.EncodedSize(rep)
	require.NoError(t, err)
	assert.Equal(t, SizeUnbounded, size.Kind)
}

func TestChainEncodeWrongLength(t *testing.T) {
	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	chain, err := NewChain(NewBytesCodec(LittleEndian))
	require.NoError(t, err)
	_, err = chain.Encode(make([]byte, 10), rep, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidBytesLen)
}

// TestChainPartialDecodeConsistency checks that partial decoding any subset
// equals the corresponding slice of a full decode, for chains with and
// without a partial-decode-capable tail.
func TestChainPartialDecodeConsistency(t *testing.T) {
	rep := testRep(t, []uint64{5, 6}, dtype.Int32)
	data := sequentialInt32(30)
	opts := DefaultOptions()
	ctx := context.Background()

	chains := map[string][]Codec{
		"bytes":        {NewBytesCodec(LittleEndian)},
		"bytes be":     {NewBytesCodec(BigEndian)},
		"bytes crc32c": {NewBytesCodec(LittleEndian), NewCrc32cCodec()},
		"bytes gzip":   {NewBytesCodec(LittleEndian), mustGzip(t, 5)},
		"bytes zstd":   {NewBytesCodec(LittleEndian), mustZstd(t, 3)},
		"transpose":    {mustTranspose(t, 1, 0), NewBytesCodec(LittleEndian)},
		"shuffle gzip": {NewBytesCodec(LittleEndian), mustShuffle(t, 4), mustGzip(t, 1)},
	}

	subsets := []subset.ArraySubset{
		subset.Full([]uint64{5, 6}),
		mustSubset(t, []uint64{0, 0}, []uint64{1, 1}),
		mustSubset(t, []uint64{2, 3}, []uint64{3, 2}),
		mustSubset(t, []uint64{4, 0}, []uint64{1, 6}),
	}

	for name, codecs := range chains {
		t.Run(name, func(t *testing.T) {
			chain, err := NewChain(codecs...)
			require.NoError(t, err)
			encoded, err := chain.Encode(data, rep, opts)
			require.NoError(t, err)

			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(ctx, "c/0/0", encoded))

			dec, err := chain.PartialDecoder(NewStoragePartialDecoder(store, "c/0/0"), rep, opts)
			require.NoError(t, err)
			assert.Equal(t, 4, dec.ElementSize())

			full, err := chain.Decode(encoded, rep, opts)
			require.NoError(t, err)

			got, err := dec.PartialDecode(ctx, subsets, opts)
			require.NoError(t, err)
			for i, s := range subsets {
				want, err := s.ExtractBytes(full, rep.Shape(), 4)
				require.NoError(t, err)
				assert.Equal(t, want, got[i], "subset %v", s)
			}
		})
	}
}

func mustSubset(t *testing.T, start, shape []uint64) subset.ArraySubset {
	t.Helper()
	s, err := subset.New(start, shape)
	require.NoError(t, err)
	return s
}

func TestChainPartialDecodeMissingValue(t *testing.T) {
	// A missing store key decodes to the fill value.
	fill := make([]byte, 4)
	binary.NativeEndian.PutUint32(fill, 42)
	rep, err := NewChunkRepresentation([]uint64{2, 2}, dtype.Int32, dtype.NewFillValue(fill))
	require.NoError(t, err)

	chain, err := NewChain(NewBytesCodec(LittleEndian), mustGzip(t, 5))
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	dec, err := chain.PartialDecoder(NewStoragePartialDecoder(store, "missing"), rep, DefaultOptions())
	require.NoError(t, err)

	got, err := dec.PartialDecode(context.Background(), []subset.ArraySubset{subset.Full([]uint64{2, 2})}, DefaultOptions())
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.Equal(t, uint32(42), binary.NativeEndian.Uint32(got[0][4*i:]))
	}
}

func TestChainMetadataRoundTrip(t *testing.T) {
	chain, err := NewChain(
		mustTranspose(t, 1, 0),
		NewBytesCodec(LittleEndian),
		mustGzip(t, 5),
		NewCrc32cCodec(),
	)
	require.NoError(t, err)

	metas := chain.Metadatas()
	require.Len(t, metas, 4)
	assert.Equal(t, "transpose", metas[0].Name)
	assert.Equal(t, "bytes", metas[1].Name)
	assert.Equal(t, "gzip", metas[2].Name)
	assert.Equal(t, "crc32c", metas[3].Name)

	raw, err := json.Marshal(metas)
	require.NoError(t, err)
	var parsed []Metadata
	require.NoError(t, json.Unmarshal(raw, &parsed))

	rebuilt, err := ChainFromMetadata(parsed)
	require.NoError(t, err)

	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	data := sequentialInt32(16)
	encoded, err := chain.Encode(data, rep, DefaultOptions())
	require.NoError(t, err)
	decoded, err := rebuilt.Decode(encoded, rep, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestMetadataBareStringForm(t *testing.T) {
	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(`"crc32c"`), &m))
	assert.Equal(t, "crc32c", m.Name)

	// Serialization always emits the object form.
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"crc32c","configuration":{}}`, string(raw))
}

func TestUnknownCodec(t *testing.T) {
	_, err := FromMetadata(Metadata{Name: "nonsense"})
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestRecommendedConcurrencyMerge(t *testing.T) {
	rep := testRep(t, []uint64{4, 4}, dtype.Int32)
	chain, err := NewChain(NewBytesCodec(LittleEndian), mustGzip(t, 5))
	require.NoError(t, err)
	rec, err := chain.RecommendedConcurrency(rep)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rec.Max, rec.Min)
	assert.GreaterOrEqual(t, rec.Min, 1)
}
