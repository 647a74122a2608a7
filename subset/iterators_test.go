package subset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicesOrder(t *testing.T) {
	s, _ := New([]uint64{1, 1}, []uint64{2, 3})
	it := s.Indices()
	assert.Equal(t, uint64(6), it.Len())

	expected := [][]uint64{
		{1, 1}, {1, 2}, {1, 3},
		{2, 1}, {2, 2}, {2, 3},
	}
	assert.Equal(t, expected, it.Collect())
}

func TestIndicesBack(t *testing.T) {
	s, _ := New([]uint64{0, 0}, []uint64{2, 2})
	it := s.Indices()
	back, ok := it.NextBack()
	require.True(t, ok)
	assert.Equal(t, []uint64{1, 1}, back)
	front, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, []uint64{0, 0}, front)
	assert.Equal(t, uint64(2), it.Len())
}

func TestIndicesSplit(t *testing.T) {
	s, _ := New([]uint64{0, 0}, []uint64{4, 4})
	parts := s.Indices().Split(3)

	var all [][]uint64
	var total uint64
	for _, p := range parts {
		total += p.Len()
		all = append(all, p.Collect()...)
	}
	assert.Equal(t, uint64(16), total)
	assert.Equal(t, s.Indices().Collect(), all)
}

func TestIndicesSplitMoreThanLen(t *testing.T) {
	s, _ := New([]uint64{0}, []uint64{3})
	parts := s.Indices().Split(10)
	assert.Len(t, parts, 3)
}

func TestLinearisedIndices(t *testing.T) {
	arrayShape := []uint64{4, 4}
	s, _ := New([]uint64{1, 1}, []uint64{2, 2})
	it, err := s.LinearisedIndices(arrayShape)
	require.NoError(t, err)

	var got []uint64
	for {
		offset, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, offset)
	}
	assert.Equal(t, []uint64{5, 6, 9, 10}, got)
}

func TestLinearisedIndicesOutOfBounds(t *testing.T) {
	s, _ := New([]uint64{3, 3}, []uint64{2, 2})
	_, err := s.LinearisedIndices([]uint64{4, 4})
	var wrongShape *IncompatibleShapeError
	assert.ErrorAs(t, err, &wrongShape)
}

func TestContiguousIndicesInterior(t *testing.T) {
	// Interior subset: one run per row.
	s, _ := New([]uint64{1, 1}, []uint64{2, 2})
	it, err := s.ContiguousIndices([]uint64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), it.Len())
	assert.Equal(t, uint64(2), it.ContiguousElements())

	start, n, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, []uint64{1, 1}, start)
	assert.Equal(t, uint64(2), n)

	start, _, ok = it.Next()
	require.True(t, ok)
	assert.Equal(t, []uint64{2, 1}, start)

	_, _, ok = it.Next()
	assert.False(t, ok)
}

func TestContiguousIndicesMergedRows(t *testing.T) {
	// Full-width rows merge into a single run.
	s, _ := New([]uint64{1, 0}, []uint64{2, 4})
	it, err := s.ContiguousIndices([]uint64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), it.Len())
	assert.Equal(t, uint64(8), it.ContiguousElements())

	start, n, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, []uint64{1, 0}, start)
	assert.Equal(t, uint64(8), n)
}

func TestContiguousLinearisedMonotone(t *testing.T) {
	// Runs must cover prod(shape) elements with strictly increasing offsets.
	arrayShape := []uint64{5, 7, 3}
	s, _ := New([]uint64{1, 2, 0}, []uint64{3, 4, 3})
	it, err := s.ContiguousLinearisedIndices(arrayShape)
	require.NoError(t, err)

	var total uint64
	last := int64(-1)
	for {
		offset, n, ok := it.Next()
		if !ok {
			break
		}
		require.Greater(t, int64(offset), last)
		last = int64(offset)
		total += n
	}
	assert.Equal(t, s.NumElements(), total)
}

func TestChunksOverlap(t *testing.T) {
	s, _ := New([]uint64{2, 2}, []uint64{4, 4})
	chunks, err := s.Chunks([]uint64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), chunks.Len())
	assert.Equal(t, [][]uint64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, chunks.Collect())
}

func TestChunksExactlyOne(t *testing.T) {
	s, _ := New([]uint64{4, 4}, []uint64{4, 4})
	chunks, err := s.Chunks([]uint64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, [][]uint64{{1, 1}}, chunks.Collect())
}

func TestChunksEmptySubset(t *testing.T) {
	s, _ := New([]uint64{0, 0}, []uint64{0, 4})
	chunks, err := s.Chunks([]uint64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), chunks.Len())
}

// TestChunksExhaustive cross-checks the chunk iterator against a brute-force
// scan: every chunk whose subset intersects s is yielded, and no others.
func TestChunksExhaustive(t *testing.T) {
	chunkShape := []uint64{3, 2}
	s, _ := New([]uint64{1, 3}, []uint64{5, 4})
	chunks, err := s.Chunks(chunkShape)
	require.NoError(t, err)

	yielded := make(map[[2]uint64]bool)
	for {
		c, ok := chunks.Next()
		if !ok {
			break
		}
		yielded[[2]uint64{c[0], c[1]}] = true
	}

	for c0 := uint64(0); c0 < 4; c0++ {
		for c1 := uint64(0); c1 < 6; c1++ {
			chunkSubset, _ := New([]uint64{c0 * chunkShape[0], c1 * chunkShape[1]}, chunkShape)
			overlap, _ := chunkSubset.Overlap(s)
			assert.Equal(t, !overlap.IsEmpty(), yielded[[2]uint64{c0, c1}],
				"chunk (%d, %d)", c0, c1)
		}
	}
}

func TestExtractOverwriteBytes(t *testing.T) {
	// 4x4 array of single bytes 0..15.
	src := make([]byte, 16)
	for i := range src {
		src[i] = byte(i)
	}
	s, _ := New([]uint64{1, 1}, []uint64{2, 2})

	got, err := s.ExtractBytes(src, []uint64{4, 4}, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 9, 10}, got)

	dst := make([]byte, 16)
	require.NoError(t, s.OverwriteBytes(dst, []uint64{4, 4}, 1, got))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 5, 6, 0, 0, 9, 10, 0, 0, 0, 0, 0}, dst)
}

func TestExtractBytesMultiByteElements(t *testing.T) {
	// 2x2 array of 4-byte elements.
	src := []byte{
		1, 1, 1, 1, 2, 2, 2, 2,
		3, 3, 3, 3, 4, 4, 4, 4,
	}
	s, _ := New([]uint64{0, 1}, []uint64{2, 1})
	got, err := s.ExtractBytes(src, []uint64{2, 2}, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 2, 2, 2, 4, 4, 4, 4}, got)
}
