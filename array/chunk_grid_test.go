package array

import (
	"testing"

	"github.com/lorenzocerrone/zarrs/subset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegularGrid(t *testing.T) {
	g, err := NewRegularGrid([]uint64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Dimensionality())

	gridShape, err := g.GridShape([]uint64{8, 10})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, gridShape)

	shape, err := g.ChunkShape([]uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 4}, shape)

	origin, err := g.ChunkOrigin([]uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 8}, origin)

	coords, err := g.ChunkCoords([]uint64{5, 9})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, coords)

	s, err := g.ChunkSubset([]uint64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 4}, s.Start())
	assert.Equal(t, []uint64{4, 4}, s.Shape())
}

func TestRegularGridZeroChunkShape(t *testing.T) {
	_, err := NewRegularGrid([]uint64{4, 0})
	assert.Error(t, err)
}

func TestRectangularGrid(t *testing.T) {
	g, err := NewRectangularGrid([][]uint64{{2, 3, 3}, {4, 4}})
	require.NoError(t, err)

	gridShape, err := g.GridShape([]uint64{8, 8})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 2}, gridShape)

	shape, err := g.ChunkShape([]uint64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, shape)

	origin, err := g.ChunkOrigin([]uint64{2, 1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 4}, origin)

	coords, err := g.ChunkCoords([]uint64{4, 3}) // row 4 is in the 2nd extent [2, 5)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 0}, coords)

	chunks, err := g.ChunksInSubset(mustSubset(t, []uint64{1, 0}, []uint64{4, 8}))
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 0}, chunks.Start())
	assert.Equal(t, []uint64{2, 2}, chunks.Shape())
}

func TestChunksInSubsetEmpty(t *testing.T) {
	g, err := NewRegularGrid([]uint64{4, 4})
	require.NoError(t, err)
	chunks, err := g.ChunksInSubset(mustSubset(t, []uint64{0, 0}, []uint64{0, 8}))
	require.NoError(t, err)
	assert.True(t, chunks.IsEmpty())
}

func TestGridMetadataRoundTrip(t *testing.T) {
	g, err := NewRectangularGrid([][]uint64{{2, 6}, {4, 4}})
	require.NoError(t, err)
	cfg, err := g.MetadataConfiguration()
	require.NoError(t, err)

	rebuilt, err := gridFromMetadata(g.MetadataName(), cfg)
	require.NoError(t, err)
	shape, err := rebuilt.ChunkShape([]uint64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []uint64{6, 4}, shape)

	_, err = gridFromMetadata("triangular", nil)
	assert.ErrorIs(t, err, ErrUnsupportedGrid)
}

func TestRectangularGridArray(t *testing.T) {
	// A rectangular grid drives the full read/write path.
	g, err := NewRectangularGrid([][]uint64{{2, 6}, {4, 4}})
	require.NoError(t, err)
	a, _ := newTestArrayWithGrid(t, g)

	data := make([]int32, 64)
	for i := range data {
		data[i] = int32(i)
	}
	ctx := testCtx()
	require.NoError(t, StoreArraySubsetElements(ctx, a, subset.Full([]uint64{8, 8}), data, testOpts()))

	got, err := RetrieveArraySubsetElements[int32](ctx, a, mustSubset(t, []uint64{1, 2}, []uint64{4, 5}), testOpts())
	require.NoError(t, err)
	want := make([]int32, 0, 20)
	for row := 1; row < 5; row++ {
		for col := 2; col < 7; col++ {
			want = append(want, int32(row*8+col))
		}
	}
	assert.Equal(t, want, got)
}
