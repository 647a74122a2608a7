package array

import (
	"context"
	"testing"

	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/lorenzocerrone/zarrs/subset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArrayViewValidation(t *testing.T) {
	buf := make([]byte, 8*8*4)
	_, err := NewArrayView(buf, []uint64{8, 8}, mustSubset(t, []uint64{6, 6}, []uint64{4, 4}), 4)
	assert.ErrorIs(t, err, ErrInvalidArraySubset)

	_, err = NewArrayView(make([]byte, 10), []uint64{8, 8}, mustSubset(t, []uint64{0, 0}, []uint64{2, 2}), 4)
	assert.Error(t, err)

	_, err = NewArrayView(buf, []uint64{8, 8}, mustSubset(t, []uint64{0, 0}, []uint64{2, 2}), 4)
	assert.NoError(t, err)
}

func TestRetrieveChunkIntoArrayView(t *testing.T) {
	a, _ := newTestArray(t)
	ctx := context.Background()
	opts := codec.DefaultOptions()

	data := make([]int32, 16)
	for i := range data {
		data[i] = int32(i + 1)
	}
	require.NoError(t, StoreChunkElements(ctx, a, []uint64{0, 1}, data, opts))

	// Decode the chunk into the top-right corner of an 8x8 buffer.
	buf := make([]byte, 8*8*4)
	view, err := NewArrayView(buf, []uint64{8, 8}, mustSubset(t, []uint64{0, 4}, []uint64{4, 4}), 4)
	require.NoError(t, err)
	require.NoError(t, a.RetrieveChunkIntoArrayView(ctx, []uint64{0, 1}, view, opts))

	elements, err := BytesToElements[int32](buf, 4)
	require.NoError(t, err)
	assert.Equal(t, int32(1), elements[4])
	assert.Equal(t, int32(4), elements[7])
	assert.Equal(t, int32(13), elements[3*8+4])
	assert.Equal(t, int32(0), elements[0])
}

func TestRetrieveArraySubsetIntoArrayView(t *testing.T) {
	a, _ := newTestArray(t)
	ctx := context.Background()
	opts := codec.DefaultOptions()

	window := make([]int32, 16)
	for i := range window {
		window[i] = int32(i + 1)
	}
	require.NoError(t, StoreArraySubsetElements(ctx, a, mustSubset(t, []uint64{2, 2}, []uint64{4, 4}), window, opts))

	buf := make([]byte, 4*4*4)
	view, err := NewArrayView(buf, []uint64{4, 4}, subset.Full([]uint64{4, 4}), 4)
	require.NoError(t, err)
	require.NoError(t, a.RetrieveArraySubsetIntoArrayView(ctx, mustSubset(t, []uint64{2, 2}, []uint64{4, 4}), view, opts))

	elements, err := BytesToElements[int32](buf, 4)
	require.NoError(t, err)
	assert.Equal(t, window, elements)
}

func TestViewWindowShapeMismatch(t *testing.T) {
	a, _ := newTestArray(t)
	buf := make([]byte, 8*8*4)
	view, err := NewArrayView(buf, []uint64{8, 8}, mustSubset(t, []uint64{0, 0}, []uint64{2, 2}), 4)
	require.NoError(t, err)
	err = a.RetrieveChunkIntoArrayView(context.Background(), []uint64{0, 0}, view, codec.DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidArraySubset)
}
