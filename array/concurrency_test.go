package array

import (
	"testing"

	"github.com/lorenzocerrone/zarrs"
	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/stretchr/testify/assert"
)

func TestConcurrencyChunksAndCodec(t *testing.T) {
	orig := zarrs.GlobalConfig()
	defer zarrs.SetGlobalConfig(orig)
	zarrs.SetGlobalConfig(zarrs.Config{
		CodecConcurrentTarget:  4,
		ChunkConcurrentMinimum: 4,
		ValidateChecksums:      true,
	})

	serial := codec.SerialConcurrency()
	wide := codec.NewRecommendedConcurrency(1, 64)

	// Chunk fan-out soaks up the budget before codec workers are granted.
	chunks, codecs := concurrencyChunksAndCodec(16, 100, wide)
	assert.Equal(t, 4, chunks)
	assert.Equal(t, 4, codecs)

	// Fewer chunks than the budget allows: the codec side gets the rest.
	chunks, codecs = concurrencyChunksAndCodec(16, 2, wide)
	assert.Equal(t, 2, chunks)
	assert.Equal(t, 8, codecs)

	// A serial codec never gets more than one worker.
	chunks, codecs = concurrencyChunksAndCodec(16, 2, serial)
	assert.Equal(t, 2, chunks)
	assert.Equal(t, 1, codecs)

	// Budget below one worker still runs.
	chunks, codecs = concurrencyChunksAndCodec(0, 5, wide)
	assert.GreaterOrEqual(t, chunks, 1)
	assert.GreaterOrEqual(t, codecs, 1)
}
