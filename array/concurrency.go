package array

import (
	"github.com/lorenzocerrone/zarrs"
	"github.com/lorenzocerrone/zarrs/codec"
)

// concurrencyChunksAndCodec splits a caller's concurrency budget between
// chunk-level and codec-internal parallelism. Work parallelizes at the chunk
// level first; codec-internal workers are granted only when the chunk
// fan-out leaves budget unused.
func concurrencyChunksAndCodec(budget int, numChunks uint64, rec codec.RecommendedConcurrency) (chunkConcurrency, codecConcurrency int) {
	cfg := zarrs.GlobalConfig()
	if budget < 1 {
		budget = 1
	}

	codecTarget := min(max(1, cfg.CodecConcurrentTarget), rec.Max)
	chunkMin := max(1, cfg.ChunkConcurrentMinimum)

	chunkConcurrency = max(chunkMin, budget/codecTarget)
	if n := int(numChunks); n > 0 && chunkConcurrency > n {
		chunkConcurrency = n
	}
	codecConcurrency = max(1, budget/chunkConcurrency)
	if codecConcurrency > rec.Max {
		codecConcurrency = rec.Max
	}
	return chunkConcurrency, codecConcurrency
}
