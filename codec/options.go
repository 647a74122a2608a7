package codec

import "github.com/lorenzocerrone/zarrs"

// Options carries per-call codec settings. Options are threaded explicitly
// through every codec call so a single pipeline invocation can run under a
// caller-chosen budget.
type Options struct {
	// ValidateChecksums controls whether checksum codecs verify checksums
	// on decode.
	ValidateChecksums bool

	// ConcurrentTarget is the number of workers a codec may use internally
	// for a single chunk. It is at least 1.
	ConcurrentTarget int
}

// DefaultOptions derives options from the process-wide configuration.
func DefaultOptions() Options {
	cfg := zarrs.GlobalConfig()
	return Options{
		ValidateChecksums: cfg.ValidateChecksums,
		ConcurrentTarget:  max(1, cfg.CodecConcurrentTarget),
	}
}

// WithConcurrentTarget returns a copy of the options with the concurrent
// target replaced.
func (o Options) WithConcurrentTarget(n int) Options {
	o.ConcurrentTarget = max(1, n)
	return o
}

// RecommendedConcurrency is a codec's preferred internal worker range for a
// given representation.
type RecommendedConcurrency struct {
	Min int
	Max int
}

// NewRecommendedConcurrency clamps and returns a concurrency range.
func NewRecommendedConcurrency(minimum, maximum int) RecommendedConcurrency {
	if minimum < 1 {
		minimum = 1
	}
	if maximum < minimum {
		maximum = minimum
	}
	return RecommendedConcurrency{Min: minimum, Max: maximum}
}

// SerialConcurrency is the recommendation of a codec with no useful internal
// parallelism.
func SerialConcurrency() RecommendedConcurrency {
	return RecommendedConcurrency{Min: 1, Max: 1}
}
