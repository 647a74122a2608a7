package codec

import (
	"context"
	"sync"

	"github.com/lorenzocerrone/zarrs/storage"
	"github.com/lorenzocerrone/zarrs/subset"
)

// BytesPartialDecoderCache fetches the entire encoded value of an inner
// decoder once and serves subsequent range requests from the buffer. It is
// scoped to a single pipeline invocation; it is never shared across calls.
type BytesPartialDecoderCache struct {
	inner BytesPartialDecoder

	once  sync.Once
	value []byte // nil if the inner value does not exist
	err   error
}

// NewBytesPartialDecoderCache wraps inner with a whole-value cache.
func NewBytesPartialDecoderCache(inner BytesPartialDecoder) *BytesPartialDecoderCache {
	return &BytesPartialDecoderCache{inner: inner}
}

func (c *BytesPartialDecoderCache) fetch(ctx context.Context, opts Options) ([]byte, error) {
	c.once.Do(func() {
		c.value, c.err = DecodeAll(ctx, c.inner, opts)
	})
	return c.value, c.err
}

// PartialDecode serves ranges from the cached value.
func (c *BytesPartialDecoderCache) PartialDecode(ctx context.Context, ranges []storage.ByteRange, opts Options) ([][]byte, error) {
	value, err := c.fetch(ctx, opts)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return storage.ExtractByteRanges(value, ranges)
}

// ArrayPartialDecoderCache decodes the full chunk of an inner array decoder
// once and serves subset requests by extraction. Like the bytes cache it is
// scoped to a single pipeline invocation.
type ArrayPartialDecoderCache struct {
	inner ArrayPartialDecoder
	rep   ChunkRepresentation

	once  sync.Once
	value []byte
	err   error
}

// NewArrayPartialDecoderCache wraps inner, which decodes chunks of the given
// representation.
func NewArrayPartialDecoderCache(inner ArrayPartialDecoder, rep ChunkRepresentation) *ArrayPartialDecoderCache {
	return &ArrayPartialDecoderCache{inner: inner, rep: rep}
}

// ElementSize returns the element size of the cached representation.
func (c *ArrayPartialDecoderCache) ElementSize() int { return c.rep.ElementSize() }

func (c *ArrayPartialDecoderCache) fetch(ctx context.Context, opts Options) ([]byte, error) {
	c.once.Do(func() {
		full := subset.Full(c.rep.Shape())
		out, err := c.inner.PartialDecode(ctx, []subset.ArraySubset{full}, opts)
		if err != nil {
			c.err = err
			return
		}
		c.value = out[0]
	})
	return c.value, c.err
}

// PartialDecode serves subsets from the cached decoded chunk.
func (c *ArrayPartialDecoderCache) PartialDecode(ctx context.Context, subsets []subset.ArraySubset, opts Options) ([][]byte, error) {
	value, err := c.fetch(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(subsets))
	for i, s := range subsets {
		b, err := s.ExtractBytes(value, c.rep.Shape(), uint64(c.rep.ElementSize()))
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// ByteIntervalPartialDecoder exposes a window of an inner bytes decoder as
// if it were the whole value. Requests are translated by the window offset;
// an open-ended request ends at the window's end and a request reaching
// beyond the window is an error. The sharding codec uses it to address one inner
// chunk inside a shard.
type ByteIntervalPartialDecoder struct {
	inner  BytesPartialDecoder
	offset uint64
	length uint64
}

// NewByteIntervalPartialDecoder restricts inner to the window
// [offset, offset+length).
func NewByteIntervalPartialDecoder(inner BytesPartialDecoder, offset, length uint64) *ByteIntervalPartialDecoder {
	return &ByteIntervalPartialDecoder{inner: inner, offset: offset, length: length}
}

// PartialDecode translates ranges into the window and delegates.
func (d *ByteIntervalPartialDecoder) PartialDecode(ctx context.Context, ranges []storage.ByteRange, opts Options) ([][]byte, error) {
	translated := make([]storage.ByteRange, len(ranges))
	for i, r := range ranges {
		if err := r.Validate(d.length); err != nil {
			return nil, err
		}
		start := r.Start(d.length)
		translated[i] = storage.FromStart(d.offset+start, int64(r.End(d.length)-start))
	}
	return d.inner.PartialDecode(ctx, translated, opts)
}
