package codec

import (
	"fmt"
)

// Chain is an ordered codec sequence: zero or more array→array codecs, one
// array→bytes codec, and zero or more bytes→bytes codecs. A chain is the
// unit of chunk encoding and decoding.
//
// A chain partial decoder may insert a cache after the last codec whose
// partial decoder decodes everything, or before the first codec that prefers
// cached input, whichever sits deeper in the chain. The insertion point is
// computed once at construction.
type Chain struct {
	arrayToArray []ArrayToArray
	arrayToBytes ArrayToBytes
	bytesToBytes []BytesToBytes
	cacheIndex   int // position in the decode walk, -1 for none
}

// NewChain sorts codecs by kind and builds a chain. There must be exactly
// one array→bytes codec.
func NewChain(codecs ...Codec) (*Chain, error) {
	chain := &Chain{cacheIndex: -1}
	for _, c := range codecs {
		switch c := c.(type) {
		case ArrayToArray:
			chain.arrayToArray = append(chain.arrayToArray, c)
		case ArrayToBytes:
			if chain.arrayToBytes != nil {
				return nil, ErrMultipleA2B
			}
			chain.arrayToBytes = c
		case BytesToBytes:
			chain.bytesToBytes = append(chain.bytesToBytes, c)
		default:
			return nil, fmt.Errorf("codec %q implements no codec kind", c.Name())
		}
	}
	if chain.arrayToBytes == nil {
		return nil, ErrMissingA2B
	}
	chain.cacheIndex = chain.computeCacheIndex()
	return chain, nil
}

// ChainFromMetadata constructs a chain from the codecs list of array
// metadata.
func ChainFromMetadata(metas []Metadata) (*Chain, error) {
	codecs := make([]Codec, 0, len(metas))
	for _, m := range metas {
		c, err := FromMetadata(m)
		if err != nil {
			return nil, err
		}
		codecs = append(codecs, c)
	}
	return NewChain(codecs...)
}

// computeCacheIndex walks the decode order (last bytes→bytes codec first)
// and finds where a partial decoder cache must or should be inserted.
func (c *Chain) computeCacheIndex() int {
	indexMust := -1
	indexShould := -1
	i := 0
	for k := len(c.bytesToBytes) - 1; k >= 0; k-- {
		codec := c.bytesToBytes[k]
		if indexShould < 0 && codec.PartialDecoderShouldCacheInput() {
			indexShould = i
		}
		if codec.PartialDecoderDecodesAll() {
			indexMust = i + 1
		}
		i++
	}
	if indexShould < 0 && c.arrayToBytes.PartialDecoderShouldCacheInput() {
		indexShould = i
	}
	if c.arrayToBytes.PartialDecoderDecodesAll() {
		indexMust = i + 1
	}
	i++
	for k := len(c.arrayToArray) - 1; k >= 0; k-- {
		codec := c.arrayToArray[k]
		if indexShould < 0 && codec.PartialDecoderShouldCacheInput() {
			indexShould = i
		}
		if codec.PartialDecoderDecodesAll() {
			indexMust = i + 1
		}
		i++
	}
	if indexMust >= 0 && indexShould >= 0 {
		return max(indexMust, indexShould)
	}
	if indexMust >= 0 {
		return indexMust
	}
	return indexShould
}

// Metadatas returns the metadata entries of the chain's codecs, in encode
// order.
func (c *Chain) Metadatas() []Metadata {
	out := make([]Metadata, 0, len(c.arrayToArray)+1+len(c.bytesToBytes))
	for _, codec := range c.arrayToArray {
		out = append(out, codec.Metadata())
	}
	out = append(out, c.arrayToBytes.Metadata())
	for _, codec := range c.bytesToBytes {
		out = append(out, codec.Metadata())
	}
	return out
}

// ArrayToBytesCodec returns the chain's array→bytes codec.
func (c *Chain) ArrayToBytesCodec() ArrayToBytes { return c.arrayToBytes }

// arrayRepresentations returns the decoded representation followed by the
// representation after each array→array codec.
func (c *Chain) arrayRepresentations(decoded ChunkRepresentation) ([]ChunkRepresentation, error) {
	reps := make([]ChunkRepresentation, 0, len(c.arrayToArray)+1)
	reps = append(reps, decoded)
	for _, codec := range c.arrayToArray {
		next, err := codec.EncodedRepresentation(reps[len(reps)-1])
		if err != nil {
			return nil, fmt.Errorf("codec %q: %w", codec.Name(), err)
		}
		reps = append(reps, next)
	}
	return reps, nil
}

// bytesRepresentations returns the representation after the array→bytes
// codec followed by the representation after each bytes→bytes codec.
func (c *Chain) bytesRepresentations(last ChunkRepresentation) ([]BytesRepresentation, error) {
	reps := make([]BytesRepresentation, 0, len(c.bytesToBytes)+1)
	first, err := c.arrayToBytes.EncodedSize(last)
	if err != nil {
		return nil, fmt.Errorf("codec %q: %w", c.arrayToBytes.Name(), err)
	}
	reps = append(reps, first)
	for _, codec := range c.bytesToBytes {
		reps = append(reps, codec.EncodedSize(reps[len(reps)-1]))
	}
	return reps, nil
}

// EncodedSize classifies the encoded size of a chunk through the whole
// chain.
func (c *Chain) EncodedSize(decoded ChunkRepresentation) (BytesRepresentation, error) {
	areps, err := c.arrayRepresentations(decoded)
	if err != nil {
		return BytesRepresentation{}, err
	}
	breps, err := c.bytesRepresentations(areps[len(areps)-1])
	if err != nil {
		return BytesRepresentation{}, err
	}
	return breps[len(breps)-1], nil
}

// RecommendedConcurrency merges the recommendations of every codec in the
// chain.
func (c *Chain) RecommendedConcurrency(decoded ChunkRepresentation) (RecommendedConcurrency, error) {
	areps, err := c.arrayRepresentations(decoded)
	if err != nil {
		return RecommendedConcurrency{}, err
	}
	breps, err := c.bytesRepresentations(areps[len(areps)-1])
	if err != nil {
		return RecommendedConcurrency{}, err
	}

	lo, hi := 1, 1
	for i, codec := range c.arrayToArray {
		rec, err := codec.RecommendedConcurrency(areps[i])
		if err != nil {
			return RecommendedConcurrency{}, err
		}
		lo, hi = max(lo, rec.Min), max(hi, rec.Max)
	}
	rec, err := c.arrayToBytes.RecommendedConcurrency(areps[len(areps)-1])
	if err != nil {
		return RecommendedConcurrency{}, err
	}
	lo, hi = max(lo, rec.Min), max(hi, rec.Max)
	for i, codec := range c.bytesToBytes {
		rec, err := codec.RecommendedConcurrency(breps[i])
		if err != nil {
			return RecommendedConcurrency{}, err
		}
		lo, hi = max(lo, rec.Min), max(hi, rec.Max)
	}
	return NewRecommendedConcurrency(lo, hi), nil
}

// Encode walks the chain forward, turning decoded element bytes into the
// stored value.
func (c *Chain) Encode(data []byte, decoded ChunkRepresentation, opts Options) ([]byte, error) {
	if uint64(len(data)) != decoded.Size() {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrInvalidBytesLen, len(data), decoded.Size())
	}

	rep := decoded
	var err error
	for _, codec := range c.arrayToArray {
		if data, err = codec.Encode(data, rep, opts); err != nil {
			return nil, fmt.Errorf("codec %q encode: %w", codec.Name(), err)
		}
		if rep, err = codec.EncodedRepresentation(rep); err != nil {
			return nil, fmt.Errorf("codec %q: %w", codec.Name(), err)
		}
	}
	if data, err = c.arrayToBytes.Encode(data, rep, opts); err != nil {
		return nil, fmt.Errorf("codec %q encode: %w", c.arrayToBytes.Name(), err)
	}
	for _, codec := range c.bytesToBytes {
		if data, err = codec.Encode(data, opts); err != nil {
			return nil, fmt.Errorf("codec %q encode: %w", codec.Name(), err)
		}
	}
	return data, nil
}

// Decode walks the chain in reverse, turning the stored value back into
// decoded element bytes.
func (c *Chain) Decode(data []byte, decoded ChunkRepresentation, opts Options) ([]byte, error) {
	areps, err := c.arrayRepresentations(decoded)
	if err != nil {
		return nil, err
	}
	breps, err := c.bytesRepresentations(areps[len(areps)-1])
	if err != nil {
		return nil, err
	}

	for k := len(c.bytesToBytes) - 1; k >= 0; k-- {
		codec := c.bytesToBytes[k]
		if data, err = codec.Decode(data, breps[k], opts); err != nil {
			return nil, fmt.Errorf("codec %q decode: %w", codec.Name(), err)
		}
	}
	if data, err = c.arrayToBytes.Decode(data, areps[len(areps)-1], opts); err != nil {
		return nil, fmt.Errorf("codec %q decode: %w", c.arrayToBytes.Name(), err)
	}
	for k := len(c.arrayToArray) - 1; k >= 0; k-- {
		codec := c.arrayToArray[k]
		if data, err = codec.Decode(data, areps[k], opts); err != nil {
			return nil, fmt.Errorf("codec %q decode: %w", codec.Name(), err)
		}
	}
	if uint64(len(data)) != decoded.Size() {
		return nil, fmt.Errorf("%w: decoded to %d bytes, expected %d", ErrInvalidBytesLen, len(data), decoded.Size())
	}
	return data, nil
}

// PartialDecoder builds the partial decoding stack for a chunk: bytes→bytes
// partial decoders in reverse order, the array→bytes partial decoder, then
// array→array partial decoders, with a cache inserted at the position
// computed at construction.
func (c *Chain) PartialDecoder(input BytesPartialDecoder, decoded ChunkRepresentation, opts Options) (ArrayPartialDecoder, error) {
	areps, err := c.arrayRepresentations(decoded)
	if err != nil {
		return nil, err
	}
	breps, err := c.bytesRepresentations(areps[len(areps)-1])
	if err != nil {
		return nil, err
	}

	i := 0
	for k := len(c.bytesToBytes) - 1; k >= 0; k-- {
		codec := c.bytesToBytes[k]
		if i == c.cacheIndex {
			input = NewBytesPartialDecoderCache(input)
		}
		i++
		if input, err = codec.PartialDecoder(input, breps[k], opts); err != nil {
			return nil, fmt.Errorf("codec %q partial decoder: %w", codec.Name(), err)
		}
	}
	if i == c.cacheIndex {
		input = NewBytesPartialDecoderCache(input)
	}
	i++

	arrayInput, err := c.arrayToBytes.PartialDecoder(input, areps[len(areps)-1], opts)
	if err != nil {
		return nil, fmt.Errorf("codec %q partial decoder: %w", c.arrayToBytes.Name(), err)
	}

	for k := len(c.arrayToArray) - 1; k >= 0; k-- {
		codec := c.arrayToArray[k]
		if i == c.cacheIndex {
			arrayInput = NewArrayPartialDecoderCache(arrayInput, areps[k+1])
		}
		i++
		if arrayInput, err = codec.PartialDecoder(arrayInput, areps[k], opts); err != nil {
			return nil, fmt.Errorf("codec %q partial decoder: %w", codec.Name(), err)
		}
	}
	if i == c.cacheIndex {
		arrayInput = NewArrayPartialDecoderCache(arrayInput, areps[0])
	}
	return arrayInput, nil
}
