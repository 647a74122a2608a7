package codec

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/lorenzocerrone/zarrs/dtype"
	"github.com/lorenzocerrone/zarrs/subset"
	"golang.org/x/sync/errgroup"
)

// ShardingCodecName is the registered name of the sharding codec.
const ShardingCodecName = "sharding_indexed"

// missingChunk is the index sentinel for an inner chunk that is entirely
// fill value and absent from the shard.
const missingChunk = math.MaxUint64

// IndexLocation places the shard index at the start or the end of the
// encoded shard.
type IndexLocation int

// Index locations.
const (
	IndexLocationEnd IndexLocation = iota
	IndexLocationStart
)

func (l IndexLocation) String() string {
	if l == IndexLocationStart {
		return "start"
	}
	return "end"
}

// ShardingCodec is an array→bytes codec that re-chunks a chunk into inner
// chunks, each encoded by a nested codec chain. The encoded shard carries an
// index of (offset, length) pairs, one per inner chunk, itself encoded by a
// dedicated index codec chain. The index makes byte-range reads of single
// inner chunks possible, so a shard supports efficient partial decoding.
type ShardingCodec struct {
	innerShape []uint64
	inner      *Chain
	index      *Chain
	location   IndexLocation
}

var _ ArrayToBytes = (*ShardingCodec)(nil)

// NewShardingCodec creates a sharding codec. innerShape is the inner chunk
// shape, which must divide the shard's chunk shape evenly on use. inner
// encodes inner chunks; index encodes the shard index and must have a fixed
// encoded size.
func NewShardingCodec(innerShape []uint64, inner, index *Chain, location IndexLocation) (*ShardingCodec, error) {
	for _, c := range innerShape {
		if c == 0 {
			return nil, fmt.Errorf("%w: inner chunk shape %v has a zero component", ErrInvalidChunkShape, innerShape)
		}
	}
	s := make([]uint64, len(innerShape))
	copy(s, innerShape)
	return &ShardingCodec{innerShape: s, inner: inner, index: index, location: location}, nil
}

type shardingConfig struct {
	ChunkShape    []uint64   `json:"chunk_shape"`
	Codecs        []Metadata `json:"codecs"`
	IndexCodecs   []Metadata `json:"index_codecs"`
	IndexLocation string     `json:"index_location,omitempty"`
}

func newShardingCodecFromConfig(raw json.RawMessage) (Codec, error) {
	var cfg shardingConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	inner, err := ChainFromMetadata(cfg.Codecs)
	if err != nil {
		return nil, fmt.Errorf("inner codecs: %w", err)
	}
	index, err := ChainFromMetadata(cfg.IndexCodecs)
	if err != nil {
		return nil, fmt.Errorf("index codecs: %w", err)
	}
	location := IndexLocationEnd
	switch cfg.IndexLocation {
	case "", "end":
	case "start":
		location = IndexLocationStart
	default:
		return nil, fmt.Errorf("invalid index location %q", cfg.IndexLocation)
	}
	return NewShardingCodec(cfg.ChunkShape, inner, index, location)
}

// Name returns "sharding_indexed".
func (c *ShardingCodec) Name() string { return ShardingCodecName }

// Metadata returns the codec metadata entry.
func (c *ShardingCodec) Metadata() Metadata {
	return NewMetadata(ShardingCodecName, shardingConfig{
		ChunkShape:    c.innerShape,
		Codecs:        c.inner.Metadatas(),
		IndexCodecs:   c.index.Metadatas(),
		IndexLocation: c.location.String(),
	})
}

// PartialDecoderShouldCacheInput returns false.
func (c *ShardingCodec) PartialDecoderShouldCacheInput() bool { return false }

// PartialDecoderDecodesAll returns false; that is the point of the index.
func (c *ShardingCodec) PartialDecoderDecodesAll() bool { return false }

// chunksPerShard validates the shard representation and returns the inner
// chunk grid shape.
func (c *ShardingCodec) chunksPerShard(decoded ChunkRepresentation) ([]uint64, error) {
	shape := decoded.Shape()
	if len(shape) != len(c.innerShape) {
		return nil, fmt.Errorf("%w: shard shape %v, inner chunk shape %v", ErrInvalidChunkShape, shape, c.innerShape)
	}
	out := make([]uint64, len(shape))
	for i := range shape {
		if shape[i]%c.innerShape[i] != 0 {
			return nil, fmt.Errorf("%w: inner chunk shape %v does not divide shard shape %v", ErrInvalidChunkShape, c.innerShape, shape)
		}
		out[i] = shape[i] / c.innerShape[i]
	}
	return out, nil
}

// innerRepresentation returns the representation of one inner chunk.
func (c *ShardingCodec) innerRepresentation(decoded ChunkRepresentation) (ChunkRepresentation, error) {
	return NewChunkRepresentation(c.innerShape, decoded.DataType(), decoded.FillValue())
}

// indexRepresentation returns the representation of the shard index: an
// array of (offset, length) pairs, one per inner chunk, as uint64 elements
// with the missing-chunk sentinel as fill value.
func (c *ShardingCodec) indexRepresentation(chunksPerShard []uint64) (ChunkRepresentation, error) {
	shape := make([]uint64, 0, len(chunksPerShard)+1)
	shape = append(shape, chunksPerShard...)
	shape = append(shape, 2)
	var sentinel [8]byte
	binary.NativeEndian.PutUint64(sentinel[:], missingChunk)
	return NewChunkRepresentation(shape, dtype.Uint64, dtype.NewFillValue(sentinel[:]))
}

// indexEncodedSize returns the fixed encoded size of the shard index.
func (c *ShardingCodec) indexEncodedSize(indexRep ChunkRepresentation) (uint64, error) {
	rep, err := c.index.EncodedSize(indexRep)
	if err != nil {
		return 0, err
	}
	if rep.Kind != SizeFixed {
		return 0, fmt.Errorf("%w: shard index encodes to %s", ErrNotFixedSize, rep)
	}
	return rep.Size, nil
}

// EncodedSize is bounded when the inner chain is; otherwise unbounded.
func (c *ShardingCodec) EncodedSize(decoded ChunkRepresentation) (BytesRepresentation, error) {
	chunksPerShard, err := c.chunksPerShard(decoded)
	if err != nil {
		return BytesRepresentation{}, err
	}
	indexRep, err := c.indexRepresentation(chunksPerShard)
	if err != nil {
		return BytesRepresentation{}, err
	}
	indexSize, err := c.indexEncodedSize(indexRep)
	if err != nil {
		return BytesRepresentation{}, err
	}
	innerRep, err := c.innerRepresentation(decoded)
	if err != nil {
		return BytesRepresentation{}, err
	}
	innerSize, err := c.inner.EncodedSize(innerRep)
	if err != nil {
		return BytesRepresentation{}, err
	}
	if innerSize.Kind == SizeUnbounded {
		return UnboundedBytes(), nil
	}
	n := numElementsOf(chunksPerShard)
	return BoundedBytes(indexSize + n*innerSize.Size), nil
}

// RecommendedConcurrency recommends up to one worker per inner chunk.
func (c *ShardingCodec) RecommendedConcurrency(decoded ChunkRepresentation) (RecommendedConcurrency, error) {
	chunksPerShard, err := c.chunksPerShard(decoded)
	if err != nil {
		return RecommendedConcurrency{}, err
	}
	return NewRecommendedConcurrency(1, int(numElementsOf(chunksPerShard))), nil
}

func numElementsOf(shape []uint64) uint64 {
	n := uint64(1)
	for _, c := range shape {
		n *= c
	}
	return n
}

// Encode builds the shard: each non-fill inner chunk encoded by the inner
// chain, concatenated, plus the encoded index at the configured end.
func (c *ShardingCodec) Encode(data []byte, decoded ChunkRepresentation, opts Options) ([]byte, error) {
	if uint64(len(data)) != decoded.Size() {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrInvalidBytesLen, len(data), decoded.Size())
	}
	chunksPerShard, err := c.chunksPerShard(decoded)
	if err != nil {
		return nil, err
	}
	innerRep, err := c.innerRepresentation(decoded)
	if err != nil {
		return nil, err
	}
	indexRep, err := c.indexRepresentation(chunksPerShard)
	if err != nil {
		return nil, err
	}
	indexSize, err := c.indexEncodedSize(indexRep)
	if err != nil {
		return nil, err
	}

	numChunks := numElementsOf(chunksPerShard)
	fill := decoded.FillValue()
	elementSize := uint64(decoded.ElementSize())

	// Encode inner chunks concurrently; assembly stays deterministic
	// because chunks are laid out by index order afterwards.
	encoded := make([][]byte, numChunks)
	g := new(errgroup.Group)
	g.SetLimit(max(1, opts.ConcurrentTarget))
	innerOpts := opts.WithConcurrentTarget(1)
	it := subset.Full(chunksPerShard).Indices()
	for i := uint64(0); i < numChunks; i++ {
		chunkCoords, _ := it.Next()
		i := i
		g.Go(func() error {
			innerSubset, err := c.innerChunkSubset(chunkCoords)
			if err != nil {
				return err
			}
			chunkBytes, err := innerSubset.ExtractBytes(data, decoded.Shape(), elementSize)
			if err != nil {
				return err
			}
			if fill.EqualsAll(chunkBytes) {
				return nil // sentinel entry, no bytes in the shard
			}
			enc, err := c.inner.Encode(chunkBytes, innerRep, innerOpts)
			if err != nil {
				return err
			}
			encoded[i] = enc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Lay out the shard and build the index.
	index := make([]uint64, 2*numChunks)
	var body []byte
	offset := uint64(0)
	if c.location == IndexLocationStart {
		offset = indexSize
	}
	for i := uint64(0); i < numChunks; i++ {
		if encoded[i] == nil {
			index[2*i] = missingChunk
			index[2*i+1] = missingChunk
			continue
		}
		index[2*i] = offset
		index[2*i+1] = uint64(len(encoded[i]))
		body = append(body, encoded[i]...)
		offset += uint64(len(encoded[i]))
	}

	indexBytes := make([]byte, 8*len(index))
	for i, v := range index {
		binary.NativeEndian.PutUint64(indexBytes[8*i:], v)
	}
	encodedIndex, err := c.index.Encode(indexBytes, indexRep, innerOpts)
	if err != nil {
		return nil, fmt.Errorf("encoding shard index: %w", err)
	}

	out := make([]byte, 0, uint64(len(body))+indexSize)
	if c.location == IndexLocationStart {
		out = append(out, encodedIndex...)
		out = append(out, body...)
	} else {
		out = append(out, body...)
		out = append(out, encodedIndex...)
	}
	return out, nil
}

// innerChunkSubset returns the subset of the shard covered by the inner
// chunk at chunkCoords.
func (c *ShardingCodec) innerChunkSubset(chunkCoords []uint64) (subset.ArraySubset, error) {
	start := make([]uint64, len(chunkCoords))
	for i := range chunkCoords {
		start[i] = chunkCoords[i] * c.innerShape[i]
	}
	return subset.New(start, c.innerShape)
}

// decodeIndex extracts and decodes the shard index from an encoded shard.
func (c *ShardingCodec) decodeIndex(encoded []byte, indexRep ChunkRepresentation, indexSize uint64, opts Options) ([]uint64, error) {
	if uint64(len(encoded)) < indexSize {
		return nil, fmt.Errorf("shard of %d bytes is shorter than its index (%d bytes)", len(encoded), indexSize)
	}
	var raw []byte
	if c.location == IndexLocationStart {
		raw = encoded[:indexSize]
	} else {
		raw = encoded[uint64(len(encoded))-indexSize:]
	}
	indexBytes, err := c.index.Decode(raw, indexRep, opts.WithConcurrentTarget(1))
	if err != nil {
		return nil, fmt.Errorf("decoding shard index: %w", err)
	}
	index := make([]uint64, len(indexBytes)/8)
	for i := range index {
		index[i] = binary.NativeEndian.Uint64(indexBytes[8*i:])
	}
	return index, nil
}

// Decode reassembles the full chunk from the shard. Missing inner chunks
// decode to the fill value.
func (c *ShardingCodec) Decode(data []byte, decoded ChunkRepresentation, opts Options) ([]byte, error) {
	chunksPerShard, err := c.chunksPerShard(decoded)
	if err != nil {
		return nil, err
	}
	innerRep, err := c.innerRepresentation(decoded)
	if err != nil {
		return nil, err
	}
	indexRep, err := c.indexRepresentation(chunksPerShard)
	if err != nil {
		return nil, err
	}
	indexSize, err := c.indexEncodedSize(indexRep)
	if err != nil {
		return nil, err
	}
	index, err := c.decodeIndex(data, indexRep, indexSize, opts)
	if err != nil {
		return nil, err
	}

	out := decoded.FillValue().Repeat(decoded.NumElements())
	elementSize := uint64(decoded.ElementSize())
	numChunks := numElementsOf(chunksPerShard)

	g := new(errgroup.Group)
	g.SetLimit(max(1, opts.ConcurrentTarget))
	innerOpts := opts.WithConcurrentTarget(1)
	it := subset.Full(chunksPerShard).Indices()
	for i := uint64(0); i < numChunks; i++ {
		chunkCoords, _ := it.Next()
		offset, length := index[2*i], index[2*i+1]
		if offset == missingChunk && length == missingChunk {
			continue
		}
		g.Go(func() error {
			if offset+length > uint64(len(data)) {
				return fmt.Errorf("shard index entry [%d, %d) exceeds shard size %d", offset, offset+length, len(data))
			}
			chunkBytes, err := c.inner.Decode(data[offset:offset+length], innerRep, innerOpts)
			if err != nil {
				return err
			}
			innerSubset, err := c.innerChunkSubset(chunkCoords)
			if err != nil {
				return err
			}
			// Inner chunks are disjoint, so concurrent scatters never alias.
			return innerSubset.OverwriteBytes(out, decoded.Shape(), elementSize, chunkBytes)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// PartialDecoder builds a shard partial decoder routing inner-chunk reads
// through the index.
func (c *ShardingCodec) PartialDecoder(input BytesPartialDecoder, decoded ChunkRepresentation, opts Options) (ArrayPartialDecoder, error) {
	chunksPerShard, err := c.chunksPerShard(decoded)
	if err != nil {
		return nil, err
	}
	innerRep, err := c.innerRepresentation(decoded)
	if err != nil {
		return nil, err
	}
	indexRep, err := c.indexRepresentation(chunksPerShard)
	if err != nil {
		return nil, err
	}
	indexSize, err := c.indexEncodedSize(indexRep)
	if err != nil {
		return nil, err
	}
	return &shardingPartialDecoder{
		codec:          c,
		input:          input,
		rep:            decoded,
		innerRep:       innerRep,
		indexRep:       indexRep,
		indexSize:      indexSize,
		chunksPerShard: chunksPerShard,
	}, nil
}

func init() {
	Register(ShardingCodecName, newShardingCodecFromConfig)
}
