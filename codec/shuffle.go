package codec

import (
	"encoding/json"
	"fmt"
)

// ShuffleCodecName is the registered name of the shuffle codec. Shuffle is
// an extension codec: it groups the i-th byte of every element together,
// which typically improves the ratio of a following compressor.
const ShuffleCodecName = "shuffle"

// ShuffleCodec is a bytes→bytes codec rearranging element bytes by lane.
type ShuffleCodec struct {
	elementSize int
}

var _ BytesToBytes = (*ShuffleCodec)(nil)

// NewShuffleCodec creates a shuffle codec for elements of the given size.
func NewShuffleCodec(elementSize int) (*ShuffleCodec, error) {
	if elementSize < 1 {
		return nil, fmt.Errorf("shuffle element size %d must be positive", elementSize)
	}
	return &ShuffleCodec{elementSize: elementSize}, nil
}

type shuffleConfig struct {
	ElementSize int `json:"elementsize"`
}

func newShuffleCodecFromConfig(raw json.RawMessage) (Codec, error) {
	var cfg shuffleConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return NewShuffleCodec(cfg.ElementSize)
}

// Name returns "shuffle".
func (c *ShuffleCodec) Name() string { return ShuffleCodecName }

// Metadata returns the codec metadata entry.
func (c *ShuffleCodec) Metadata() Metadata {
	return NewMetadata(ShuffleCodecName, shuffleConfig{ElementSize: c.elementSize})
}

// PartialDecoderShouldCacheInput returns false.
func (c *ShuffleCodec) PartialDecoderShouldCacheInput() bool { return false }

// PartialDecoderDecodesAll returns true; a range of shuffled output is
// scattered across the whole input.
func (c *ShuffleCodec) PartialDecoderDecodesAll() bool { return true }

// EncodedSize is identical to the decoded size.
func (c *ShuffleCodec) EncodedSize(decoded BytesRepresentation) BytesRepresentation {
	return decoded
}

// RecommendedConcurrency returns a serial recommendation.
func (c *ShuffleCodec) RecommendedConcurrency(BytesRepresentation) (RecommendedConcurrency, error) {
	return SerialConcurrency(), nil
}

// Encode groups byte lanes: all first bytes, then all second bytes, and so
// on. A trailing remainder shorter than one element is appended unchanged.
func (c *ShuffleCodec) Encode(data []byte, _ Options) ([]byte, error) {
	if c.elementSize <= 1 {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
	numElems := len(data) / c.elementSize
	out := make([]byte, len(data))
	for i := 0; i < numElems; i++ {
		for j := 0; j < c.elementSize; j++ {
			out[j*numElems+i] = data[i*c.elementSize+j]
		}
	}
	copy(out[numElems*c.elementSize:], data[numElems*c.elementSize:])
	return out, nil
}

// Decode reverses the lane grouping.
func (c *ShuffleCodec) Decode(data []byte, _ BytesRepresentation, _ Options) ([]byte, error) {
	if c.elementSize <= 1 {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
	numElems := len(data) / c.elementSize
	out := make([]byte, len(data))
	for i := 0; i < numElems; i++ {
		for j := 0; j < c.elementSize; j++ {
			out[i*c.elementSize+j] = data[j*numElems+i]
		}
	}
	copy(out[numElems*c.elementSize:], data[numElems*c.elementSize:])
	return out, nil
}

// PartialDecoder decodes the whole input and serves ranges from the result.
func (c *ShuffleCodec) PartialDecoder(input BytesPartialDecoder, decoded BytesRepresentation, _ Options) (BytesPartialDecoder, error) {
	return newFullDecodePartialDecoder(c, input, decoded), nil
}

func init() {
	Register(ShuffleCodecName, newShuffleCodecFromConfig)
}
