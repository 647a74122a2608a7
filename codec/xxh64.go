package codec

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Xxh64CodecName is the registered name of the xxh64 codec. It is an
// extension codec with the same contract as crc32c but a 64-bit XXH64
// checksum, stored as eight little-endian bytes after the data.
const Xxh64CodecName = "xxh64"

// Xxh64Codec is a bytes→bytes codec appending an XXH64 checksum.
type Xxh64Codec struct{}

var _ BytesToBytes = (*Xxh64Codec)(nil)

// NewXxh64Codec creates an xxh64 codec.
func NewXxh64Codec() *Xxh64Codec { return &Xxh64Codec{} }

func newXxh64CodecFromConfig(json.RawMessage) (Codec, error) {
	return NewXxh64Codec(), nil
}

// Name returns "xxh64".
func (c *Xxh64Codec) Name() string { return Xxh64CodecName }

// Metadata returns the codec metadata entry.
func (c *Xxh64Codec) Metadata() Metadata { return NewMetadata(Xxh64CodecName, nil) }

// PartialDecoderShouldCacheInput returns false.
func (c *Xxh64Codec) PartialDecoderShouldCacheInput() bool { return false }

// PartialDecoderDecodesAll returns false.
func (c *Xxh64Codec) PartialDecoderDecodesAll() bool { return false }

// EncodedSize adds the eight checksum bytes.
func (c *Xxh64Codec) EncodedSize(decoded BytesRepresentation) BytesRepresentation {
	switch decoded.Kind {
	case SizeFixed:
		return FixedBytes(decoded.Size + 8)
	case SizeBounded:
		return BoundedBytes(decoded.Size + 8)
	default:
		return UnboundedBytes()
	}
}

// RecommendedConcurrency returns a serial recommendation.
func (c *Xxh64Codec) RecommendedConcurrency(BytesRepresentation) (RecommendedConcurrency, error) {
	return SerialConcurrency(), nil
}

// Encode appends the checksum.
func (c *Xxh64Codec) Encode(data []byte, _ Options) ([]byte, error) {
	out := make([]byte, len(data)+8)
	copy(out, data)
	binary.LittleEndian.PutUint64(out[len(data):], xxhash.Sum64(data))
	return out, nil
}

// Decode verifies and strips the checksum. Verification is skipped when the
// options disable it.
func (c *Xxh64Codec) Decode(data []byte, _ BytesRepresentation, opts Options) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("xxh64: input of %d bytes is too short for a checksum", len(data))
	}
	payload := data[:len(data)-8]
	if opts.ValidateChecksums {
		stored := binary.LittleEndian.Uint64(data[len(data)-8:])
		computed := xxhash.Sum64(payload)
		if stored != computed {
			return nil, fmt.Errorf("%w: xxh64 stored 0x%016x, computed 0x%016x", ErrChecksumMismatch, stored, computed)
		}
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// PartialDecoder passes byte ranges through to the data prefix.
func (c *Xxh64Codec) PartialDecoder(input BytesPartialDecoder, _ BytesRepresentation, _ Options) (BytesPartialDecoder, error) {
	return &checksumPartialDecoder{input: input, trailer: 8}, nil
}

func init() {
	Register(Xxh64CodecName, newXxh64CodecFromConfig)
}
