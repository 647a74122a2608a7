package codec

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"

	"github.com/lorenzocerrone/zarrs/storage"
)

// Crc32cCodecName is the registered name of the crc32c codec.
const Crc32cCodecName = "crc32c"

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Crc32cCodec is a bytes→bytes codec appending a CRC-32C (Castagnoli)
// checksum, stored as four little-endian bytes after the data.
type Crc32cCodec struct{}

var _ BytesToBytes = (*Crc32cCodec)(nil)

// NewCrc32cCodec creates a crc32c codec.
func NewCrc32cCodec() *Crc32cCodec { return &Crc32cCodec{} }

func newCrc32cCodecFromConfig(json.RawMessage) (Codec, error) {
	return NewCrc32cCodec(), nil
}

// Name returns "crc32c".
func (c *Crc32cCodec) Name() string { return Crc32cCodecName }

// Metadata returns the codec metadata entry.
func (c *Crc32cCodec) Metadata() Metadata { return NewMetadata(Crc32cCodecName, nil) }

// PartialDecoderShouldCacheInput returns false.
func (c *Crc32cCodec) PartialDecoderShouldCacheInput() bool { return false }

// PartialDecoderDecodesAll returns false; a decoded byte range maps to the
// same range of the encoded data prefix.
func (c *Crc32cCodec) PartialDecoderDecodesAll() bool { return false }

// EncodedSize adds the four checksum bytes.
func (c *Crc32cCodec) EncodedSize(decoded BytesRepresentation) BytesRepresentation {
	switch decoded.Kind {
	case SizeFixed:
		return FixedBytes(decoded.Size + 4)
	case SizeBounded:
		return BoundedBytes(decoded.Size + 4)
	default:
		return UnboundedBytes()
	}
}

// RecommendedConcurrency returns a serial recommendation.
func (c *Crc32cCodec) RecommendedConcurrency(BytesRepresentation) (RecommendedConcurrency, error) {
	return SerialConcurrency(), nil
}

// Encode appends the checksum.
func (c *Crc32cCodec) Encode(data []byte, _ Options) ([]byte, error) {
	out := make([]byte, len(data)+4)
	copy(out, data)
	binary.LittleEndian.PutUint32(out[len(data):], crc32.Checksum(data, castagnoli))
	return out, nil
}

// Decode verifies and strips the checksum. Verification is skipped when the
// options disable it.
func (c *Crc32cCodec) Decode(data []byte, _ BytesRepresentation, opts Options) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("crc32c: input of %d bytes is too short for a checksum", len(data))
	}
	payload := data[:len(data)-4]
	if opts.ValidateChecksums {
		stored := binary.LittleEndian.Uint32(data[len(data)-4:])
		computed := crc32.Checksum(payload, castagnoli)
		if stored != computed {
			return nil, fmt.Errorf("%w: crc32c stored 0x%08x, computed 0x%08x", ErrChecksumMismatch, stored, computed)
		}
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// PartialDecoder passes byte ranges through to the data prefix. Checksums
// are not verified on partial reads.
func (c *Crc32cCodec) PartialDecoder(input BytesPartialDecoder, _ BytesRepresentation, _ Options) (BytesPartialDecoder, error) {
	return &checksumPartialDecoder{input: input, trailer: 4}, nil
}

// checksumPartialDecoder serves decoded ranges of a checksum codec: the
// decoded value is the encoded value minus its trailer.
type checksumPartialDecoder struct {
	input   BytesPartialDecoder
	trailer uint64
}

func (d *checksumPartialDecoder) PartialDecode(ctx context.Context, ranges []storage.ByteRange, opts Options) ([][]byte, error) {
	// Requests anchored at the end shift past the trailer. Open-ended
	// requests from the start would reach into the trailer; fetch them
	// whole and trim afterwards.
	translated := make([]storage.ByteRange, len(ranges))
	trim := make([]bool, len(ranges))
	for i, r := range ranges {
		switch {
		case r.FromEnd:
			translated[i] = storage.FromEnd(r.Offset+d.trailer, r.Length)
		case r.Length < 0:
			translated[i] = storage.FromStart(r.Offset, -1)
			trim[i] = true
		default:
			translated[i] = r
		}
	}
	out, err := d.input.PartialDecode(ctx, translated, opts)
	if err != nil || out == nil {
		return out, err
	}
	for i, b := range out {
		if trim[i] {
			if uint64(len(b)) < d.trailer {
				return nil, fmt.Errorf("checksum partial decode: value of %d bytes is shorter than its trailer", len(b))
			}
			out[i] = b[:uint64(len(b))-d.trailer]
		}
	}
	return out, nil
}

func init() {
	Register(Crc32cCodecName, newCrc32cCodecFromConfig)
}
