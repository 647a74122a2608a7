package codec

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/lorenzocerrone/zarrs/storage"
	"github.com/lorenzocerrone/zarrs/subset"
)

// BytesCodecName is the registered name of the bytes codec.
const BytesCodecName = "bytes"

// Endianness selects the byte order of encoded multi-byte elements.
type Endianness int

// Byte orders.
const (
	LittleEndian Endianness = iota
	BigEndian
)

func (e Endianness) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// nativeIsLittle reports the byte order of the running machine.
var nativeIsLittle = binary.NativeEndian.Uint16([]byte{0x01, 0x00}) == 1

func (e Endianness) isNative() bool {
	return (e == LittleEndian) == nativeIsLittle
}

// BytesCodec is the array→bytes codec serializing elements in a fixed byte
// order. Decoded element bytes are kept in native order in memory; encoding
// swaps lanes when the configured order differs.
type BytesCodec struct {
	endian Endianness
}

var _ ArrayToBytes = (*BytesCodec)(nil)

// NewBytesCodec creates a bytes codec with the given byte order.
func NewBytesCodec(endian Endianness) *BytesCodec {
	return &BytesCodec{endian: endian}
}

type bytesConfig struct {
	Endian string `json:"endian,omitempty"`
}

func newBytesCodecFromConfig(raw json.RawMessage) (Codec, error) {
	var cfg bytesConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
	}
	switch cfg.Endian {
	case "", "little":
		return NewBytesCodec(LittleEndian), nil
	case "big":
		return NewBytesCodec(BigEndian), nil
	default:
		return nil, fmt.Errorf("invalid endianness %q", cfg.Endian)
	}
}

// Name returns "bytes".
func (c *BytesCodec) Name() string { return BytesCodecName }

// Metadata returns the codec metadata entry.
func (c *BytesCodec) Metadata() Metadata {
	return NewMetadata(BytesCodecName, bytesConfig{Endian: c.endian.String()})
}

// PartialDecoderShouldCacheInput returns false; range reads pass straight
// through to storage.
func (c *BytesCodec) PartialDecoderShouldCacheInput() bool { return false }

// PartialDecoderDecodesAll returns false.
func (c *BytesCodec) PartialDecoderDecodesAll() bool { return false }

// EncodedSize is fixed: element count times element size.
func (c *BytesCodec) EncodedSize(decoded ChunkRepresentation) (BytesRepresentation, error) {
	return FixedBytes(decoded.Size()), nil
}

// RecommendedConcurrency returns a serial recommendation; a lane swap does
// not benefit from internal workers.
func (c *BytesCodec) RecommendedConcurrency(ChunkRepresentation) (RecommendedConcurrency, error) {
	return SerialConcurrency(), nil
}

// Encode serializes element bytes in the configured order.
func (c *BytesCodec) Encode(data []byte, decoded ChunkRepresentation, _ Options) ([]byte, error) {
	if uint64(len(data)) != decoded.Size() {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrInvalidBytesLen, len(data), decoded.Size())
	}
	return c.swapped(data, decoded.ElementSize()), nil
}

// Decode deserializes element bytes back to native order.
func (c *BytesCodec) Decode(data []byte, decoded ChunkRepresentation, _ Options) ([]byte, error) {
	if uint64(len(data)) != decoded.Size() {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrInvalidBytesLen, len(data), decoded.Size())
	}
	return c.swapped(data, decoded.ElementSize()), nil
}

// swapped returns data with each element's bytes reversed when the
// configured order is not native. The swap is an involution, so encode and
// decode share it.
func (c *BytesCodec) swapped(data []byte, elementSize int) []byte {
	out := make([]byte, len(data))
	if elementSize <= 1 || c.endian.isNative() {
		copy(out, data)
		return out
	}
	for i := 0; i < len(data); i += elementSize {
		for j := 0; j < elementSize; j++ {
			out[i+j] = data[i+elementSize-1-j]
		}
	}
	return out
}

// PartialDecoder translates array-subset requests into byte-range reads.
func (c *BytesCodec) PartialDecoder(input BytesPartialDecoder, decoded ChunkRepresentation, _ Options) (ArrayPartialDecoder, error) {
	return &bytesPartialDecoder{codec: c, input: input, rep: decoded}, nil
}

type bytesPartialDecoder struct {
	codec *BytesCodec
	input BytesPartialDecoder
	rep   ChunkRepresentation
}

func (d *bytesPartialDecoder) ElementSize() int { return d.rep.ElementSize() }

func (d *bytesPartialDecoder) PartialDecode(ctx context.Context, subsets []subset.ArraySubset, opts Options) ([][]byte, error) {
	elementSize := uint64(d.rep.ElementSize())
	shape := d.rep.Shape()

	// One byte range per contiguous run of every subset.
	var ranges []storage.ByteRange
	runsPerSubset := make([]int, len(subsets))
	for i, s := range subsets {
		if s.Dimensionality() != d.rep.Dimensionality() {
			return nil, fmt.Errorf("%w: subset %v for chunk shape %v", ErrInvalidSubset, s, shape)
		}
		if !s.InsideShape(shape) {
			return nil, fmt.Errorf("%w: subset %v exceeds chunk shape %v", ErrInvalidSubset, s, shape)
		}
		runs, err := s.ContiguousLinearisedIndices(shape)
		if err != nil {
			return nil, err
		}
		for {
			offset, n, ok := runs.Next()
			if !ok {
				break
			}
			ranges = append(ranges, storage.FromStart(offset*elementSize, int64(n*elementSize)))
			runsPerSubset[i]++
		}
	}

	parts, err := d.input.PartialDecode(ctx, ranges, opts)
	if err != nil {
		return nil, err
	}

	out := make([][]byte, len(subsets))
	if parts == nil {
		// Missing chunk: every subset is fill value.
		for i, s := range subsets {
			out[i] = d.rep.FillValue().Repeat(s.NumElements())
		}
		return out, nil
	}

	k := 0
	for i, s := range subsets {
		buf := make([]byte, 0, s.NumElements()*elementSize)
		for j := 0; j < runsPerSubset[i]; j++ {
			buf = append(buf, parts[k]...)
			k++
		}
		out[i] = d.codec.swapped(buf, int(elementSize))
	}
	return out, nil
}

func init() {
	Register(BytesCodecName, newBytesCodecFromConfig)
}
