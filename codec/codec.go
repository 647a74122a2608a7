package codec

import (
	"context"
	"errors"
	"fmt"

	"github.com/lorenzocerrone/zarrs/storage"
	"github.com/lorenzocerrone/zarrs/subset"
)

// Common errors
var (
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrUnknownCodec      = errors.New("unknown codec")
	ErrMissingValue      = errors.New("value does not exist")
	ErrMultipleA2B       = errors.New("multiple array to bytes codecs")
	ErrMissingA2B        = errors.New("missing array to bytes codec")
	ErrNotFixedSize      = errors.New("encoded size is not fixed")
	ErrUnsupportedDType  = errors.New("data type not supported by codec")
	ErrInvalidBytesLen   = errors.New("unexpected chunk byte length")
	ErrInvalidSubset     = errors.New("invalid array subset for chunk")
	ErrInvalidChunkShape = errors.New("invalid chunk shape")
)

// Codec is the base of all codec kinds.
type Codec interface {
	// Name returns the registered metadata name of the codec.
	Name() string

	// Metadata returns the codec's metadata entry as serialized in the
	// codecs list of array metadata.
	Metadata() Metadata

	// PartialDecoderShouldCacheInput reports that the codec's partial
	// decoder re-reads its input enough that a cache should be inserted
	// before it in a chain.
	PartialDecoderShouldCacheInput() bool

	// PartialDecoderDecodesAll reports that the codec's partial decoder
	// decodes its entire input regardless of the requested ranges, so a
	// cache should be inserted after it in a chain.
	PartialDecoderDecodesAll() bool
}

// ArrayToArray is an element-preserving codec: the element count is
// unchanged but the shape or data type may differ between the decoded and
// encoded representations.
type ArrayToArray interface {
	Codec

	// EncodedRepresentation transforms the decoded representation into the
	// representation of the codec's output.
	EncodedRepresentation(decoded ChunkRepresentation) (ChunkRepresentation, error)

	// RecommendedConcurrency returns the preferred internal worker range.
	RecommendedConcurrency(decoded ChunkRepresentation) (RecommendedConcurrency, error)

	// Encode transforms decoded element bytes.
	Encode(data []byte, decoded ChunkRepresentation, opts Options) ([]byte, error)

	// Decode reverses Encode.
	Decode(data []byte, decoded ChunkRepresentation, opts Options) ([]byte, error)

	// PartialDecoder builds a partial decoder over input.
	PartialDecoder(input ArrayPartialDecoder, decoded ChunkRepresentation, opts Options) (ArrayPartialDecoder, error)
}

// ArrayToBytes serializes array elements to an opaque byte sequence. A chain
// holds exactly one.
type ArrayToBytes interface {
	Codec

	// EncodedSize classifies the size of the encoded output.
	EncodedSize(decoded ChunkRepresentation) (BytesRepresentation, error)

	// RecommendedConcurrency returns the preferred internal worker range.
	RecommendedConcurrency(decoded ChunkRepresentation) (RecommendedConcurrency, error)

	// Encode serializes decoded element bytes.
	Encode(data []byte, decoded ChunkRepresentation, opts Options) ([]byte, error)

	// Decode reverses Encode.
	Decode(data []byte, decoded ChunkRepresentation, opts Options) ([]byte, error)

	// PartialDecoder builds an array partial decoder over a bytes input.
	PartialDecoder(input BytesPartialDecoder, decoded ChunkRepresentation, opts Options) (ArrayPartialDecoder, error)
}

// BytesToBytes transforms a byte sequence, preserving byte identity on
// round-trip.
type BytesToBytes interface {
	Codec

	// EncodedSize classifies the size of the encoded output given the size
	// of the input.
	EncodedSize(decoded BytesRepresentation) BytesRepresentation

	// RecommendedConcurrency returns the preferred internal worker range.
	RecommendedConcurrency(decoded BytesRepresentation) (RecommendedConcurrency, error)

	// Encode transforms bytes.
	Encode(data []byte, opts Options) ([]byte, error)

	// Decode reverses Encode. decoded describes the expected output size
	// when known.
	Decode(data []byte, decoded BytesRepresentation, opts Options) ([]byte, error)

	// PartialDecoder builds a partial decoder over input.
	PartialDecoder(input BytesPartialDecoder, decoded BytesRepresentation, opts Options) (BytesPartialDecoder, error)
}

// BytesPartialDecoder serves byte-range reads from an encoded value.
type BytesPartialDecoder interface {
	// PartialDecode returns one buffer per requested range, or nil (and no
	// error) if the underlying value does not exist.
	PartialDecode(ctx context.Context, ranges []storage.ByteRange, opts Options) ([][]byte, error)
}

// DecodeAll reads the entire value through a bytes partial decoder. It
// returns nil if the value does not exist.
func DecodeAll(ctx context.Context, d BytesPartialDecoder, opts Options) ([]byte, error) {
	out, err := d.PartialDecode(ctx, []storage.ByteRange{storage.EntireValue()}, opts)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return out[0], nil
}

// ArrayPartialDecoder serves array-subset reads from an encoded chunk.
// Subsets of a missing chunk decode to the fill value.
type ArrayPartialDecoder interface {
	// ElementSize returns the size in bytes of a decoded element.
	ElementSize() int

	// PartialDecode returns the decoded bytes of each subset in row-major
	// order.
	PartialDecode(ctx context.Context, subsets []subset.ArraySubset, opts Options) ([][]byte, error)
}

// StoragePartialDecoder terminates a partial decoding chain at a store key.
type StoragePartialDecoder struct {
	store storage.Readable
	key   storage.StoreKey
}

// NewStoragePartialDecoder creates a partial decoder reading byte ranges of
// the value at key.
func NewStoragePartialDecoder(store storage.Readable, key storage.StoreKey) *StoragePartialDecoder {
	return &StoragePartialDecoder{store: store, key: key}
}

// PartialDecode reads the requested byte ranges from the store.
func (d *StoragePartialDecoder) PartialDecode(ctx context.Context, ranges []storage.ByteRange, _ Options) ([][]byte, error) {
	out, err := d.store.GetPartialValuesKey(ctx, d.key, ranges)
	if err != nil {
		return nil, fmt.Errorf("partial read of %q: %w", d.key, err)
	}
	return out, nil
}

// bytesDecoderOverValue serves ranges from an in-memory value.
type bytesDecoderOverValue struct {
	value []byte
}

// NewBytesDecoder returns a partial decoder over an in-memory encoded value.
func NewBytesDecoder(value []byte) BytesPartialDecoder {
	return &bytesDecoderOverValue{value: value}
}

func (d *bytesDecoderOverValue) PartialDecode(_ context.Context, ranges []storage.ByteRange, _ Options) ([][]byte, error) {
	return storage.ExtractByteRanges(d.value, ranges)
}
