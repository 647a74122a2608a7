package codec

import (
	"context"

	"github.com/lorenzocerrone/zarrs/storage"
)

// fullDecodePartialDecoder is the partial decoder of bytes→bytes codecs that
// cannot serve random reads (entropy coders, shuffles). It decodes the whole
// input and extracts the requested ranges. Codecs using it report
// PartialDecoderDecodesAll so the chain inserts a cache after it.
type fullDecodePartialDecoder struct {
	codec BytesToBytes
	input BytesPartialDecoder
	rep   BytesRepresentation
}

func newFullDecodePartialDecoder(codec BytesToBytes, input BytesPartialDecoder, rep BytesRepresentation) BytesPartialDecoder {
	return &fullDecodePartialDecoder{codec: codec, input: input, rep: rep}
}

func (d *fullDecodePartialDecoder) PartialDecode(ctx context.Context, ranges []storage.ByteRange, opts Options) ([][]byte, error) {
	encoded, err := DecodeAll(ctx, d.input, opts)
	if err != nil {
		return nil, err
	}
	if encoded == nil {
		return nil, nil
	}
	decoded, err := d.codec.Decode(encoded, d.rep, opts)
	if err != nil {
		return nil, err
	}
	return storage.ExtractByteRanges(decoded, ranges)
}
