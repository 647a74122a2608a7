package codec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lorenzocerrone/zarrs/subset"
)

// TransposeCodecName is the registered name of the transpose codec.
const TransposeCodecName = "transpose"

// TransposeCodec is an array→array codec permuting the axes of a chunk.
// order[i] names the decoded axis that becomes encoded axis i.
type TransposeCodec struct {
	order []int
}

var _ ArrayToArray = (*TransposeCodec)(nil)

// NewTransposeCodec creates a transpose codec for the given axis order,
// which must be a permutation of 0..len(order)-1.
func NewTransposeCodec(order []int) (*TransposeCodec, error) {
	seen := make([]bool, len(order))
	for _, axis := range order {
		if axis < 0 || axis >= len(order) || seen[axis] {
			return nil, fmt.Errorf("order %v is not a permutation", order)
		}
		seen[axis] = true
	}
	o := make([]int, len(order))
	copy(o, order)
	return &TransposeCodec{order: o}, nil
}

type transposeConfig struct {
	Order []int `json:"order"`
}

func newTransposeCodecFromConfig(raw json.RawMessage) (Codec, error) {
	var cfg transposeConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return NewTransposeCodec(cfg.Order)
}

// Name returns "transpose".
func (c *TransposeCodec) Name() string { return TransposeCodecName }

// Metadata returns the codec metadata entry.
func (c *TransposeCodec) Metadata() Metadata {
	return NewMetadata(TransposeCodecName, transposeConfig{Order: c.order})
}

// PartialDecoderShouldCacheInput returns false.
func (c *TransposeCodec) PartialDecoderShouldCacheInput() bool { return false }

// PartialDecoderDecodesAll returns false; subsets map one-to-one through
// the permutation.
func (c *TransposeCodec) PartialDecoderDecodesAll() bool { return false }

// inverse returns the inverse permutation.
func (c *TransposeCodec) inverse() []int {
	inv := make([]int, len(c.order))
	for i, axis := range c.order {
		inv[axis] = i
	}
	return inv
}

// EncodedRepresentation permutes the chunk shape.
func (c *TransposeCodec) EncodedRepresentation(decoded ChunkRepresentation) (ChunkRepresentation, error) {
	if len(c.order) != decoded.Dimensionality() {
		return ChunkRepresentation{}, fmt.Errorf("order %v does not match dimensionality %d", c.order, decoded.Dimensionality())
	}
	shape := decoded.Shape()
	permuted := make([]uint64, len(shape))
	for i, axis := range c.order {
		permuted[i] = shape[axis]
	}
	return NewChunkRepresentation(permuted, decoded.DataType(), decoded.FillValue())
}

// RecommendedConcurrency returns a serial recommendation.
func (c *TransposeCodec) RecommendedConcurrency(ChunkRepresentation) (RecommendedConcurrency, error) {
	return SerialConcurrency(), nil
}

// Encode permutes elements into the transposed layout.
func (c *TransposeCodec) Encode(data []byte, decoded ChunkRepresentation, _ Options) ([]byte, error) {
	if uint64(len(data)) != decoded.Size() {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrInvalidBytesLen, len(data), decoded.Size())
	}
	return permuteElements(data, decoded.Shape(), c.order, decoded.ElementSize())
}

// Decode reverses the permutation.
func (c *TransposeCodec) Decode(data []byte, decoded ChunkRepresentation, _ Options) ([]byte, error) {
	encoded, err := c.EncodedRepresentation(decoded)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != encoded.Size() {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrInvalidBytesLen, len(data), encoded.Size())
	}
	return permuteElements(data, encoded.Shape(), c.inverse(), decoded.ElementSize())
}

// permuteElements rearranges a row-major buffer of srcShape so that output
// axis i is source axis order[i].
func permuteElements(src []byte, srcShape []uint64, order []int, elementSize int) ([]byte, error) {
	ndim := len(srcShape)
	dstShape := make([]uint64, ndim)
	for i, axis := range order {
		dstShape[i] = srcShape[axis]
	}

	// Stride of each source axis in the destination layout.
	dstStrides := rowMajorStrides(dstShape)
	srcAxisDstStride := make([]uint64, ndim)
	for i, axis := range order {
		srcAxisDstStride[axis] = dstStrides[i]
	}

	out := make([]byte, len(src))
	coords := make([]uint64, ndim)
	es := uint64(elementSize)
	total := uint64(len(src)) / es
	var dstOffset uint64
	for idx := uint64(0); idx < total; idx++ {
		copy(out[dstOffset*es:(dstOffset+1)*es], src[idx*es:(idx+1)*es])
		// Advance the source odometer and the destination offset together.
		for d := ndim - 1; d >= 0; d-- {
			coords[d]++
			dstOffset += srcAxisDstStride[d]
			if coords[d] < srcShape[d] {
				break
			}
			coords[d] = 0
			dstOffset -= srcAxisDstStride[d] * srcShape[d]
		}
	}
	return out, nil
}

func rowMajorStrides(shape []uint64) []uint64 {
	strides := make([]uint64, len(shape))
	stride := uint64(1)
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= shape[d]
	}
	return strides
}

// PartialDecoder maps requested subsets through the permutation.
func (c *TransposeCodec) PartialDecoder(input ArrayPartialDecoder, decoded ChunkRepresentation, _ Options) (ArrayPartialDecoder, error) {
	return &transposePartialDecoder{codec: c, input: input, rep: decoded}, nil
}

type transposePartialDecoder struct {
	codec *TransposeCodec
	input ArrayPartialDecoder
	rep   ChunkRepresentation
}

func (d *transposePartialDecoder) ElementSize() int { return d.rep.ElementSize() }

func (d *transposePartialDecoder) PartialDecode(ctx context.Context, subsets []subset.ArraySubset, opts Options) ([][]byte, error) {
	order := d.codec.order
	// Translate each decoded-space subset into the encoded space.
	encodedSubsets := make([]subset.ArraySubset, len(subsets))
	for i, s := range subsets {
		if s.Dimensionality() != len(order) {
			return nil, fmt.Errorf("%w: subset %v has wrong dimensionality", ErrInvalidSubset, s)
		}
		start := make([]uint64, len(order))
		shape := make([]uint64, len(order))
		for j, axis := range order {
			start[j] = s.Start()[axis]
			shape[j] = s.Shape()[axis]
		}
		es, err := subset.New(start, shape)
		if err != nil {
			return nil, err
		}
		encodedSubsets[i] = es
	}

	parts, err := d.input.PartialDecode(ctx, encodedSubsets, opts)
	if err != nil {
		return nil, err
	}

	// Each part is in encoded-space row-major order; permute back.
	inv := d.codec.inverse()
	out := make([][]byte, len(parts))
	for i, part := range parts {
		b, err := permuteElements(part, encodedSubsets[i].Shape(), inv, d.rep.ElementSize())
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func init() {
	Register(TransposeCodecName, newTransposeCodecFromConfig)
}
