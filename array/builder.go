package array

import (
	"context"

	"github.com/lorenzocerrone/zarrs"
	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/lorenzocerrone/zarrs/dtype"
	"github.com/lorenzocerrone/zarrs/storage"
)

// BuildOption configures array creation.
type BuildOption func(*buildOptions)

type buildOptions struct {
	fill           dtype.FillValue
	fillSet        bool
	codecs         []codec.Metadata
	attributes     map[string]any
	dimensionNames []string
	keyEncoding    ChunkKeyEncoding
	grid           ChunkGrid
}

// WithFillValue sets the fill value. The default is all-zero bytes.
func WithFillValue(fill dtype.FillValue) BuildOption {
	return func(o *buildOptions) {
		o.fill = fill
		o.fillSet = true
	}
}

// WithCodecs sets the codec chain. The default is a little-endian bytes
// codec.
func WithCodecs(codecs ...codec.Codec) BuildOption {
	return func(o *buildOptions) {
		o.codecs = o.codecs[:0]
		for _, c := range codecs {
			o.codecs = append(o.codecs, c.Metadata())
		}
	}
}

// WithCodecMetadata sets the codec chain from metadata entries.
func WithCodecMetadata(metas ...codec.Metadata) BuildOption {
	return func(o *buildOptions) {
		o.codecs = metas
	}
}

// WithAttributes sets the user attributes.
func WithAttributes(attributes map[string]any) BuildOption {
	return func(o *buildOptions) {
		o.attributes = attributes
	}
}

// WithDimensionNames sets the dimension names.
func WithDimensionNames(names ...string) BuildOption {
	return func(o *buildOptions) {
		o.dimensionNames = names
	}
}

// WithChunkKeyEncoding sets the chunk key encoding. The default is the
// "default" encoding with a "/" separator.
func WithChunkKeyEncoding(enc ChunkKeyEncoding) BuildOption {
	return func(o *buildOptions) {
		o.keyEncoding = enc
	}
}

// WithChunkGrid sets the chunk grid, overriding the regular grid implied by
// the chunk shape passed to [NewMetadata].
func WithChunkGrid(grid ChunkGrid) BuildOption {
	return func(o *buildOptions) {
		o.grid = grid
	}
}

// NewMetadata assembles array metadata for a new array with a regular chunk
// grid, applying defaults for anything not overridden by options.
func NewMetadata(shape []uint64, dt dtype.DataType, chunkShape []uint64, opts ...BuildOption) (Metadata, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	grid := o.grid
	if grid == nil {
		g, err := NewRegularGrid(chunkShape)
		if err != nil {
			return Metadata{}, err
		}
		grid = g
	}
	keyEncoding := o.keyEncoding
	if keyEncoding == nil {
		e, err := NewDefaultChunkKeyEncoding('/')
		if err != nil {
			return Metadata{}, err
		}
		keyEncoding = e
	}
	fill := o.fill
	if !o.fillSet {
		fill = dtype.ZeroFill(dt)
	}
	codecs := o.codecs
	if len(codecs) == 0 {
		codecs = []codec.Metadata{codec.NewBytesCodec(codec.LittleEndian).Metadata()}
	}
	attributes := o.attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	attributes["_zarrs"] = map[string]any{"version": zarrs.Version}

	meta := Metadata{
		Shape:          shape,
		DataType:       dt,
		Grid:           grid,
		KeyEncoding:    keyEncoding,
		FillValue:      fill,
		Codecs:         codecs,
		Attributes:     attributes,
		DimensionNames: o.dimensionNames,
	}
	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// Create builds metadata and creates the array in one step.
func Create(ctx context.Context, store storage.ReadableWritable, path string, shape []uint64, dt dtype.DataType, chunkShape []uint64, opts ...BuildOption) (*Array, error) {
	meta, err := NewMetadata(shape, dt, chunkShape, opts...)
	if err != nil {
		return nil, err
	}
	return New(ctx, store, path, meta)
}
