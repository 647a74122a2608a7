package array

import (
	"encoding/json"
	"fmt"

	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/lorenzocerrone/zarrs/dtype"
	"github.com/lorenzocerrone/zarrs/subset"
)

// MetadataKey is the name of the metadata document below a node's prefix.
const MetadataKey = "zarr.json"

// Metadata is the resolved content of an array's zarr.json document.
type Metadata struct {
	Shape          []uint64
	DataType       dtype.DataType
	Grid           ChunkGrid
	KeyEncoding    ChunkKeyEncoding
	FillValue      dtype.FillValue
	Codecs         []codec.Metadata
	Attributes     map[string]any
	DimensionNames []string
}

// namedConfig is the {"name": ..., "configuration": {...}} object used for
// the chunk grid and the chunk key encoding.
type namedConfig struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

type arrayMetadataJSON struct {
	ZarrFormat     int               `json:"zarr_format"`
	NodeType       string            `json:"node_type"`
	Shape          []uint64          `json:"shape"`
	DataType       string            `json:"data_type"`
	ChunkGrid      namedConfig       `json:"chunk_grid"`
	ChunkKeyEnc    namedConfig       `json:"chunk_key_encoding"`
	FillValue      json.RawMessage   `json:"fill_value"`
	Codecs         []codec.Metadata  `json:"codecs"`
	Attributes     map[string]any    `json:"attributes,omitempty"`
	DimensionNames []string          `json:"dimension_names,omitempty"`
	StorageTx      []json.RawMessage `json:"storage_transformers,omitempty"`
}

// MarshalJSON serializes the metadata as a Zarr V3 array document.
func (m Metadata) MarshalJSON() ([]byte, error) {
	gridCfg, err := m.Grid.MetadataConfiguration()
	if err != nil {
		return nil, fmt.Errorf("chunk grid configuration: %w", err)
	}
	keyCfg, err := m.KeyEncoding.MetadataConfiguration()
	if err != nil {
		return nil, fmt.Errorf("chunk key encoding configuration: %w", err)
	}
	fill, err := dtype.FillValueJSON(m.DataType, m.FillValue)
	if err != nil {
		return nil, fmt.Errorf("fill value: %w", err)
	}
	fillRaw, err := json.Marshal(fill)
	if err != nil {
		return nil, fmt.Errorf("fill value: %w", err)
	}
	shape := m.Shape
	if shape == nil {
		shape = []uint64{}
	}
	return json.Marshal(arrayMetadataJSON{
		ZarrFormat:     3,
		NodeType:       "array",
		Shape:          shape,
		DataType:       m.DataType.Name(),
		ChunkGrid:      namedConfig{Name: m.Grid.MetadataName(), Configuration: gridCfg},
		ChunkKeyEnc:    namedConfig{Name: m.KeyEncoding.MetadataName(), Configuration: keyCfg},
		FillValue:      fillRaw,
		Codecs:         m.Codecs,
		Attributes:     m.Attributes,
		DimensionNames: m.DimensionNames,
	})
}

// UnmarshalJSON parses and validates a Zarr V3 array document.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var doc arrayMetadataJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.ZarrFormat != 3 {
		return fmt.Errorf("unsupported zarr_format %d", doc.ZarrFormat)
	}
	if doc.NodeType != "array" {
		return fmt.Errorf("%w: node_type %q", ErrNotAnArray, doc.NodeType)
	}
	dt, err := dtype.FromName(doc.DataType)
	if err != nil {
		return err
	}
	grid, err := gridFromMetadata(doc.ChunkGrid.Name, doc.ChunkGrid.Configuration)
	if err != nil {
		return err
	}
	keyEnc, err := keyEncodingFromMetadata(doc.ChunkKeyEnc.Name, doc.ChunkKeyEnc.Configuration)
	if err != nil {
		return err
	}
	fill, err := dtype.ParseFillValue(dt, doc.FillValue)
	if err != nil {
		return err
	}
	m.Shape = doc.Shape
	m.DataType = dt
	m.Grid = grid
	m.KeyEncoding = keyEnc
	m.FillValue = fill
	m.Codecs = doc.Codecs
	m.Attributes = doc.Attributes
	m.DimensionNames = doc.DimensionNames
	return m.Validate()
}

// Validate checks the cross-field invariants of the metadata.
func (m *Metadata) Validate() error {
	ndim := len(m.Shape)
	if m.Grid.Dimensionality() != ndim {
		return fmt.Errorf("%w: array is %d-dimensional, chunk grid is %d-dimensional",
			subset.ErrDimensionMismatch, ndim, m.Grid.Dimensionality())
	}
	if len(m.DimensionNames) > 0 && len(m.DimensionNames) != ndim {
		return fmt.Errorf("%w: %d dimension names for %d dimensions",
			subset.ErrDimensionMismatch, len(m.DimensionNames), ndim)
	}
	if m.FillValue.Size() != m.DataType.ElementSize() {
		return fmt.Errorf("fill value has %d bytes, expected %d for %s",
			m.FillValue.Size(), m.DataType.ElementSize(), m.DataType)
	}
	return nil
}
