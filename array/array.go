package array

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lorenzocerrone/zarrs/codec"
	"github.com/lorenzocerrone/zarrs/dtype"
	"github.com/lorenzocerrone/zarrs/storage"
	"github.com/lorenzocerrone/zarrs/subset"
)

// Array is a chunked N-dimensional array bound to a store. It holds a
// storage handle, the parsed metadata, the codec chain, the chunk grid and
// the chunk key encoding. An Array is immutable with respect to structure
// after creation and safe for concurrent use.
type Array struct {
	store storage.ReadableWritable
	path  string // node path, "/" separated, "/" is the root
	meta  Metadata
	chain *codec.Chain
}

// Open reads and validates the metadata at path and returns the array.
func Open(ctx context.Context, store storage.ReadableWritable, path string) (*Array, error) {
	key, err := metadataKeyForPath(path)
	if err != nil {
		return nil, err
	}
	raw, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading metadata %q: %w", key, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, path)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, &InvalidMetadataError{Key: key.String(), Err: err}
	}
	return fromMetadata(store, path, meta)
}

// New creates an array from metadata built by [NewMetadata] and writes the
// metadata document.
func New(ctx context.Context, store storage.ReadableWritable, path string, meta Metadata) (*Array, error) {
	a, err := fromMetadata(store, path, meta)
	if err != nil {
		return nil, err
	}
	if err := a.StoreMetadata(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func fromMetadata(store storage.ReadableWritable, path string, meta Metadata) (*Array, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		key, _ := metadataKeyForPath(path)
		return nil, &InvalidMetadataError{Key: key.String(), Err: err}
	}
	chain, err := codec.ChainFromMetadata(meta.Codecs)
	if err != nil {
		key, _ := metadataKeyForPath(path)
		return nil, &InvalidMetadataError{Key: key.String(), Err: err}
	}
	return &Array{store: store, path: path, meta: meta, chain: chain}, nil
}

func validatePath(path string) error {
	if path == "/" {
		return nil
	}
	if !strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return fmt.Errorf("invalid node path %q", path)
	}
	return nil
}

// metadataKeyForPath returns the zarr.json key of a node path.
func metadataKeyForPath(path string) (storage.StoreKey, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}
	if path == "/" {
		return storage.NewStoreKey(MetadataKey)
	}
	return storage.NewStoreKey(strings.TrimPrefix(path, "/") + "/" + MetadataKey)
}

// prefixForPath returns the store prefix of a node path.
func prefixForPath(path string) (storage.StorePrefix, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}
	if path == "/" {
		return storage.RootPrefix, nil
	}
	return storage.NewStorePrefix(strings.TrimPrefix(path, "/") + "/")
}

// StoreMetadata serializes the array metadata and writes it to the store.
func (a *Array) StoreMetadata(ctx context.Context) error {
	key, err := metadataKeyForPath(a.path)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(a.meta, "", "    ")
	if err != nil {
		return fmt.Errorf("serializing metadata: %w", err)
	}
	if err := a.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("writing metadata %q: %w", key, err)
	}
	return nil
}

// Path returns the array's node path.
func (a *Array) Path() string { return a.path }

// Shape returns the array shape. The slice must not be modified.
func (a *Array) Shape() []uint64 { return a.meta.Shape }

// DataType returns the element data type.
func (a *Array) DataType() dtype.DataType { return a.meta.DataType }

// FillValue returns the fill value.
func (a *Array) FillValue() dtype.FillValue { return a.meta.FillValue }

// Grid returns the chunk grid.
func (a *Array) Grid() ChunkGrid { return a.meta.Grid }

// KeyEncoding returns the chunk key encoding.
func (a *Array) KeyEncoding() ChunkKeyEncoding { return a.meta.KeyEncoding }

// Metadata returns the array metadata.
func (a *Array) Metadata() Metadata { return a.meta }

// Chain returns the codec chain.
func (a *Array) Chain() *codec.Chain { return a.chain }

// Attributes returns the user attributes. The map must not be modified.
func (a *Array) Attributes() map[string]any { return a.meta.Attributes }

// Dimensionality returns the number of axes.
func (a *Array) Dimensionality() int { return len(a.meta.Shape) }

// Storage returns the array's store.
func (a *Array) Storage() storage.ReadableWritable { return a.store }

// Subset returns the subset covering the whole array.
func (a *Array) Subset() subset.ArraySubset { return subset.Full(a.meta.Shape) }

// ChunkKey returns the store key of the chunk at chunkCoords.
func (a *Array) ChunkKey(chunkCoords []uint64) (storage.StoreKey, error) {
	prefix, err := prefixForPath(a.path)
	if err != nil {
		return "", err
	}
	return a.meta.KeyEncoding.Key(prefix, chunkCoords)
}

// ChunkSubset returns the array-space subset covered by the chunk. The
// subset of an edge chunk may extend beyond the array shape.
func (a *Array) ChunkSubset(chunkCoords []uint64) (subset.ArraySubset, error) {
	if len(chunkCoords) != a.Dimensionality() {
		return subset.ArraySubset{}, fmt.Errorf("%w: %v for a %d-dimensional array",
			ErrInvalidChunkCoords, chunkCoords, a.Dimensionality())
	}
	return a.meta.Grid.ChunkSubset(chunkCoords)
}

// ChunkSubsetBounded returns the chunk's subset clipped to the array shape.
func (a *Array) ChunkSubsetBounded(chunkCoords []uint64) (subset.ArraySubset, error) {
	s, err := a.ChunkSubset(chunkCoords)
	if err != nil {
		return subset.ArraySubset{}, err
	}
	return s.Bound(a.meta.Shape)
}

// ChunkRepresentation returns the codec-facing representation of the chunk
// at chunkCoords. Stored chunks are always full grid size, including edge
// chunks.
func (a *Array) ChunkRepresentation(chunkCoords []uint64) (codec.ChunkRepresentation, error) {
	shape, err := a.meta.Grid.ChunkShape(chunkCoords)
	if err != nil {
		return codec.ChunkRepresentation{}, err
	}
	return codec.NewChunkRepresentation(shape, a.meta.DataType, a.meta.FillValue)
}

// ChunkGridShape returns the number of chunks per axis.
func (a *Array) ChunkGridShape() ([]uint64, error) {
	return a.meta.Grid.GridShape(a.meta.Shape)
}

// ChunksInSubset returns the chunk-coordinate subset of the chunks
// overlapping an array-space subset.
func (a *Array) ChunksInSubset(s subset.ArraySubset) (subset.ArraySubset, error) {
	return a.meta.Grid.ChunksInSubset(s)
}
