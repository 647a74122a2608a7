package array

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lorenzocerrone/zarrs/storage"
)

// ChunkKeyEncoding maps chunk coordinates to a store key below an array's
// prefix.
type ChunkKeyEncoding interface {
	// Key returns the store key of the chunk at chunkCoords under prefix.
	Key(prefix storage.StorePrefix, chunkCoords []uint64) (storage.StoreKey, error)

	// MetadataName returns the encoding's metadata name.
	MetadataName() string

	// MetadataConfiguration returns the encoding's configuration object.
	MetadataConfiguration() (json.RawMessage, error)
}

// DefaultChunkKeyEncoding is the "default" encoding: "c" followed by the
// separator-joined coordinates. A zero-dimensional array encodes to "c".
type DefaultChunkKeyEncoding struct {
	separator byte
}

var _ ChunkKeyEncoding = (*DefaultChunkKeyEncoding)(nil)

// NewDefaultChunkKeyEncoding creates the default encoding. The separator
// must be '/' or '.'.
func NewDefaultChunkKeyEncoding(separator byte) (*DefaultChunkKeyEncoding, error) {
	if separator != '/' && separator != '.' {
		return nil, fmt.Errorf("%w: separator %q", ErrUnsupportedEncoding, string(separator))
	}
	return &DefaultChunkKeyEncoding{separator: separator}, nil
}

// Key returns prefix + "c" + sep + coord_0 + sep + ...
func (e *DefaultChunkKeyEncoding) Key(prefix storage.StorePrefix, chunkCoords []uint64) (storage.StoreKey, error) {
	var sb strings.Builder
	sb.WriteString(string(prefix))
	sb.WriteByte('c')
	for _, c := range chunkCoords {
		sb.WriteByte(e.separator)
		sb.WriteString(strconv.FormatUint(c, 10))
	}
	return storage.NewStoreKey(sb.String())
}

// MetadataName returns "default".
func (e *DefaultChunkKeyEncoding) MetadataName() string { return "default" }

type keyEncodingConfig struct {
	Separator string `json:"separator"`
}

// MetadataConfiguration returns the encoding configuration object.
func (e *DefaultChunkKeyEncoding) MetadataConfiguration() (json.RawMessage, error) {
	return json.Marshal(keyEncodingConfig{Separator: string(e.separator)})
}

// V2ChunkKeyEncoding is the "v2" encoding: separator-joined coordinates with
// no "c" sentinel. A zero-dimensional array encodes to "0".
type V2ChunkKeyEncoding struct {
	separator byte
}

var _ ChunkKeyEncoding = (*V2ChunkKeyEncoding)(nil)

// NewV2ChunkKeyEncoding creates the v2 encoding. The separator must be '/'
// or '.'.
func NewV2ChunkKeyEncoding(separator byte) (*V2ChunkKeyEncoding, error) {
	if separator != '/' && separator != '.' {
		return nil, fmt.Errorf("%w: separator %q", ErrUnsupportedEncoding, string(separator))
	}
	return &V2ChunkKeyEncoding{separator: separator}, nil
}

// Key returns prefix + coord_0 + sep + coord_1 + ...
func (e *V2ChunkKeyEncoding) Key(prefix storage.StorePrefix, chunkCoords []uint64) (storage.StoreKey, error) {
	if len(chunkCoords) == 0 {
		return storage.NewStoreKey(string(prefix) + "0")
	}
	var sb strings.Builder
	sb.WriteString(string(prefix))
	for i, c := range chunkCoords {
		if i > 0 {
			sb.WriteByte(e.separator)
		}
		sb.WriteString(strconv.FormatUint(c, 10))
	}
	return storage.NewStoreKey(sb.String())
}

// MetadataName returns "v2".
func (e *V2ChunkKeyEncoding) MetadataName() string { return "v2" }

// MetadataConfiguration returns the encoding configuration object.
func (e *V2ChunkKeyEncoding) MetadataConfiguration() (json.RawMessage, error) {
	return json.Marshal(keyEncodingConfig{Separator: string(e.separator)})
}

// keyEncodingFromMetadata resolves a chunk key encoding metadata entry.
func keyEncodingFromMetadata(name string, config json.RawMessage) (ChunkKeyEncoding, error) {
	var sep byte
	if len(config) > 0 {
		var cfg keyEncodingConfig
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, err
		}
		if cfg.Separator != "" {
			if len(cfg.Separator) != 1 {
				return nil, fmt.Errorf("%w: separator %q", ErrUnsupportedEncoding, cfg.Separator)
			}
			sep = cfg.Separator[0]
		}
	}
	switch name {
	case "default":
		if sep == 0 {
			sep = '/'
		}
		return NewDefaultChunkKeyEncoding(sep)
	case "v2":
		if sep == 0 {
			sep = '.'
		}
		return NewV2ChunkKeyEncoding(sep)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
}
