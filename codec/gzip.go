package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
)

// GzipCodecName is the registered name of the gzip codec.
const GzipCodecName = "gzip"

// GzipCodec is a bytes→bytes codec applying gzip compression.
type GzipCodec struct {
	level int
}

var _ BytesToBytes = (*GzipCodec)(nil)

// NewGzipCodec creates a gzip codec with the given compression level (0-9).
func NewGzipCodec(level int) (*GzipCodec, error) {
	if level < 0 || level > 9 {
		return nil, fmt.Errorf("gzip level %d out of range 0-9", level)
	}
	return &GzipCodec{level: level}, nil
}

type gzipConfig struct {
	Level int `json:"level"`
}

func newGzipCodecFromConfig(raw json.RawMessage) (Codec, error) {
	var cfg gzipConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return NewGzipCodec(cfg.Level)
}

// Name returns "gzip".
func (c *GzipCodec) Name() string { return GzipCodecName }

// Metadata returns the codec metadata entry.
func (c *GzipCodec) Metadata() Metadata {
	return NewMetadata(GzipCodecName, gzipConfig{Level: c.level})
}

// PartialDecoderShouldCacheInput returns false.
func (c *GzipCodec) PartialDecoderShouldCacheInput() bool { return false }

// PartialDecoderDecodesAll returns true; gzip cannot serve random reads.
func (c *GzipCodec) PartialDecoderDecodesAll() bool { return true }

// EncodedSize is unbounded.
func (c *GzipCodec) EncodedSize(BytesRepresentation) BytesRepresentation {
	return UnboundedBytes()
}

// RecommendedConcurrency returns a serial recommendation; the gzip stream
// format is sequential.
func (c *GzipCodec) RecommendedConcurrency(BytesRepresentation) (RecommendedConcurrency, error) {
	return SerialConcurrency(), nil
}

// Encode compresses data.
func (c *GzipCodec) Encode(data []byte, _ Options) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decompresses data.
func (c *GzipCodec) Decode(data []byte, _ BytesRepresentation, _ Options) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	return out, nil
}

// PartialDecoder decodes the whole input and serves ranges from the result.
func (c *GzipCodec) PartialDecoder(input BytesPartialDecoder, decoded BytesRepresentation, _ Options) (BytesPartialDecoder, error) {
	return newFullDecodePartialDecoder(c, input, decoded), nil
}

func init() {
	Register(GzipCodecName, newGzipCodecFromConfig)
}
