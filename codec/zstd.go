package codec

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// ZstdCodecName is the registered name of the zstd codec.
const ZstdCodecName = "zstd"

// ZstdCodec is a bytes→bytes codec applying Zstandard compression.
type ZstdCodec struct {
	level    int
	checksum bool
}

var _ BytesToBytes = (*ZstdCodec)(nil)

// NewZstdCodec creates a zstd codec. level follows the zstd scale (1-22);
// checksum appends the frame checksum.
func NewZstdCodec(level int, checksum bool) (*ZstdCodec, error) {
	if level < 1 || level > 22 {
		return nil, fmt.Errorf("zstd level %d out of range 1-22", level)
	}
	return &ZstdCodec{level: level, checksum: checksum}, nil
}

type zstdConfig struct {
	Level    int  `json:"level"`
	Checksum bool `json:"checksum"`
}

func newZstdCodecFromConfig(raw json.RawMessage) (Codec, error) {
	var cfg zstdConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return NewZstdCodec(cfg.Level, cfg.Checksum)
}

// Name returns "zstd".
func (c *ZstdCodec) Name() string { return ZstdCodecName }

// Metadata returns the codec metadata entry.
func (c *ZstdCodec) Metadata() Metadata {
	return NewMetadata(ZstdCodecName, zstdConfig{Level: c.level, Checksum: c.checksum})
}

// PartialDecoderShouldCacheInput returns false.
func (c *ZstdCodec) PartialDecoderShouldCacheInput() bool { return false }

// PartialDecoderDecodesAll returns true; zstd cannot serve random reads.
func (c *ZstdCodec) PartialDecoderDecodesAll() bool { return true }

// EncodedSize is unbounded.
func (c *ZstdCodec) EncodedSize(BytesRepresentation) BytesRepresentation {
	return UnboundedBytes()
}

// RecommendedConcurrency returns a serial recommendation; concurrency for a
// single frame is left to the chunk level.
func (c *ZstdCodec) RecommendedConcurrency(BytesRepresentation) (RecommendedConcurrency, error) {
	return SerialConcurrency(), nil
}

// Encode compresses data into a single zstd frame.
func (c *ZstdCodec) Encode(data []byte, _ Options) ([]byte, error) {
	w, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.level)),
		zstd.WithEncoderCRC(c.checksum),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer w.Close()
	return w.EncodeAll(data, nil), nil
}

// Decode decompresses a zstd frame.
func (c *ZstdCodec) Decode(data []byte, decoded BytesRepresentation, _ Options) ([]byte, error) {
	r, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer r.Close()
	var dst []byte
	if decoded.Kind != SizeUnbounded {
		dst = make([]byte, 0, decoded.Size)
	}
	out, err := r.DecodeAll(data, dst)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

// PartialDecoder decodes the whole input and serves ranges from the result.
func (c *ZstdCodec) PartialDecoder(input BytesPartialDecoder, decoded BytesRepresentation, _ Options) (BytesPartialDecoder, error) {
	return newFullDecodePartialDecoder(c, input, decoded), nil
}

func init() {
	Register(ZstdCodecName, newZstdCodecFromConfig)
}
