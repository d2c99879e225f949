// Package compress frames installer payloads with zstd, lz4 or no compression.
package compress

import (
	"encoding/binary"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/zerr"
)

// frameTag is the first byte of every frame. Values are part of the wire format.
type frameTag uint8

const (
	tagNone frameTag = 0
	tagLZ4  frameTag = 1
	tagZstd frameTag = 2
)

// MaxPayloadSize bounds the declared uncompressed size of a frame.
const MaxPayloadSize = 64 << 20

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxPayloadSize))
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// Compressor implements ports.Compressor.
//
// A frame is one tag byte, the uncompressed size as a uvarint, then the body.
// Data that does not shrink is stored uncompressed whatever the codec asked for.
type Compressor struct{}

// New creates a new Compressor.
func New() *Compressor {
	return &Compressor{}
}

// ParseCodec parses a codec name from configuration.
func ParseCodec(name string) (domain.Codec, error) {
	switch codec := domain.Codec(name); codec {
	case domain.CodecZstd, domain.CodecLZ4, domain.CodecNone:
		return codec, nil
	case "":
		return domain.CodecZstd, nil
	default:
		return "", zerr.With(zerr.Wrap(domain.ErrUnknownCodec, name), "codec", name)
	}
}

// Compress encodes data with codec.
func (c *Compressor) Compress(codec domain.Codec, data []byte) ([]byte, error) {
	var (
		tag  frameTag
		body []byte
	)
	switch codec {
	case domain.CodecNone:
		tag, body = tagNone, data
	case domain.CodecLZ4:
		tag, body = tagLZ4, compressLZ4(data)
	case domain.CodecZstd:
		tag, body = tagZstd, zstdEncoder.EncodeAll(data, nil)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownCodec, string(codec)), "codec", string(codec))
	}
	if body == nil || len(body) >= len(data) {
		tag, body = tagNone, data
	}

	frame := make([]byte, 1, 1+binary.MaxVarintLen64+len(body))
	frame[0] = byte(tag)
	frame = binary.AppendUvarint(frame, uint64(len(data)))
	return append(frame, body...), nil
}

// Decompress decodes a frame produced by Compress.
func (c *Compressor) Decompress(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, zerr.Wrap(domain.ErrPayloadCorrupt, "frame too short")
	}
	tag := frameTag(frame[0])
	size, n := binary.Uvarint(frame[1:])
	if n <= 0 {
		return nil, zerr.Wrap(domain.ErrPayloadCorrupt, "invalid size header")
	}
	if size > MaxPayloadSize {
		return nil, zerr.With(zerr.Wrap(domain.ErrPayloadCorrupt, "declared size too large"), "size", size)
	}
	body := frame[1+n:]

	var (
		out []byte
		err error
	)
	switch tag {
	case tagNone:
		out = body
	case tagLZ4:
		out, err = decompressLZ4(body, int(size))
	case tagZstd:
		out, err = zstdDecoder.DecodeAll(body, make([]byte, 0, size))
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrPayloadCorrupt, "unknown frame tag"), "tag", int(tag))
	}
	if err != nil {
		return nil, zerr.Wrap(domain.ErrPayloadCorrupt, err.Error())
	}
	if uint64(len(out)) != size {
		err := zerr.With(zerr.Wrap(domain.ErrPayloadCorrupt, "size mismatch"), "expected", size)
		return nil, zerr.With(err, "actual", len(out))
	}
	return out, nil
}

// compressLZ4 returns nil when data is incompressible.
func compressLZ4(data []byte) []byte {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil || n == 0 {
		return nil
	}
	return dst[:n]
}

func decompressLZ4(body []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(body, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
