package compress_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/internal/adapters/compress"
	"go.trai.ch/lockship/internal/core/domain"
)

var lockfileText = bytes.Repeat([]byte(`[[package]]
name = "distributed"
version = "2022.5.2"
category = "main"
optional = false
`), 64)

func TestCompressor_ShrinksText(t *testing.T) {
	c := compress.New()
	for _, codec := range []domain.Codec{domain.CodecZstd, domain.CodecLZ4} {
		t.Run(string(codec), func(t *testing.T) {
			frame, err := c.Compress(codec, lockfileText)
			require.NoError(t, err)
			assert.Less(t, len(frame), len(lockfileText))

			out, err := c.Decompress(frame)
			require.NoError(t, err)
			assert.Equal(t, lockfileText, out)
		})
	}
}

func TestCompressor_IncompressibleStoredRaw(t *testing.T) {
	data := make([]byte, 4096)
	_, err := rand.Read(data)
	require.NoError(t, err)

	c := compress.New()
	frame, err := c.Compress(domain.CodecZstd, data)
	require.NoError(t, err)
	assert.Equal(t, byte(0), frame[0], "random data falls back to the raw frame")

	out, err := c.Decompress(frame)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestCompressor_Empty(t *testing.T) {
	c := compress.New()
	frame, err := c.Compress(domain.CodecLZ4, nil)
	require.NoError(t, err)

	out, err := c.Decompress(frame)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCompressor_UnknownCodec(t *testing.T) {
	_, err := compress.New().Compress("gzip", lockfileText)
	require.ErrorIs(t, err, domain.ErrUnknownCodec)
}

func TestCompressor_Corrupt(t *testing.T) {
	c := compress.New()
	valid, err := c.Compress(domain.CodecZstd, lockfileText)
	require.NoError(t, err)

	truncated := valid[:len(valid)/2]
	unknownTag := append([]byte{9}, valid[1:]...)
	tooLarge := []byte{0, 0xff, 0xff, 0xff, 0xff, 0x0f}

	for name, frame := range map[string][]byte{
		"short":       {0},
		"truncated":   truncated,
		"unknown tag": unknownTag,
		"too large":   tooLarge,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decompress(frame)
			require.ErrorIs(t, err, domain.ErrPayloadCorrupt)
		})
	}
}

func TestParseCodec(t *testing.T) {
	codec, err := compress.ParseCodec("")
	require.NoError(t, err)
	assert.Equal(t, domain.CodecZstd, codec)

	codec, err = compress.ParseCodec("lz4")
	require.NoError(t, err)
	assert.Equal(t, domain.CodecLZ4, codec)

	_, err = compress.ParseCodec("brotli")
	require.ErrorIs(t, err, domain.ErrUnknownCodec)
}
