package ports

import "go.trai.ch/lockship/internal/core/domain"

// Compressor encodes installer payloads for transport.
//
//go:generate mockgen -source=compressor.go -destination=mocks/mock_compressor.go -package=mocks
type Compressor interface {
	// Compress encodes data with codec. The output is self-describing.
	Compress(codec domain.Codec, data []byte) ([]byte, error)
	// Decompress reverses Compress.
	Decompress(data []byte) ([]byte, error)
}
