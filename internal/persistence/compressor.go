package persistence

import (
	"bytes"
	"fmt"
	"ponudaplus/internal/persistence/interfaces"
	"ponudaplus/internal/structures"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the frame header every zstd payload starts with.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *ZstdCompression) Compress(val []byte) ([]byte, error) {
	return z.encoder.EncodeAll(val, make([]byte, 0, len(val)/2)), nil
}

// Decompress returns input without a zstd frame header unchanged, so a
// hand-edited plain JSON file still loads.
func (z *ZstdCompression) Decompress(val []byte) ([]byte, error) {
	if !bytes.HasPrefix(val, zstdMagic) {
		return val, nil
	}
	return z.decoder.DecodeAll(val, nil)
}

func (z *ZstdCompression) Close() {
	z.encoder.Close()
	z.decoder.Close()
}

type noopCompressor struct{}

func (n *noopCompressor) Compress(val []byte) ([]byte, error)   { return val, nil }
func (n *noopCompressor) Decompress(val []byte) ([]byte, error) { return val, nil }
func (n *noopCompressor) Close()                                {}

func NewZstdCompressor() (*ZstdCompression, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}

func NewCompressor(conf *structures.Config) (interfaces.CompressorInterface, error) {
	if !conf.Persistence.Compress {
		return &noopCompressor{}, nil
	}
	return NewZstdCompressor()
}
