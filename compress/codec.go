package compress

import (
	"fmt"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
)

// maxBlock bounds the decoded size of one block.
const maxBlock = 128 << 20

// Compressor compresses one block.
type Compressor interface {
	// Compress returns the compressed form of data. The result is owned by
	// the caller; data is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores one block produced by the matching Compressor.
type Decompressor interface {
	// Decompress returns the original bytes of data, or an error when data is
	// corrupt or was written by another algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec compresses and decompresses blocks.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec returns the codec for compressionType. target names the
// consumer in the error message.
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("%s compression %s: %w", target, compressionType, errs.ErrInvalidCompression)
	}
}
