package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/smartplot/errs"
)

// S2Compressor uses S2 block encoding. It is the default for capture files:
// frames are recorded on the send path, so the fast encoder is used rather
// than the better or best modes.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates an S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress encodes data as one S2 block.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bound := s2.MaxEncodedLen(len(data))
	if bound < 0 || len(data) > maxBlock {
		return nil, fmt.Errorf("s2 block of %d bytes: %w", len(data), errs.ErrFrameTooLarge)
	}

	return s2.Encode(make([]byte, bound), data), nil
}

// Decompress decodes one S2 block. The decoded length stored in the block
// header is checked against maxBlock before any buffer is allocated.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if n > maxBlock {
		return nil, fmt.Errorf("s2 block decodes to %d bytes: %w", n, errs.ErrFrameTooLarge)
	}

	return s2.Decode(make([]byte, n), data)
}
