package transmit

import (
	"fmt"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/sample"
)

// StridedCopy copies count elements of elem bytes taken every stride bytes of
// src into dst, packed. It returns the number of bytes written.
//
// dst must hold count*elem bytes and src at least (count-1)*stride+elem bytes.
func StridedCopy(dst, src []byte, count, elem, stride int) int {
	if count <= 0 {
		return 0
	}

	if stride == elem {
		return copy(dst[:count*elem], src[:count*elem])
	}

	for i := range count {
		copy(dst[i*elem:(i+1)*elem], src[i*stride:i*stride+elem])
	}

	return count * elem
}

// span returns the bytes of count elements starting at sample index start.
func span(data []byte, start, count, elem, stride int) ([]byte, error) {
	if count == 0 {
		return nil, nil
	}

	from := start * stride
	to := from + (count-1)*stride + elem
	if start < 0 || to > len(data) {
		return nil, fmt.Errorf("samples [%d,%d) need %d bytes, have %d: %w", start, start+count, to, len(data), errs.ErrPayloadSize)
	}

	return data[from:to], nil
}

// copyAxis packs count samples of s starting at sample index start into dst.
func copyAxis(dst []byte, s sample.Samples, start, count int) (int, error) {
	elem := s.Size()
	stride := s.ByteStride()

	src, err := span(s.Data, start, count, elem, stride)
	if err != nil {
		return 0, err
	}

	return StridedCopy(dst, src, count, elem, stride), nil
}

// copyPairs packs count X,Y pairs of xy starting at pair index start into dst.
// A zero stride in xy means the pairs are contiguous.
func copyPairs(dst []byte, xy sample.Samples, start, count int) (int, error) {
	elem := 2 * xy.Size()
	stride := xy.Stride
	if stride == 0 {
		stride = elem
	}

	src, err := span(xy.Data, start, count, elem, stride)
	if err != nil {
		return 0, err
	}

	return StridedCopy(dst, src, count, elem, stride), nil
}
