package sample

import "unsafe"

// Pairs returns a contiguous view of X,Y pairs without copying.
//
// The returned Samples describes the pair memory: Type is the type of one
// axis value and Stride is zero, meaning pairs are packed back to back.
func Pairs[T Value](xy [][2]T) Samples {
	s := Samples{Type: TypeOf[T]()}
	if len(xy) == 0 {
		return s
	}

	var zero T
	size := int(unsafe.Sizeof(zero))
	s.Data = unsafe.Slice((*byte)(unsafe.Pointer(&xy[0][0])), len(xy)*2*size)

	return s
}

// PairStride returns the distance in bytes between successive X,Y pairs when
// s is read as pair memory.
func (s Samples) PairStride() int {
	if s.Stride == 0 {
		return 2 * s.Type.Size()
	}

	return s.Stride
}

// PairLen returns the number of whole X,Y pairs in s.
func (s Samples) PairLen() int {
	elem := 2 * s.Type.Size()
	if elem == 0 || len(s.Data) < elem {
		return 0
	}

	stride := s.PairStride()
	if stride < elem {
		return 0
	}

	return (len(s.Data)-elem)/stride + 1
}

// Axes splits pair memory into its X and Y views.
func (s Samples) Axes() (x, y Samples) {
	size := s.Type.Size()
	stride := s.PairStride()

	x = Samples{Type: s.Type, Data: s.Data, Stride: stride}
	y = Samples{Type: s.Type, Stride: stride}
	if len(s.Data) >= size {
		y.Data = s.Data[size:]
	}

	return x, y
}
