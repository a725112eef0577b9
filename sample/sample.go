// Package sample provides typed views of plot sample memory.
//
// Plot payloads are raw sample memory in host byte order. A Samples value
// pairs that memory with its data type and the distance between successive
// samples, so the same value describes a tightly packed slice or one field
// of a caller's struct array:
//
//	ys := sample.Of([]float32{1, 2, 3})
//
//	type reading struct {
//		At    sample.Time64
//		Volts float64
//	}
//	volts := sample.Field[reading, float64](readings, unsafe.Offsetof(reading{}.Volts))
//
// Views created here alias the caller's memory; they are only valid while the
// underlying slice is alive and unchanged.
package sample

import (
	"fmt"
	"unsafe"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
)

// Value lists the Go types that map to a plot data type.
type Value interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 |
		float32 | float64 | Time64 | Time128
}

// Samples is a typed view of sample memory.
//
// Stride is the number of bytes from the start of one sample to the start of
// the next; zero means the samples are contiguous.
type Samples struct {
	Type   format.DataType
	Data   []byte
	Stride int
}

// TypeOf returns the data type tag for T.
func TypeOf[T Value]() format.DataType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return format.TypeInt8
	case uint8:
		return format.TypeUint8
	case int16:
		return format.TypeInt16
	case uint16:
		return format.TypeUint16
	case int32:
		return format.TypeInt32
	case uint32:
		return format.TypeUint32
	case int64:
		return format.TypeInt64
	case uint64:
		return format.TypeUint64
	case float32:
		return format.TypeFloat32
	case float64:
		return format.TypeFloat64
	case Time64:
		return format.TypeTime64
	case Time128:
		return format.TypeTime128
	default:
		return format.TypeInvalid
	}
}

// Of returns a contiguous view of vals without copying.
func Of[T Value](vals []T) Samples {
	s := Samples{Type: TypeOf[T]()}
	if len(vals) == 0 {
		return s
	}

	var zero T
	size := int(unsafe.Sizeof(zero))
	s.Data = unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(vals)*size)

	return s
}

// Field returns a strided view of the field at offset inside every element of items.
//
// offset is normally obtained with unsafe.Offsetof and must address a field of type T.
func Field[S any, T Value](items []S, offset uintptr) Samples {
	var (
		elem  S
		field T
	)
	stride := int(unsafe.Sizeof(elem))
	size := int(unsafe.Sizeof(field))

	s := Samples{Type: TypeOf[T](), Stride: stride}
	if len(items) == 0 || int(offset)+size > stride {
		return s
	}

	base := unsafe.Add(unsafe.Pointer(&items[0]), offset)
	s.Data = unsafe.Slice((*byte)(base), (len(items)-1)*stride+size)

	return s
}

// Raw wraps already encoded, contiguous sample memory of type dt.
func Raw(dt format.DataType, data []byte) Samples {
	return Samples{Type: dt, Data: data}
}

// Size returns the width of one sample in bytes.
func (s Samples) Size() int {
	return s.Type.Size()
}

// ByteStride returns the effective distance between successive samples.
func (s Samples) ByteStride() int {
	if s.Stride == 0 {
		return s.Type.Size()
	}

	return s.Stride
}

// Contiguous reports whether the samples are tightly packed.
func (s Samples) Contiguous() bool {
	return s.ByteStride() == s.Type.Size()
}

// Len returns the number of whole samples in the view.
func (s Samples) Len() int {
	size := s.Type.Size()
	if size == 0 || len(s.Data) < size {
		return 0
	}

	stride := s.ByteStride()
	if stride < size {
		return 0
	}

	return (len(s.Data)-size)/stride + 1
}

// Validate checks that the view can be used for sizing and copying.
func (s Samples) Validate() error {
	if !s.Type.IsValid() {
		return fmt.Errorf("samples of %s: %w", s.Type, errs.ErrInvalidDataType)
	}
	if s.Stride != 0 && s.Stride < s.Type.Size() {
		return fmt.Errorf("stride %d below element size %d: %w", s.Stride, s.Type.Size(), errs.ErrPayloadSize)
	}

	return nil
}

// Values copies the samples into a new slice of T.
func Values[T Value](s Samples) ([]T, error) {
	if TypeOf[T]() != s.Type {
		return nil, fmt.Errorf("samples of %s read as %s: %w", s.Type, TypeOf[T](), errs.ErrInvalidDataType)
	}

	n := s.Len()
	out := make([]T, n)
	if n == 0 {
		return out, nil
	}

	size := s.Size()
	stride := s.ByteStride()
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), n*size)
	for i := range n {
		copy(dst[i*size:(i+1)*size], s.Data[i*stride:i*stride+size])
	}

	return out, nil
}
