package message

import (
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
)

const (
	// HeaderSize is the size of the action tag and total length fields every message starts with.
	HeaderSize = actionSize + lengthSize
	// GroupHeaderSize is the size of a group envelope header.
	GroupHeaderSize = HeaderSize

	actionSize = 4
	lengthSize = 4
	countSize  = 4
	startSize  = 4
	typeSize   = 4 // data type tags are encoded as 32-bit enums
	flagSize   = 1
)

// Plot1D describes a 1-D curve message: Count samples of YType.
type Plot1D struct {
	Plot  string
	Curve string
	Count uint32
	YType format.DataType
}

// Plot2D describes a 2-D curve message: Count samples per axis.
//
// When Interleaved is set the payload alternates X,Y values in one block;
// otherwise all X values precede all Y values.
type Plot2D struct {
	Plot        string
	Curve       string
	Count       uint32
	XType       format.DataType
	YType       format.DataType
	Interleaved bool
}

// PayloadSize returns the byte length of the 1-D payload.
func (p Plot1D) PayloadSize() int {
	return int(p.Count) * p.YType.Size()
}

// XPayloadSize returns the byte length of the X axis payload.
func (p Plot2D) XPayloadSize() int {
	return int(p.Count) * p.XType.Size()
}

// YPayloadSize returns the byte length of the Y axis payload.
func (p Plot2D) YPayloadSize() int {
	return int(p.Count) * p.YType.Size()
}

// PayloadSize returns the byte length of both axis payloads together.
func (p Plot2D) PayloadSize() int {
	return p.XPayloadSize() + p.YPayloadSize()
}

// CreateSize1D returns the exact byte length of a Create1D message for p.
func CreateSize1D(p Plot1D) (int, error) {
	if err := validate1D(p); err != nil {
		return 0, err
	}

	size := HeaderSize + cstrSize(p.Plot) + cstrSize(p.Curve) + countSize + typeSize
	size64 := uint64(size) + uint64(p.Count)*uint64(p.YType.Size())

	return checkLength(size64)
}

// UpdateSize1D returns the exact byte length of an Update1D message for p.
func UpdateSize1D(p Plot1D) (int, error) {
	size, err := CreateSize1D(p)
	if err != nil {
		return 0, err
	}

	return checkLength(uint64(size) + startSize)
}

// CreateSize2D returns the exact byte length of a Create2D message for p.
// Interleaving does not change the size.
func CreateSize2D(p Plot2D) (int, error) {
	if err := validate2D(p); err != nil {
		return 0, err
	}

	size := HeaderSize + cstrSize(p.Plot) + cstrSize(p.Curve) + countSize + 2*typeSize + flagSize
	size64 := uint64(size) +
		uint64(p.Count)*uint64(p.XType.Size()) +
		uint64(p.Count)*uint64(p.YType.Size())

	return checkLength(size64)
}

// UpdateSize2D returns the exact byte length of an Update2D message for p.
func UpdateSize2D(p Plot2D) (int, error) {
	size, err := CreateSize2D(p)
	if err != nil {
		return 0, err
	}

	return checkLength(uint64(size) + startSize)
}

func cstrSize(s string) int {
	return len(s) + 1
}

func checkLength(size uint64) (int, error) {
	if size > math.MaxUint32 || size > uint64(math.MaxInt) {
		return 0, errs.ErrMessageTooLarge
	}

	return int(size), nil
}

func validateNames(plot, curve string) error {
	if strings.IndexByte(plot, 0) >= 0 {
		return fmt.Errorf("plot %q: %w", plot, errs.ErrInvalidName)
	}
	if strings.IndexByte(curve, 0) >= 0 {
		return fmt.Errorf("curve %q: %w", curve, errs.ErrInvalidName)
	}

	return nil
}

func validate1D(p Plot1D) error {
	if !p.YType.IsValid() {
		return fmt.Errorf("y axis %s: %w", p.YType, errs.ErrInvalidDataType)
	}

	return validateNames(p.Plot, p.Curve)
}

func validate2D(p Plot2D) error {
	if !p.XType.IsValid() {
		return fmt.Errorf("x axis %s: %w", p.XType, errs.ErrInvalidDataType)
	}
	if !p.YType.IsValid() {
		return fmt.Errorf("y axis %s: %w", p.YType, errs.ErrInvalidDataType)
	}

	return validateNames(p.Plot, p.Curve)
}
