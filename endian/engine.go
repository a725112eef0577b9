// Package endian provides byte order engines for the plot wire protocol.
//
// The plot protocol writes every integer in the byte order of the host that
// produced it; sender and plotting front end are expected to share an
// architecture. Most code should therefore use GetNativeEngine:
//
//	engine := endian.GetNativeEngine()
//	buf = engine.AppendUint32(buf, uint32(format.ActionCreate1D))
//
// Decoders that must read a capture recorded on a different host pick the
// engine that matches the recorded flag:
//
//	engine := endian.EngineFor(header.LittleEndian)
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

var native = detect()

func detect() EndianEngine {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))

	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// CheckEndianness returns the host's byte order.
func CheckEndianness() binary.ByteOrder {
	return native
}

func IsNativeLittleEndian() bool {
	return native == binary.LittleEndian
}

func IsNativeBigEndian() bool {
	return native == binary.BigEndian
}

// CompareNativeEndian reports whether engine matches the host's byte order.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == native
}

// GetNativeEngine returns the engine matching the host's byte order.
func GetNativeEngine() EndianEngine {
	return native
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// EngineFor returns the little-endian engine when little is true, otherwise the big-endian one.
func EngineFor(little bool) EndianEngine {
	if little {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

// IsLittle reports whether engine writes least significant bytes first.
func IsLittle(engine EndianEngine) bool {
	return engine == binary.LittleEndian
}
