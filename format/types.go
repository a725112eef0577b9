package format

import "strings"

type (
	DataType        uint32
	Action          uint32
	CompressionType uint8
)

const (
	TypeInt8    DataType = 0  // TypeInt8 represents signed 8-bit integers.
	TypeUint8   DataType = 1  // TypeUint8 represents unsigned 8-bit integers.
	TypeInt16   DataType = 2  // TypeInt16 represents signed 16-bit integers.
	TypeUint16  DataType = 3  // TypeUint16 represents unsigned 16-bit integers.
	TypeInt32   DataType = 4  // TypeInt32 represents signed 32-bit integers.
	TypeUint32  DataType = 5  // TypeUint32 represents unsigned 32-bit integers.
	TypeInt64   DataType = 6  // TypeInt64 represents signed 64-bit integers.
	TypeUint64  DataType = 7  // TypeUint64 represents unsigned 64-bit integers.
	TypeFloat32 DataType = 8  // TypeFloat32 represents IEEE-754 single precision values.
	TypeFloat64 DataType = 9  // TypeFloat64 represents IEEE-754 double precision values.
	TypeTime64  DataType = 10 // TypeTime64 represents a time value made of two uint32 words (sec, nsec).
	TypeTime128 DataType = 11 // TypeTime128 represents a time value made of two uint64 words (sec, nsec).
	TypeInvalid DataType = 12 // TypeInvalid is the sentinel. It never sizes a buffer.

	ActionGroup    Action = 0x4D8828E3 // ActionGroup marks an envelope of concatenated messages.
	ActionCreate1D Action = 0xF29E92F3 // ActionCreate1D creates (or replaces) a 1-D curve.
	ActionCreate2D Action = 0x7A123F89 // ActionCreate2D creates (or replaces) a 2-D curve.
	ActionUpdate1D Action = 0xF1331DFF // ActionUpdate1D overwrites part of a 1-D curve.
	ActionUpdate2D Action = 0x0FAF479C // ActionUpdate2D overwrites part of a 2-D curve.
	ActionInvalid  Action = 0x079C7B2C // ActionInvalid is the sentinel action.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// dataTypeSizes holds the encoded width of every valid DataType, indexed by value.
// Its length must equal TypeInvalid.
var dataTypeSizes = [TypeInvalid]int{
	TypeInt8:    1,
	TypeUint8:   1,
	TypeInt16:   2,
	TypeUint16:  2,
	TypeInt32:   4,
	TypeUint32:  4,
	TypeInt64:   8,
	TypeUint64:  8,
	TypeFloat32: 4,
	TypeFloat64: 8,
	TypeTime64:  4 + 4,
	TypeTime128: 8 + 8,
}

// IsValid reports whether d is one of the defined, non-sentinel data types.
func (d DataType) IsValid() bool {
	return d < TypeInvalid
}

// Size returns the encoded width of one sample of type d in bytes.
// It returns 0 for invalid types.
func (d DataType) Size() int {
	if !d.IsValid() {
		return 0
	}

	return dataTypeSizes[d]
}

func (d DataType) String() string {
	switch d {
	case TypeInt8:
		return "Int8"
	case TypeUint8:
		return "Uint8"
	case TypeInt16:
		return "Int16"
	case TypeUint16:
		return "Uint16"
	case TypeInt32:
		return "Int32"
	case TypeUint32:
		return "Uint32"
	case TypeInt64:
		return "Int64"
	case TypeUint64:
		return "Uint64"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeTime64:
		return "Time64"
	case TypeTime128:
		return "Time128"
	default:
		return "Invalid"
	}
}

// IsValid reports whether a is a known, non-sentinel action.
func (a Action) IsValid() bool {
	switch a {
	case ActionGroup, ActionCreate1D, ActionCreate2D, ActionUpdate1D, ActionUpdate2D:
		return true
	default:
		return false
	}
}

// IsUpdate reports whether a carries a start index.
func (a Action) IsUpdate() bool {
	return a == ActionUpdate1D || a == ActionUpdate2D
}

// Is2D reports whether a describes a two-axis curve.
func (a Action) Is2D() bool {
	return a == ActionCreate2D || a == ActionUpdate2D
}

func (a Action) String() string {
	switch a {
	case ActionGroup:
		return "Group"
	case ActionCreate1D:
		return "Create1D"
	case ActionCreate2D:
		return "Create2D"
	case ActionUpdate1D:
		return "Update1D"
	case ActionUpdate2D:
		return "Update2D"
	default:
		return "Invalid"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression converts a case-insensitive name into a CompressionType.
func ParseCompression(name string) (CompressionType, bool) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}
