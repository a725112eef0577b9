package sample

import (
	"fmt"
	"math"

	"github.com/arloliu/smartplot/endian"
	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
)

// AsFloat64 decodes contiguous sample memory of type dt into float64 values
// using engine. Time values convert to fractional seconds.
func AsFloat64(engine endian.EndianEngine, dt format.DataType, data []byte) ([]float64, error) {
	size := dt.Size()
	if size == 0 {
		return nil, fmt.Errorf("decode %s: %w", dt, errs.ErrInvalidDataType)
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("decode %d bytes of %s: %w", len(data), dt, errs.ErrPayloadSize)
	}

	out := make([]float64, len(data)/size)
	for i := range out {
		out[i] = decodeOne(engine, dt, data[i*size:(i+1)*size])
	}

	return out, nil
}

func decodeOne(engine endian.EndianEngine, dt format.DataType, b []byte) float64 {
	switch dt {
	case format.TypeInt8:
		return float64(int8(b[0]))
	case format.TypeUint8:
		return float64(b[0])
	case format.TypeInt16:
		return float64(int16(engine.Uint16(b)))
	case format.TypeUint16:
		return float64(engine.Uint16(b))
	case format.TypeInt32:
		return float64(int32(engine.Uint32(b)))
	case format.TypeUint32:
		return float64(engine.Uint32(b))
	case format.TypeInt64:
		return float64(int64(engine.Uint64(b)))
	case format.TypeUint64:
		return float64(engine.Uint64(b))
	case format.TypeFloat32:
		return float64(math.Float32frombits(engine.Uint32(b)))
	case format.TypeFloat64:
		return math.Float64frombits(engine.Uint64(b))
	case format.TypeTime64:
		return Time64{Sec: engine.Uint32(b), Nsec: engine.Uint32(b[4:])}.Seconds()
	case format.TypeTime128:
		return Time128{Sec: engine.Uint64(b), Nsec: engine.Uint64(b[8:])}.Seconds()
	default:
		return math.NaN()
	}
}
