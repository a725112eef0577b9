package curve

import (
	"fmt"
	"sync"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
	"github.com/arloliu/smartplot/message"
	"github.com/arloliu/smartplot/sample"
	"github.com/arloliu/smartplot/transmit"
)

// Series1D is a managed 1-D curve.
//
// All methods are safe for concurrent use; appends from several goroutines
// are serialized.
type Series1D struct {
	mu    sync.Mutex
	tx    *transmit.Transmitter
	plot  string
	curve string
	typ   format.DataType
	buf   buffer
	ring  Ring
}

// NewSeries1D allocates a 1-D curve of capacity samples of typ.
func NewSeries1D(tx *transmit.Transmitter, plot, curve string, typ format.DataType, capacity int) (*Series1D, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("curve %s/%s: %w", plot, curve, errs.ErrInvalidDataType)
	}

	s := &Series1D{tx: tx, plot: plot, curve: curve, typ: typ}
	if err := s.alloc(capacity); err != nil {
		return nil, err
	}

	return s, nil
}

// Append copies y into the buffer and sends what the flush policy asks for.
//
// A positive capacity different from the current one reallocates the buffer,
// discarding its content. Rejected input leaves the buffer and cursors as they
// were. It returns the decision taken; a send error does not undo the cursor
// advance.
func (s *Series1D) Append(sink transmit.Sink, y sample.Samples, capacity, threshold int) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := inputLen(s.typ, y)
	if err != nil {
		return None, err
	}

	if capacity > 0 && capacity != s.ring.capacity {
		if err := s.alloc(capacity); err != nil {
			return None, err
		}
	}

	pending := s.ring.Pending()
	s.buf.put(&s.ring, y.Data, n, y.ByteStride())

	d := Decide(pending, n, s.ring.capacity, threshold)

	return d, s.send(sink, d)
}

// Flush sends every unsent sample.
func (s *Series1D) Flush(sink transmit.Sink) error {
	_, err := s.Append(sink, sample.Samples{}, 0, 0)
	return err
}

func (s *Series1D) send(sink transmit.Sink, d Decision) error {
	view := sample.Raw(s.typ, s.buf.data)

	switch d {
	case Create:
		err := s.tx.Create1D(sink, s.plot, s.curve, s.ring.capacity, view)
		s.ring.MarkSent()

		return err
	case Update:
		read, err := s.tx.Update1D(sink, s.plot, s.curve, view, s.ring.Window())
		s.ring.read = read

		return err
	default:
		return nil
	}
}

func (s *Series1D) alloc(capacity int) error {
	if err := checkCapacity(capacity); err != nil {
		return err
	}

	p := message.Plot1D{Plot: s.plot, Curve: s.curve, Count: uint32(capacity), YType: s.typ}
	if _, err := message.CreateSize1D(p); err != nil {
		return fmt.Errorf("curve %s/%s: %w: %w", s.plot, s.curve, errs.ErrAllocation, err)
	}

	buf, err := newBuffer(capacity, s.typ.Size())
	if err != nil {
		return err
	}

	s.buf = buf
	s.ring = NewRing(capacity)

	return nil
}

// Plot returns the plot name.
func (s *Series1D) Plot() string { return s.plot }

// Curve returns the curve name.
func (s *Series1D) Curve() string { return s.curve }

// Type returns the sample type.
func (s *Series1D) Type() format.DataType { return s.typ }

// Ring returns a copy of the cursors.
func (s *Series1D) Ring() Ring {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ring
}

// Snapshot returns a copy of the buffer in buffer order.
func (s *Series1D) Snapshot() sample.Samples {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sample.Raw(s.typ, append([]byte(nil), s.buf.data...))
}

// Series2D is a managed 2-D curve with separate X and Y storage.
// Both axes always hold the same number of samples.
type Series2D struct {
	mu    sync.Mutex
	tx    *transmit.Transmitter
	plot  string
	curve string
	xType format.DataType
	yType format.DataType
	xBuf  buffer
	yBuf  buffer
	ring  Ring
}

// NewSeries2D allocates a 2-D curve of capacity samples per axis.
func NewSeries2D(tx *transmit.Transmitter, plot, curve string, xType, yType format.DataType, capacity int) (*Series2D, error) {
	if !xType.IsValid() || !yType.IsValid() {
		return nil, fmt.Errorf("curve %s/%s: %w", plot, curve, errs.ErrInvalidDataType)
	}

	s := &Series2D{tx: tx, plot: plot, curve: curve, xType: xType, yType: yType}
	if err := s.alloc(capacity); err != nil {
		return nil, err
	}

	return s, nil
}

// Append copies the x and y samples into the buffers and sends what the
// flush policy asks for. x and y must hold the same number of samples.
func (s *Series2D) Append(sink transmit.Sink, x, y sample.Samples, capacity, threshold int) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nx, err := inputLen(s.xType, x)
	if err != nil {
		return None, fmt.Errorf("x axis: %w", err)
	}
	ny, err := inputLen(s.yType, y)
	if err != nil {
		return None, fmt.Errorf("y axis: %w", err)
	}
	if nx != ny {
		return None, fmt.Errorf("%d x samples, %d y samples: %w", nx, ny, errs.ErrAxisMismatch)
	}

	if capacity > 0 && capacity != s.ring.capacity {
		if err := s.alloc(capacity); err != nil {
			return None, err
		}
	}

	pending := s.ring.Pending()
	yRing := s.ring
	s.xBuf.put(&s.ring, x.Data, nx, x.ByteStride())
	s.yBuf.put(&yRing, y.Data, ny, y.ByteStride())

	d := Decide(pending, nx, s.ring.capacity, threshold)

	return d, s.send(sink, d)
}

// Flush sends every unsent sample.
func (s *Series2D) Flush(sink transmit.Sink) error {
	_, err := s.Append(sink, sample.Samples{}, sample.Samples{}, 0, 0)
	return err
}

func (s *Series2D) send(sink transmit.Sink, d Decision) error {
	x := sample.Raw(s.xType, s.xBuf.data)
	y := sample.Raw(s.yType, s.yBuf.data)

	switch d {
	case Create:
		err := s.tx.Create2D(sink, s.plot, s.curve, s.ring.capacity, x, y)
		s.ring.MarkSent()

		return err
	case Update:
		read, err := s.tx.Update2D(sink, s.plot, s.curve, x, y, s.ring.Window())
		s.ring.read = read

		return err
	default:
		return nil
	}
}

func (s *Series2D) alloc(capacity int) error {
	if err := checkCapacity(capacity); err != nil {
		return err
	}

	p := message.Plot2D{Plot: s.plot, Curve: s.curve, Count: uint32(capacity), XType: s.xType, YType: s.yType}
	if _, err := message.CreateSize2D(p); err != nil {
		return fmt.Errorf("curve %s/%s: %w: %w", s.plot, s.curve, errs.ErrAllocation, err)
	}

	xBuf, err := newBuffer(capacity, s.xType.Size())
	if err != nil {
		return err
	}
	yBuf, err := newBuffer(capacity, s.yType.Size())
	if err != nil {
		return err
	}

	s.xBuf, s.yBuf = xBuf, yBuf
	s.ring = NewRing(capacity)

	return nil
}

// Plot returns the plot name.
func (s *Series2D) Plot() string { return s.plot }

// Curve returns the curve name.
func (s *Series2D) Curve() string { return s.curve }

// Types returns the X and Y sample types.
func (s *Series2D) Types() (format.DataType, format.DataType) { return s.xType, s.yType }

// Ring returns a copy of the cursors.
func (s *Series2D) Ring() Ring {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ring
}

// Snapshot returns copies of both axis buffers in buffer order.
func (s *Series2D) Snapshot() (sample.Samples, sample.Samples) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sample.Raw(s.xType, append([]byte(nil), s.xBuf.data...)),
		sample.Raw(s.yType, append([]byte(nil), s.yBuf.data...))
}

func checkCapacity(capacity int) error {
	if capacity <= 0 || uint64(capacity) > MaxCapacity {
		return fmt.Errorf("capacity %d: %w", capacity, errs.ErrInvalidCapacity)
	}

	return nil
}

// inputLen validates appended samples against the store type and returns
// their count. An empty view appends nothing whatever its type.
func inputLen(typ format.DataType, in sample.Samples) (int, error) {
	if len(in.Data) == 0 {
		return 0, nil
	}
	if in.Type != typ {
		return 0, fmt.Errorf("appending %s to %s curve: %w", in.Type, typ, errs.ErrInvalidDataType)
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}

	return in.Len(), nil
}
