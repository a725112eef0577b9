package curve

import (
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
	"github.com/arloliu/smartplot/message"
	"github.com/arloliu/smartplot/sample"
	"github.com/arloliu/smartplot/transmit"
)

// Pair is an interleaved pair: two 1-D curves, X and Y, stored together in
// one buffer of X,Y pairs. The GUI sees two curves of the same plot that are
// always sent for the same sample window.
type Pair struct {
	mu     sync.Mutex
	tx     *transmit.Transmitter
	plot   string
	curveX string
	curveY string
	typ    format.DataType
	buf    buffer
	x      Ring
	y      Ring
	halves uint8
}

const (
	halfX uint8 = 1 << iota
	halfY
)

// NewPair allocates an interleaved pair of capacity X,Y samples of typ.
func NewPair(tx *transmit.Transmitter, plot, curveX, curveY string, typ format.DataType, capacity int) (*Pair, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("pair %s/%s,%s: %w", plot, curveX, curveY, errs.ErrInvalidDataType)
	}

	p := &Pair{tx: tx, plot: plot, curveX: curveX, curveY: curveY, typ: typ, halves: halfX | halfY}
	if err := p.alloc(capacity); err != nil {
		return nil, err
	}

	return p, nil
}

// Append copies X,Y pairs from xy into the buffer and sends what the flush
// policy asks for: a Create1D per half (X through sinkX, Y through sinkY) or
// one envelope with both halves' updates through sinkX.
func (p *Pair) Append(sinkX, sinkY transmit.Sink, xy sample.Samples, capacity, threshold int) (Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.halves == 0 {
		return None, fmt.Errorf("pair %s/%s,%s: %w", p.plot, p.curveX, p.curveY, errs.ErrInvalidKey)
	}

	n := 0
	if len(xy.Data) > 0 {
		if xy.Type != p.typ {
			return None, fmt.Errorf("appending %s pairs to %s pair: %w", xy.Type, p.typ, errs.ErrInvalidDataType)
		}
		if stride := xy.PairStride(); stride < 2*p.typ.Size() {
			return None, fmt.Errorf("pair stride %d: %w", stride, errs.ErrPayloadSize)
		}
		n = xy.PairLen()
	}

	if capacity > 0 && capacity != p.x.capacity {
		if err := p.alloc(capacity); err != nil {
			return None, err
		}
	}

	pending := p.x.Pending()
	p.buf.put(&p.x, xy.Data, n, xy.PairStride())
	p.y.write, p.y.state = p.x.write, p.x.state

	d := Decide(pending, n, p.x.capacity, threshold)

	return d, p.send(sinkX, sinkY, d)
}

// Flush sends every unsent pair.
func (p *Pair) Flush(sinkX, sinkY transmit.Sink) error {
	_, err := p.Append(sinkX, sinkY, sample.Samples{}, 0, 0)
	return err
}

func (p *Pair) send(sinkX, sinkY transmit.Sink, d Decision) error {
	x, y := sample.Raw(p.typ, p.buf.data).Axes()

	liveX, liveY := p.halves&halfX != 0, p.halves&halfY != 0

	switch d {
	case Create:
		var errX, errY error
		if liveX {
			errX = p.tx.Create1D(sinkX, p.plot, p.curveX, p.x.capacity, x)
		}
		if liveY {
			errY = p.tx.Create1D(sinkY, p.plot, p.curveY, p.y.capacity, y)
		}
		p.x.MarkSent()
		p.y.MarkSent()

		return errors.Join(errX, errY)
	case Update:
		if liveX && liveY {
			readX, readY, err := p.tx.UpdatePair(sinkX, p.plot,
				transmit.PairCurve{Curve: p.curveX, Samples: x, Window: p.x.Window()},
				transmit.PairCurve{Curve: p.curveY, Samples: y, Window: p.y.Window()},
			)
			p.x.read, p.y.read = readX, readY

			return err
		}

		return p.updateHalf(sinkX, sinkY, liveX, x, y)
	default:
		return nil
	}
}

// updateHalf sends the pending window of the one half still attached. The
// detached half's cursor follows so both stay in lock-step.
func (p *Pair) updateHalf(sinkX, sinkY transmit.Sink, liveX bool, x, y sample.Samples) error {
	sink, name, view, win := sinkY, p.curveY, y, p.y.Window()
	if liveX {
		sink, name, view, win = sinkX, p.curveX, x, p.x.Window()
	}

	read, err := p.tx.Update1D(sink, p.plot, name, view, win)
	p.x.read, p.y.read = read, read

	return err
}

func (p *Pair) alloc(capacity int) error {
	if err := checkCapacity(capacity); err != nil {
		return err
	}

	for _, name := range [2]string{p.curveX, p.curveY} {
		m := message.Plot1D{Plot: p.plot, Curve: name, Count: uint32(capacity), YType: p.typ}
		if _, err := message.CreateSize1D(m); err != nil {
			return fmt.Errorf("pair %s/%s: %w: %w", p.plot, name, errs.ErrAllocation, err)
		}
	}

	buf, err := newBuffer(capacity, 2*p.typ.Size())
	if err != nil {
		return err
	}

	p.buf = buf
	p.x = NewRing(capacity)
	p.y = NewRing(capacity)

	return nil
}

// Release detaches one half of the pair and reports whether both halves are
// now gone, in which case the shared buffer is dropped.
func (p *Pair) Release(isX bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isX {
		p.halves &^= halfX
	} else {
		p.halves &^= halfY
	}

	if p.halves != 0 {
		return false
	}

	p.buf = buffer{}
	p.x, p.y = Ring{}, Ring{}

	return true
}

// Live reports which halves are still attached.
func (p *Pair) Live() (x, y bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.halves&halfX != 0, p.halves&halfY != 0
}

// Plot returns the plot name.
func (p *Pair) Plot() string { return p.plot }

// Curves returns the X and Y curve names.
func (p *Pair) Curves() (string, string) { return p.curveX, p.curveY }

// Type returns the sample type of both halves.
func (p *Pair) Type() format.DataType { return p.typ }

// Rings returns copies of the X and Y cursors.
func (p *Pair) Rings() (Ring, Ring) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.x, p.y
}

// Snapshot returns a copy of the pair buffer in buffer order.
func (p *Pair) Snapshot() sample.Samples {
	p.mu.Lock()
	defer p.mu.Unlock()

	return sample.Raw(p.typ, append([]byte(nil), p.buf.data...))
}
