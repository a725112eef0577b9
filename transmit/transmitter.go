// Package transmit turns curve memory into plot messages.
//
// A Transmitter reads a curve's samples through sample.Samples views, which
// may be strided (one field of a caller's struct array), packs them into
// create or update messages and hands each finished frame to a Sink. Update
// sends split a circular buffer's unsent window into two messages when it
// wraps past the end of the buffer.
package transmit

import (
	"errors"
	"fmt"
	"math"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/internal/pool"
	"github.com/arloliu/smartplot/message"
	"github.com/arloliu/smartplot/sample"
)

// Sink receives finished frames.
//
// Submit must not retain frame after it returns; the memory is reused.
type Sink interface {
	Submit(frame []byte) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(frame []byte) error

// Submit calls f(frame).
func (f SinkFunc) Submit(frame []byte) error {
	return f(frame)
}

// Transmitter builds plot messages with one codec. It is safe for concurrent use.
type Transmitter struct {
	codec *message.Codec
}

// New returns a Transmitter using codec, or the host-order codec when codec is nil.
func New(codec *message.Codec) *Transmitter {
	if codec == nil {
		codec = message.Native()
	}

	return &Transmitter{codec: codec}
}

// Codec returns the codec used to pack messages.
func (t *Transmitter) Codec() *message.Codec {
	return t.codec
}

// Create1D emits one Create1D message holding the first count samples of y.
func (t *Transmitter) Create1D(sink Sink, plot, curve string, count int, y sample.Samples) error {
	if err := checkCount(count); err != nil {
		return err
	}

	p := message.Plot1D{Plot: plot, Curve: curve, Count: uint32(count), YType: y.Type}
	size, err := message.CreateSize1D(p)
	if err != nil {
		return err
	}

	return t.emit(sink, size, func(buf []byte) error {
		off, err := t.codec.PackCreate1DHeader(buf, p)
		if err != nil {
			return err
		}
		_, err = copyAxis(buf[off:], y, 0, count)

		return err
	})
}

// Create2D emits one Create2D message holding the first count samples of the
// separate x and y axes.
func (t *Transmitter) Create2D(sink Sink, plot, curve string, count int, x, y sample.Samples) error {
	if err := checkCount(count); err != nil {
		return err
	}

	p := message.Plot2D{Plot: plot, Curve: curve, Count: uint32(count), XType: x.Type, YType: y.Type}
	size, err := message.CreateSize2D(p)
	if err != nil {
		return err
	}

	return t.emit(sink, size, func(buf []byte) error {
		off, err := t.codec.PackCreate2DHeader(buf, p)
		if err != nil {
			return err
		}

		return fill2D(buf[off:], x, y, 0, count)
	})
}

// Create2DInterleaved emits one interleaved Create2D message holding the first
// count X,Y pairs of xy. Both axes share xy.Type.
func (t *Transmitter) Create2DInterleaved(sink Sink, plot, curve string, count int, xy sample.Samples) error {
	if err := checkCount(count); err != nil {
		return err
	}

	p := message.Plot2D{Plot: plot, Curve: curve, Count: uint32(count), XType: xy.Type, YType: xy.Type, Interleaved: true}
	size, err := message.CreateSize2D(p)
	if err != nil {
		return err
	}

	return t.emit(sink, size, func(buf []byte) error {
		off, err := t.codec.PackCreate2DHeader(buf, p)
		if err != nil {
			return err
		}
		_, err = copyPairs(buf[off:], xy, 0, count)

		return err
	})
}

// Update1D emits the Update1D message(s) covering the unsent window of the
// circular buffer y and returns the new read index.
//
// The read index advances to w.Write even when a send fails; plot data is
// fire-and-forget. Nothing is emitted for an empty window.
func (t *Transmitter) Update1D(sink Sink, plot, curve string, y sample.Samples, w Window) (int, error) {
	segs, n := w.Segments()

	var errList []error
	for _, seg := range segs[:n] {
		p := message.Plot1D{Plot: plot, Curve: curve, Count: uint32(seg.Count), YType: y.Type}
		size, err := message.UpdateSize1D(p)
		if err != nil {
			return w.Read, err
		}

		err = t.emit(sink, size, func(buf []byte) error {
			off, err := t.codec.PackUpdate1DHeader(buf, p, uint32(seg.Start))
			if err != nil {
				return err
			}
			_, err = copyAxis(buf[off:], y, seg.Start, seg.Count)

			return err
		})
		if err != nil {
			errList = append(errList, err)
		}
	}

	return w.Write, errors.Join(errList...)
}

// Update2D emits the Update2D message(s) covering the unsent window of the
// separate-axis circular buffers x and y and returns the new read index.
func (t *Transmitter) Update2D(sink Sink, plot, curve string, x, y sample.Samples, w Window) (int, error) {
	segs, n := w.Segments()

	var errList []error
	for _, seg := range segs[:n] {
		p := message.Plot2D{Plot: plot, Curve: curve, Count: uint32(seg.Count), XType: x.Type, YType: y.Type}
		size, err := message.UpdateSize2D(p)
		if err != nil {
			return w.Read, err
		}

		err = t.emit(sink, size, func(buf []byte) error {
			off, err := t.codec.PackUpdate2DHeader(buf, p, uint32(seg.Start))
			if err != nil {
				return err
			}

			return fill2D(buf[off:], x, y, seg.Start, seg.Count)
		})
		if err != nil {
			errList = append(errList, err)
		}
	}

	return w.Write, errors.Join(errList...)
}

// Update2DInterleaved emits the interleaved Update2D message(s) covering the
// unsent window of the X,Y pair buffer xy and returns the new read index.
func (t *Transmitter) Update2DInterleaved(sink Sink, plot, curve string, xy sample.Samples, w Window) (int, error) {
	segs, n := w.Segments()

	var errList []error
	for _, seg := range segs[:n] {
		p := message.Plot2D{Plot: plot, Curve: curve, Count: uint32(seg.Count), XType: xy.Type, YType: xy.Type, Interleaved: true}
		size, err := message.UpdateSize2D(p)
		if err != nil {
			return w.Read, err
		}

		err = t.emit(sink, size, func(buf []byte) error {
			off, err := t.codec.PackUpdate2DHeader(buf, p, uint32(seg.Start))
			if err != nil {
				return err
			}
			_, err = copyPairs(buf[off:], xy, seg.Start, seg.Count)

			return err
		})
		if err != nil {
			errList = append(errList, err)
		}
	}

	return w.Write, errors.Join(errList...)
}

// PairCurve names one half of an interleaved pair and its view of the shared buffer.
type PairCurve struct {
	Curve   string
	Samples sample.Samples
	Window  Window
}

// UpdatePair emits one group envelope holding the Update1D message(s) of the
// X half followed by those of the Y half, both limited to the smaller of the
// two unsent windows so the curves stay in lock-step. It returns the new read
// index of each half. Nothing is emitted when either half has no unsent samples.
func (t *Transmitter) UpdatePair(sink Sink, plot string, x, y PairCurve) (int, int, error) {
	n := min(x.Window.Pending(), y.Window.Pending())
	if n == 0 {
		return x.Window.Read, y.Window.Read, nil
	}

	wx := x.Window.Trim(n)
	wy := y.Window.Trim(n)

	type part struct {
		p     message.Plot1D
		seg   Segment
		axis  sample.Samples
		size  int
		start int
	}

	var parts [4]part
	count := 0
	total := message.GroupHeaderSize

	for _, half := range [2]struct {
		c PairCurve
		w Window
	}{{x, wx}, {y, wy}} {
		segs, ns := half.w.Segments()
		for _, seg := range segs[:ns] {
			p := message.Plot1D{Plot: plot, Curve: half.c.Curve, Count: uint32(seg.Count), YType: half.c.Samples.Type}
			size, err := message.UpdateSize1D(p)
			if err != nil {
				return x.Window.Read, y.Window.Read, err
			}
			parts[count] = part{p: p, seg: seg, axis: half.c.Samples, size: size, start: total}
			total += size
			count++
		}
	}

	if uint64(total) > math.MaxUint32 {
		return x.Window.Read, y.Window.Read, errs.ErrMessageTooLarge
	}

	err := t.emit(sink, total, func(buf []byte) error {
		if err := t.codec.PackGroupHeader(buf, total); err != nil {
			return err
		}

		for _, pt := range parts[:count] {
			dst := buf[pt.start : pt.start+pt.size]
			off, err := t.codec.PackUpdate1DHeader(dst, pt.p, uint32(pt.seg.Start))
			if err != nil {
				return err
			}
			if _, err := copyAxis(dst[off:], pt.axis, pt.seg.Start, pt.seg.Count); err != nil {
				return err
			}
		}

		return nil
	})

	return wx.Write, wy.Write, err
}

// emit packs one frame of size bytes with fill into pooled scratch memory and submits it.
func (t *Transmitter) emit(sink Sink, size int, fill func(buf []byte) error) error {
	bb := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(bb)

	buf := bb.Resize(size)
	if err := fill(buf); err != nil {
		return err
	}

	return sink.Submit(buf)
}

func fill2D(dst []byte, x, y sample.Samples, start, count int) error {
	n, err := copyAxis(dst, x, start, count)
	if err != nil {
		return fmt.Errorf("x axis: %w", err)
	}
	if _, err := copyAxis(dst[n:], y, start, count); err != nil {
		return fmt.Errorf("y axis: %w", err)
	}

	return nil
}

func checkCount(count int) error {
	if count < 0 || uint64(count) > math.MaxUint32 {
		return fmt.Errorf("sample count %d: %w", count, errs.ErrInvalidCapacity)
	}

	return nil
}
