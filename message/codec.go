// Package message implements the plot wire message codec.
//
// Every message starts with a 32-bit action tag and a 32-bit total length that
// covers the whole message including both fields:
//
//	CreatePlot1D  := plot:cstr curve:cstr count:u32 yType:u32 yPayload
//	CreatePlot2D  := plot:cstr curve:cstr count:u32 xType:u32 yType:u32 interleaved:u8 xPayload [yPayload]
//	UpdatePlot1D  := plot:cstr curve:cstr count:u32 start:u32 yType:u32 yPayload
//	UpdatePlot2D  := plot:cstr curve:cstr count:u32 start:u32 xType:u32 yType:u32 interleaved:u8 xPayload [yPayload]
//	GroupEnvelope := action=Group totalLen:u32 WireMessage*
//
// Integers use the byte order of the Codec's engine. Native() returns the
// host-order codec that the plotting front end expects.
//
// For every message kind there is a size function, a pack function that copies
// a contiguous payload, and a header-only pack function that returns the byte
// offset at which the caller must assemble the payload itself (strided copies,
// wraparound splits). Size and pack functions always agree.
package message

import (
	"fmt"

	"github.com/arloliu/smartplot/endian"
	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
)

// Codec packs and decodes plot messages using one byte order.
//
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	engine endian.EndianEngine
}

var nativeCodec = NewCodec(endian.GetNativeEngine())

// NewCodec creates a codec that encodes integers with engine.
func NewCodec(engine endian.EndianEngine) *Codec {
	return &Codec{engine: engine}
}

// Native returns the codec for the host's byte order.
func Native() *Codec {
	return nativeCodec
}

// Engine returns the byte order engine of the codec.
func (c *Codec) Engine() endian.EndianEngine {
	return c.engine
}

// PackCreate1DHeader writes a Create1D message without its payload into dst and
// returns the offset where the Y payload must be copied.
func (c *Codec) PackCreate1DHeader(dst []byte, p Plot1D) (int, error) {
	size, err := CreateSize1D(p)
	if err != nil {
		return 0, err
	}

	w, err := c.newWriter(dst, size)
	if err != nil {
		return 0, err
	}

	w.header(format.ActionCreate1D, size, p.Plot, p.Curve)
	w.u32(p.Count)
	w.u32(uint32(p.YType))

	return w.off, nil
}

// PackCreate1D writes a complete Create1D message into dst and returns its length.
func (c *Codec) PackCreate1D(dst []byte, p Plot1D, y []byte) (int, error) {
	if len(y) != p.PayloadSize() {
		return 0, fmt.Errorf("create 1d: %d bytes for %d samples: %w", len(y), p.Count, errs.ErrPayloadSize)
	}

	off, err := c.PackCreate1DHeader(dst, p)
	if err != nil {
		return 0, err
	}

	return off + copy(dst[off:], y), nil
}

// PackUpdate1DHeader writes an Update1D message without its payload into dst and
// returns the offset where the Y payload must be copied.
func (c *Codec) PackUpdate1DHeader(dst []byte, p Plot1D, start uint32) (int, error) {
	size, err := UpdateSize1D(p)
	if err != nil {
		return 0, err
	}

	w, err := c.newWriter(dst, size)
	if err != nil {
		return 0, err
	}

	w.header(format.ActionUpdate1D, size, p.Plot, p.Curve)
	w.u32(p.Count)
	w.u32(start)
	w.u32(uint32(p.YType))

	return w.off, nil
}

// PackUpdate1D writes a complete Update1D message into dst and returns its length.
func (c *Codec) PackUpdate1D(dst []byte, p Plot1D, start uint32, y []byte) (int, error) {
	if len(y) != p.PayloadSize() {
		return 0, fmt.Errorf("update 1d: %d bytes for %d samples: %w", len(y), p.Count, errs.ErrPayloadSize)
	}

	off, err := c.PackUpdate1DHeader(dst, p, start)
	if err != nil {
		return 0, err
	}

	return off + copy(dst[off:], y), nil
}

// PackCreate2DHeader writes a Create2D message without its payload into dst and
// returns the offset where the X payload (or the interleaved payload) must be copied.
func (c *Codec) PackCreate2DHeader(dst []byte, p Plot2D) (int, error) {
	size, err := CreateSize2D(p)
	if err != nil {
		return 0, err
	}

	w, err := c.newWriter(dst, size)
	if err != nil {
		return 0, err
	}

	w.header(format.ActionCreate2D, size, p.Plot, p.Curve)
	w.u32(p.Count)
	w.u32(uint32(p.XType))
	w.u32(uint32(p.YType))
	w.flag(p.Interleaved)

	return w.off, nil
}

// PackCreate2D writes a complete Create2D message into dst and returns its length.
//
// For separate axes x and y hold each axis payload. For an interleaved plot x
// holds the whole X,Y payload and y must be empty.
func (c *Codec) PackCreate2D(dst []byte, p Plot2D, x, y []byte) (int, error) {
	if err := checkPayload2D(p, x, y); err != nil {
		return 0, fmt.Errorf("create 2d: %w", err)
	}

	off, err := c.PackCreate2DHeader(dst, p)
	if err != nil {
		return 0, err
	}

	off += copy(dst[off:], x)
	off += copy(dst[off:], y)

	return off, nil
}

// PackUpdate2DHeader writes an Update2D message without its payload into dst and
// returns the offset where the X payload (or the interleaved payload) must be copied.
func (c *Codec) PackUpdate2DHeader(dst []byte, p Plot2D, start uint32) (int, error) {
	size, err := UpdateSize2D(p)
	if err != nil {
		return 0, err
	}

	w, err := c.newWriter(dst, size)
	if err != nil {
		return 0, err
	}

	w.header(format.ActionUpdate2D, size, p.Plot, p.Curve)
	w.u32(p.Count)
	w.u32(start)
	w.u32(uint32(p.XType))
	w.u32(uint32(p.YType))
	w.flag(p.Interleaved)

	return w.off, nil
}

// PackUpdate2D writes a complete Update2D message into dst and returns its length.
// Payload arguments follow PackCreate2D.
func (c *Codec) PackUpdate2D(dst []byte, p Plot2D, start uint32, x, y []byte) (int, error) {
	if err := checkPayload2D(p, x, y); err != nil {
		return 0, fmt.Errorf("update 2d: %w", err)
	}

	off, err := c.PackUpdate2DHeader(dst, p, start)
	if err != nil {
		return 0, err
	}

	off += copy(dst[off:], x)
	off += copy(dst[off:], y)

	return off, nil
}

func checkPayload2D(p Plot2D, x, y []byte) error {
	if p.Interleaved {
		if len(x) != p.PayloadSize() || len(y) != 0 {
			return fmt.Errorf("%d+%d bytes for %d interleaved samples: %w", len(x), len(y), p.Count, errs.ErrPayloadSize)
		}

		return nil
	}

	if len(x) != p.XPayloadSize() || len(y) != p.YPayloadSize() {
		return fmt.Errorf("%d+%d bytes for %d samples: %w", len(x), len(y), p.Count, errs.ErrPayloadSize)
	}

	return nil
}

// writer sequentially fills a pre-sized message buffer.
type writer struct {
	engine endian.EndianEngine
	buf    []byte
	off    int
}

func (c *Codec) newWriter(dst []byte, size int) (writer, error) {
	if len(dst) < size {
		return writer{}, fmt.Errorf("need %d bytes, have %d: %w", size, len(dst), errs.ErrShortBuffer)
	}

	return writer{engine: c.engine, buf: dst}, nil
}

func (w *writer) header(action format.Action, size int, plot, curve string) {
	w.u32(uint32(action))
	w.u32(uint32(size))
	w.cstr(plot)
	w.cstr(curve)
}

func (w *writer) u32(v uint32) {
	w.engine.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *writer) cstr(s string) {
	w.off += copy(w.buf[w.off:], s)
	w.buf[w.off] = 0
	w.off++
}

func (w *writer) flag(b bool) {
	if b {
		w.buf[w.off] = 1
	} else {
		w.buf[w.off] = 0
	}
	w.off++
}
