package message

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
)

// Message is a decoded plot message.
//
// Payload slices alias the decoded frame. For 1-D messages the samples are in
// Y and XType is TypeInvalid. For interleaved 2-D messages X holds the whole
// X,Y payload and Y is nil. For group envelopes only Action, Length and Body
// are set.
type Message struct {
	Action      format.Action
	Length      uint32
	Plot        string
	Curve       string
	Count       uint32
	Start       uint32
	XType       format.DataType
	YType       format.DataType
	Interleaved bool
	X           []byte
	Y           []byte
	Body        []byte
}

// PeekHeader returns the action and total length of the message at the start of frame.
func (c *Codec) PeekHeader(frame []byte) (format.Action, uint32, error) {
	if len(frame) < HeaderSize {
		return format.ActionInvalid, 0, fmt.Errorf("header: %w", errs.ErrTruncated)
	}

	return format.Action(c.engine.Uint32(frame)), c.engine.Uint32(frame[actionSize:]), nil
}

// Decode parses exactly one message. The length field must equal len(frame).
func (c *Codec) Decode(frame []byte) (Message, error) {
	action, length, err := c.PeekHeader(frame)
	if err != nil {
		return Message{}, err
	}

	if int(length) != len(frame) || length < HeaderSize {
		return Message{}, fmt.Errorf("%s length %d, frame %d: %w", action, length, len(frame), errs.ErrLengthMismatch)
	}

	msg := Message{Action: action, Length: length, XType: format.TypeInvalid}
	r := reader{codec: c, buf: frame, off: HeaderSize}

	switch action {
	case format.ActionGroup:
		msg.Body = frame[HeaderSize:]
		return msg, nil
	case format.ActionCreate1D, format.ActionUpdate1D, format.ActionCreate2D, format.ActionUpdate2D:
	default:
		return Message{}, fmt.Errorf("action 0x%08X: %w", uint32(action), errs.ErrInvalidAction)
	}

	if msg.Plot, err = r.cstr(); err != nil {
		return Message{}, fmt.Errorf("plot name: %w", err)
	}
	if msg.Curve, err = r.cstr(); err != nil {
		return Message{}, fmt.Errorf("curve name: %w", err)
	}
	if msg.Count, err = r.u32(); err != nil {
		return Message{}, err
	}
	if action.IsUpdate() {
		if msg.Start, err = r.u32(); err != nil {
			return Message{}, err
		}
	}

	if action.Is2D() {
		if err := r.types2D(&msg); err != nil {
			return Message{}, err
		}
	} else {
		yType, err := r.u32()
		if err != nil {
			return Message{}, err
		}
		msg.YType = format.DataType(yType)
		if !msg.YType.IsValid() {
			return Message{}, fmt.Errorf("y axis %d: %w", yType, errs.ErrInvalidDataType)
		}
	}

	payload := frame[r.off:]
	xSize := uint64(msg.Count) * uint64(msg.XType.Size())
	ySize := uint64(msg.Count) * uint64(msg.YType.Size())
	if uint64(len(payload)) != xSize+ySize {
		return Message{}, fmt.Errorf("%s: payload %d bytes for %d samples: %w", action, len(payload), msg.Count, errs.ErrPayloadSize)
	}

	switch {
	case !action.Is2D():
		msg.Y = payload
	case msg.Interleaved:
		msg.X = payload
	default:
		msg.X = payload[:xSize]
		msg.Y = payload[xSize:]
	}

	return msg, nil
}

// Split iterates the plot messages contained in frame.
//
// A group envelope yields each inner message in order, descending into nested
// groups; any other frame yields itself. Iteration stops after the first error.
func (c *Codec) Split(frame []byte) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		c.split(frame, yield)
	}
}

func (c *Codec) split(frame []byte, yield func(Message, error) bool) bool {
	msg, err := c.Decode(frame)
	if err != nil {
		return yield(Message{}, err)
	}

	if msg.Action != format.ActionGroup {
		return yield(msg, nil)
	}

	body := msg.Body
	for len(body) > 0 {
		_, length, err := c.PeekHeader(body)
		if err != nil {
			return yield(Message{}, fmt.Errorf("group member: %w", err))
		}
		if length < HeaderSize || int(length) > len(body) {
			return yield(Message{}, fmt.Errorf("group member length %d of %d: %w", length, len(body), errs.ErrTruncated))
		}

		if !c.split(body[:length], yield) {
			return false
		}
		body = body[length:]
	}

	return true
}

// reader sequentially consumes a message buffer.
type reader struct {
	codec *Codec
	buf   []byte
	off   int
}

func (r *reader) u32() (uint32, error) {
	if len(r.buf)-r.off < 4 {
		return 0, errs.ErrTruncated
	}

	v := r.codec.engine.Uint32(r.buf[r.off:])
	r.off += 4

	return v, nil
}

func (r *reader) cstr() (string, error) {
	idx := bytes.IndexByte(r.buf[r.off:], 0)
	if idx < 0 {
		return "", errs.ErrMissingTerminator
	}

	s := string(r.buf[r.off : r.off+idx])
	r.off += idx + 1

	return s, nil
}

func (r *reader) types2D(msg *Message) error {
	xType, err := r.u32()
	if err != nil {
		return err
	}
	yType, err := r.u32()
	if err != nil {
		return err
	}
	if r.off >= len(r.buf) {
		return errs.ErrTruncated
	}

	msg.XType = format.DataType(xType)
	msg.YType = format.DataType(yType)
	msg.Interleaved = r.buf[r.off] != 0
	r.off++

	if !msg.XType.IsValid() {
		return fmt.Errorf("x axis %d: %w", xType, errs.ErrInvalidDataType)
	}
	if !msg.YType.IsValid() {
		return fmt.Errorf("y axis %d: %w", yType, errs.ErrInvalidDataType)
	}

	return nil
}
