package message

import (
	"fmt"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
)

// PackGroupHeader writes a group envelope header for an envelope of total bytes
// (header included) into dst.
func (c *Codec) PackGroupHeader(dst []byte, total int) error {
	if len(dst) < GroupHeaderSize {
		return fmt.Errorf("group header: %w", errs.ErrShortBuffer)
	}
	if total < GroupHeaderSize {
		return fmt.Errorf("group length %d: %w", total, errs.ErrLengthMismatch)
	}
	if _, err := checkLength(uint64(total)); err != nil {
		return err
	}

	c.engine.PutUint32(dst, uint32(format.ActionGroup))
	c.engine.PutUint32(dst[actionSize:], uint32(total))

	return nil
}

// IsGroup reports whether frame starts with a group envelope header.
func (c *Codec) IsGroup(frame []byte) bool {
	return len(frame) >= GroupHeaderSize && format.Action(c.engine.Uint32(frame)) == format.ActionGroup
}

// Members returns the bytes to merge into an enclosing group for frame: the
// envelope body when frame is itself a group, otherwise frame unchanged.
func (c *Codec) Members(frame []byte) []byte {
	if c.IsGroup(frame) {
		return frame[GroupHeaderSize:]
	}

	return frame
}

// AppendGroup appends one group envelope holding frames to dst.
// Frames that are themselves groups are merged without their own header.
func (c *Codec) AppendGroup(dst []byte, frames ...[]byte) ([]byte, error) {
	total := GroupHeaderSize
	for _, f := range frames {
		total += len(c.Members(f))
	}

	start := len(dst)
	dst = append(dst, make([]byte, GroupHeaderSize)...)
	if err := c.PackGroupHeader(dst[start:], total); err != nil {
		return dst[:start], err
	}

	for _, f := range frames {
		dst = append(dst, c.Members(f)...)
	}

	return dst, nil
}
