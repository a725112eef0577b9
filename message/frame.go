package message

import (
	"fmt"
	"io"

	"github.com/arloliu/smartplot/errs"
)

// DefaultMaxFrameSize bounds frames read from a stream.
const DefaultMaxFrameSize = 64 << 20

// ReadFrame reads one length-prefixed plot message from r.
//
// The returned frame includes its header and is newly allocated. maxSize
// limits the accepted length; a non-positive value selects DefaultMaxFrameSize.
// Returns io.EOF when r is exhausted cleanly between frames.
func (c *Codec) ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	_, length, err := c.PeekHeader(hdr[:])
	if err != nil {
		return nil, err
	}
	if length < HeaderSize {
		return nil, fmt.Errorf("frame length %d: %w", length, errs.ErrLengthMismatch)
	}
	if uint64(length) > uint64(maxSize) {
		return nil, fmt.Errorf("frame length %d > %d: %w", length, maxSize, errs.ErrFrameTooLarge)
	}

	frame := make([]byte, length)
	copy(frame, hdr[:])
	if _, err := io.ReadFull(r, frame[HeaderSize:]); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}

	return frame, nil
}
