package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/arloliu/smartplot/compress"
	"github.com/arloliu/smartplot/endian"
	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/internal/hash"
	"github.com/arloliu/smartplot/message"
)

// Reader iterates the frames of a capture file.
type Reader struct {
	in      *bufio.Reader
	header  Header
	codec   compress.Codec
	engine  endian.EndianEngine
	maxSize int
}

// NewReader reads and validates the file header from r.
func NewReader(r io.Reader) (*Reader, error) {
	in := bufio.NewReader(r)

	var raw [HeaderSize]byte
	if _, err := io.ReadFull(in, raw[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("capture header: %w", errs.ErrTruncated)
		}

		return nil, err
	}

	var hdr Header
	if err := hdr.Parse(raw[:]); err != nil {
		return nil, err
	}

	codec, err := compress.CreateCodec(hdr.Compression, "capture")
	if err != nil {
		return nil, err
	}

	return &Reader{
		in:      in,
		header:  hdr,
		codec:   codec,
		engine:  hdr.Engine(),
		maxSize: message.DefaultMaxFrameSize,
	}, nil
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Codec returns a message codec for the byte order the frames were recorded in.
func (r *Reader) Codec() *message.Codec {
	return message.NewCodec(r.engine)
}

// Next returns the next frame, or io.EOF after the last complete record.
func (r *Reader) Next() ([]byte, error) {
	var rec [RecordHeaderSize]byte
	if _, err := io.ReadFull(r.in, rec[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("capture record: %w", errs.ErrTruncated)
		}

		return nil, err
	}

	rawLen := r.engine.Uint32(rec[0:])
	storedLen := r.engine.Uint32(rec[4:])
	sum := r.engine.Uint64(rec[8:])

	if uint64(rawLen) > uint64(r.maxSize) || uint64(storedLen) > uint64(r.maxSize) {
		return nil, fmt.Errorf("capture record of %d bytes: %w", max(rawLen, storedLen), errs.ErrFrameTooLarge)
	}

	stored := make([]byte, storedLen)
	if _, err := io.ReadFull(r.in, stored); err != nil {
		return nil, fmt.Errorf("capture record body: %w", errs.ErrTruncated)
	}

	frame, err := r.codec.Decompress(stored)
	if err != nil {
		return nil, fmt.Errorf("decompress capture record: %w", err)
	}
	if len(frame) != int(rawLen) {
		return nil, fmt.Errorf("capture record length %d, want %d: %w", len(frame), rawLen, errs.ErrLengthMismatch)
	}
	if hash.Checksum(frame) != sum {
		return nil, errs.ErrChecksum
	}

	return frame, nil
}

// Frames iterates the remaining frames. Iteration stops after the first error.
func (r *Reader) Frames() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			frame, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(frame, err) || err != nil {
				return
			}
		}
	}
}
