// Package capture records the frames a client sends into a compact file and
// reads them back for replay.
//
// A capture file starts with a fixed 16-byte header followed by one record
// per frame. Each record is compressed on its own with the codec named in
// the header and carries an xxHash64 checksum of the original frame.
package capture

import (
	"fmt"

	"github.com/arloliu/smartplot/endian"
	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
)

const (
	// Magic identifies a capture file.
	Magic = "SPLT"
	// Version is the file format version written by this package.
	Version uint16 = 1
	// HeaderSize is the size of the file header.
	HeaderSize = 16
	// RecordHeaderSize is the size of the fixed part of every record.
	RecordHeaderSize = 16

	// byte offsets inside the file header
	versionOffset     = 4
	compressionOffset = 6
	endianOffset      = 7

	endianLittle = 1
	endianBig    = 0
)

// Header is the file header.
type Header struct {
	Version     uint16
	Compression format.CompressionType
	// Little is set when frames and record fields use little-endian order.
	Little bool
}

// Engine returns the byte order of the recorded frames.
func (h Header) Engine() endian.EndianEngine {
	return endian.EngineFor(h.Little)
}

// Bytes serializes the header. The version field uses the header's own byte order.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	copy(b, Magic)
	h.Engine().PutUint16(b[versionOffset:], h.Version)
	b[compressionOffset] = byte(h.Compression)
	if h.Little {
		b[endianOffset] = endianLittle
	} else {
		b[endianOffset] = endianBig
	}

	return b
}

// Parse reads a header from data, which must hold at least HeaderSize bytes.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("capture header: %w", errs.ErrTruncated)
	}
	if string(data[:versionOffset]) != Magic {
		return errs.ErrInvalidMagic
	}

	switch data[endianOffset] {
	case endianLittle:
		h.Little = true
	case endianBig:
		h.Little = false
	default:
		return fmt.Errorf("capture endian flag %d: %w", data[endianOffset], errs.ErrUnsupportedVersion)
	}

	h.Version = h.Engine().Uint16(data[versionOffset:])
	if h.Version != Version {
		return fmt.Errorf("capture version %d: %w", h.Version, errs.ErrUnsupportedVersion)
	}

	h.Compression = format.CompressionType(data[compressionOffset])

	return nil
}
