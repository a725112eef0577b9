// Package errs defines the sentinel errors shared by smartplot packages.
//
// Callers compare with errors.Is; lower layers wrap these with context using
// fmt.Errorf("...: %w", err).
package errs

import "errors"

// Codec errors.
var (
	ErrInvalidDataType   = errors.New("invalid data type")
	ErrInvalidAction     = errors.New("invalid plot action")
	ErrShortBuffer       = errors.New("destination buffer too small")
	ErrPayloadSize       = errors.New("payload size does not match sample count")
	ErrTruncated         = errors.New("message truncated")
	ErrLengthMismatch    = errors.New("message length field does not match data")
	ErrMissingTerminator = errors.New("name is not NUL terminated")
	ErrInvalidName       = errors.New("name contains a NUL byte")
	ErrFrameTooLarge     = errors.New("frame exceeds maximum size")
	ErrMessageTooLarge   = errors.New("message exceeds 32-bit length")
)

// Curve store errors.
var (
	ErrInvalidCapacity = errors.New("invalid curve capacity")
	ErrAllocation      = errors.New("curve buffer allocation failed")
	ErrAxisMismatch    = errors.New("x and y sample counts differ")
)

// Registry errors.
var (
	ErrHashCollision = errors.New("curve id hash collision")
	ErrInvalidKey    = errors.New("invalid curve key")
	ErrDuplicateKey  = errors.New("curve key already tracked")
)

// Transport errors.
var (
	ErrSendFailed   = errors.New("plot send failed")
	ErrLinkClosed   = errors.New("link closed")
	ErrNoDialer     = errors.New("no dialer configured")
	ErrStaleToken   = errors.New("group token is not active")
	ErrGroupOpen    = errors.New("group still open")
	ErrUnsupported  = errors.New("operation not supported on this platform")
	ErrClientClosed = errors.New("client closed")
)

// Client errors.
var (
	ErrInvalidInterval = errors.New("flush interval must be positive")
	ErrInvalidAddress  = errors.New("invalid plotter address")
)

// Capture errors.
var (
	ErrInvalidMagic       = errors.New("invalid capture file magic")
	ErrUnsupportedVersion = errors.New("unsupported capture file version")
	ErrChecksum           = errors.New("capture record checksum mismatch")
	ErrInvalidCompression = errors.New("invalid compression type")
)
