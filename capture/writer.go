package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/arloliu/smartplot/compress"
	"github.com/arloliu/smartplot/endian"
	"github.com/arloliu/smartplot/format"
	"github.com/arloliu/smartplot/internal/hash"
	"github.com/arloliu/smartplot/internal/options"
	"github.com/arloliu/smartplot/metrics"
)

// Writer appends frames to a capture file. It is safe for concurrent use and
// satisfies the recorder hook of transport.Link.
type Writer struct {
	mu          sync.Mutex
	out         *bufio.Writer
	closer      io.Closer
	compression format.CompressionType
	codec       compress.Codec
	engine      endian.EndianEngine
	metrics     *metrics.Metrics
	closed      bool
	scratch     [RecordHeaderSize]byte
}

// Option configures a Writer.
type Option = options.Option[*Writer]

// WithCompression selects the record codec. The default is S2.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(w *Writer) error {
		codec, err := compress.CreateCodec(c, "capture")
		if err != nil {
			return err
		}
		w.compression, w.codec = c, codec

		return nil
	})
}

// WithMetrics counts recorded frames.
func WithMetrics(m *metrics.Metrics) Option {
	return options.NoError(func(w *Writer) { w.metrics = m })
}

// NewWriter writes a file header to w and returns a writer for its records.
// When w is an io.Closer, Close closes it.
func NewWriter(w io.Writer, opts ...Option) (*Writer, error) {
	cw := &Writer{
		out:         bufio.NewWriter(w),
		compression: format.CompressionS2,
		codec:       compress.NewS2Compressor(),
		engine:      endian.GetNativeEngine(),
	}
	if err := options.Apply(cw, opts...); err != nil {
		return nil, err
	}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}

	hdr := Header{
		Version:     Version,
		Compression: cw.compression,
		Little:      endian.IsLittle(cw.engine),
	}
	if _, err := cw.out.Write(hdr.Bytes()); err != nil {
		return nil, fmt.Errorf("write capture header: %w", err)
	}

	return cw, nil
}

// Create creates the file at path and returns a writer that owns it.
func Create(path string, opts ...Option) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w, err := NewWriter(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return w, nil
}

// Record appends one frame.
func (w *Writer) Record(frame []byte) error {
	stored, err := w.codec.Compress(frame)
	if err != nil {
		return fmt.Errorf("compress capture record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}

	w.engine.PutUint32(w.scratch[0:], uint32(len(frame)))
	w.engine.PutUint32(w.scratch[4:], uint32(len(stored)))
	w.engine.PutUint64(w.scratch[8:], hash.Checksum(frame))

	if _, err := w.out.Write(w.scratch[:]); err != nil {
		return err
	}
	if _, err := w.out.Write(stored); err != nil {
		return err
	}

	w.metrics.CaptureWritten()

	return nil
}

// Flush writes buffered records to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.out.Flush()
}

// Close flushes buffered records and closes the underlying writer when it
// is an io.Closer. Further records fail with os.ErrClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	err := w.out.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}

	return err
}
