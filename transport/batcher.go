package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/internal/options"
	"github.com/arloliu/smartplot/internal/pool"
	"github.com/arloliu/smartplot/message"
	"github.com/arloliu/smartplot/metrics"
)

// Token proves that its holder opened the current group. Code running inside
// a group passes the token to Submit; submitting without it would wait for
// the group to end.
type Token struct {
	batcher *Batcher
}

// Batcher coalesces frames into group envelopes.
//
// Between Begin and End every frame submitted with the token is appended to
// one envelope, with nested envelopes merged, and End writes the envelope in
// one send through the link of the first frame. Frames submitted without a
// token go out directly once no group is open, or fail with
// errs.ErrGroupOpen when their context ends first.
type Batcher struct {
	group   chan struct{} // holds one token from Begin to End
	mu      sync.Mutex // guards the fields below
	active  *Token
	buf     *pool.ByteBuffer
	first   *Link
	frames  int
	codec   *message.Codec
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// BatcherOption configures a Batcher.
type BatcherOption = options.Option[*Batcher]

// WithBatcherLogger sets the logger; the default is slog.Default().
func WithBatcherLogger(logger *slog.Logger) BatcherOption {
	return options.NoError(func(b *Batcher) {
		if logger != nil {
			b.logger = logger
		}
	})
}

// WithBatcherMetrics sets the metrics sink.
func WithBatcherMetrics(m *metrics.Metrics) BatcherOption {
	return options.NoError(func(b *Batcher) { b.metrics = m })
}

// WithBatcherCodec sets the codec used for envelope headers.
func WithBatcherCodec(c *message.Codec) BatcherOption {
	return options.NoError(func(b *Batcher) {
		if c != nil {
			b.codec = c
		}
	})
}

// NewBatcher creates a batcher.
func NewBatcher(opts ...BatcherOption) *Batcher {
	b := &Batcher{
		group:  make(chan struct{}, 1),
		codec:  message.Native(),
		logger: slog.Default(),
	}
	_ = options.Apply(b, opts...)

	return b
}

// Begin opens a group, waiting for any group already open to end.
// The caller must call End with the returned token.
func (b *Batcher) Begin() *Token {
	b.group <- struct{}{}

	b.mu.Lock()
	defer b.mu.Unlock()

	tok := &Token{batcher: b}
	b.active = tok
	b.buf = pool.GetEnvelopeBuffer()
	b.buf.ExtendOrGrow(message.GroupHeaderSize)
	b.first = nil
	b.frames = 0

	return tok
}

// Submit sends frame through link.
//
// With the open group's token the frame is appended to the envelope and
// nothing is written. With a nil token Submit waits for any open group to end
// and writes the frame directly; if ctx ends while the group is still open
// the frame is dropped with errs.ErrGroupOpen.
func (b *Batcher) Submit(ctx context.Context, tok *Token, link *Link, frame []byte) error {
	if tok == nil {
		if err := b.wait(ctx); err != nil {
			return err
		}

		return link.Send(ctx, frame)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if tok.batcher != b || tok != b.active {
		return errs.ErrStaleToken
	}

	body := b.codec.Members(frame)
	if len(body) == 0 {
		return nil
	}
	if _, err := b.buf.Write(body); err != nil {
		return err
	}
	if b.first == nil {
		b.first = link
	}
	b.frames++

	return nil
}

// wait blocks until no group is open or ctx is done.
func (b *Batcher) wait(ctx context.Context) error {
	select {
	case b.group <- struct{}{}:
		<-b.group
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errs.ErrGroupOpen, ctx.Err())
	}
}

// Active reports whether tok belongs to the open group.
func (b *Batcher) Active(tok *Token) bool {
	if tok == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return tok.batcher == b && tok == b.active
}

// End closes the group opened with tok and writes its envelope, if any frame
// was submitted, through the first frame's link.
func (b *Batcher) End(ctx context.Context, tok *Token) error {
	b.mu.Lock()
	if tok == nil || tok != b.active {
		b.mu.Unlock()
		return errs.ErrStaleToken
	}

	buf, first, frames := b.buf, b.first, b.frames
	b.active, b.buf, b.first, b.frames = nil, nil, nil, 0
	b.mu.Unlock()

	defer func() { <-b.group }()
	defer pool.PutEnvelopeBuffer(buf)

	if frames == 0 {
		return nil
	}

	envelope := buf.Bytes()
	if err := b.codec.PackGroupHeader(envelope, len(envelope)); err != nil {
		return err
	}

	b.metrics.GroupSent(frames)
	b.logger.Debug("sending group", "frames", frames, "bytes", len(envelope))

	return first.Send(ctx, envelope)
}
