package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/internal/options"
	"github.com/arloliu/smartplot/message"
	"github.com/arloliu/smartplot/metrics"
)

// Recorder receives a copy of every frame a link writes successfully.
type Recorder interface {
	Record(frame []byte) error
}

// Link is the connection of one curve.
//
// The connection is dialed on first use. A write that fails on a reused
// connection is retried once on a fresh connection; when that also fails the
// connection is dropped and the next send dials again. With close-after-send
// every frame gets its own connection.
type Link struct {
	mu             sync.Mutex
	name           string
	dialer         Dialer
	conn           Conn
	closeAfterSend bool
	closed         bool
	codec          *message.Codec
	recorder       Recorder
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// LinkOption configures a Link.
type LinkOption = options.Option[*Link]

// WithName labels the link in log records.
func WithName(name string) LinkOption {
	return options.NoError(func(l *Link) { l.name = name })
}

// WithCloseAfterSend closes the connection after every frame.
func WithCloseAfterSend(enabled bool) LinkOption {
	return options.NoError(func(l *Link) { l.closeAfterSend = enabled })
}

// WithRecorder tees written frames to r.
func WithRecorder(r Recorder) LinkOption {
	return options.NoError(func(l *Link) { l.recorder = r })
}

// WithLinkLogger sets the logger; the default is slog.Default().
func WithLinkLogger(logger *slog.Logger) LinkOption {
	return options.NoError(func(l *Link) {
		if logger != nil {
			l.logger = logger
		}
	})
}

// WithLinkMetrics sets the metrics sink.
func WithLinkMetrics(m *metrics.Metrics) LinkOption {
	return options.NoError(func(l *Link) { l.metrics = m })
}

// WithLinkCodec sets the codec used to read frame headers for metrics.
func WithLinkCodec(c *message.Codec) LinkOption {
	return options.NoError(func(l *Link) {
		if c != nil {
			l.codec = c
		}
	})
}

// NewLink creates a link that connects with dialer.
func NewLink(dialer Dialer, opts ...LinkOption) *Link {
	l := &Link{
		dialer: dialer,
		codec:  message.Native(),
		logger: slog.Default(),
	}
	_ = options.Apply(l, opts...)

	return l
}

// Send writes frame, dialing and retrying as needed.
func (l *Link) Send(ctx context.Context, frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errs.ErrLinkClosed
	}
	if l.dialer == nil {
		return errs.ErrNoDialer
	}

	err := l.write(ctx, frame)
	if err != nil {
		l.drop()
		l.metrics.SendFailed()

		return fmt.Errorf("%w: %w", errs.ErrSendFailed, err)
	}

	if action, _, perr := l.codec.PeekHeader(frame); perr == nil {
		l.metrics.FrameSent(action.String(), len(frame))
	}

	if l.recorder != nil {
		if rerr := l.recorder.Record(frame); rerr != nil {
			l.logger.Warn("capture failed", "link", l.name, "error", rerr)
		}
	}

	if l.closeAfterSend {
		l.drop()
	}

	return nil
}

func (l *Link) write(ctx context.Context, frame []byte) error {
	fresh := l.conn == nil
	if fresh {
		if err := l.dial(ctx); err != nil {
			return err
		}
	}

	err := l.conn.WriteFrame(ctx, frame)
	if err == nil || fresh {
		return err
	}

	l.logger.Debug("write failed, reconnecting", "link", l.name, "error", err)
	l.drop()
	l.metrics.Reconnected()

	if err := l.dial(ctx); err != nil {
		return err
	}

	return l.conn.WriteFrame(ctx, frame)
}

func (l *Link) dial(ctx context.Context) error {
	l.metrics.Dialed()

	conn, err := l.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	l.conn = conn

	return nil
}

func (l *Link) drop() {
	if l.conn == nil {
		return
	}
	if err := l.conn.Close(); err != nil {
		l.logger.Debug("close failed", "link", l.name, "error", err)
	}
	l.conn = nil
}

// Connected reports whether the link currently holds an open connection.
func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.conn != nil
}

// Close closes the connection and rejects further sends. It waits for an
// in-flight send to finish.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if l.conn == nil {
		return nil
	}

	err := l.conn.Close()
	l.conn = nil

	return err
}
