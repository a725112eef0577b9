package smartplot

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/internal/options"
	"github.com/arloliu/smartplot/message"
	"github.com/arloliu/smartplot/metrics"
	"github.com/arloliu/smartplot/transport"
)

// Option configures a Client.
type Option = options.Option[*Client]

// WithAddress connects curves to host:port over TCP.
func WithAddress(host string, port uint16) Option {
	return options.New(func(c *Client) error {
		if host == "" || port == 0 {
			return fmt.Errorf("%q port %d: %w", host, port, errs.ErrInvalidAddress)
		}
		c.dialer = transport.TCPDialer{Addr: net.JoinHostPort(host, strconv.Itoa(int(port)))}

		return nil
	})
}

// WithDialer replaces the TCP dialer, for example with a transport.WebSocketDialer.
func WithDialer(d transport.Dialer) Option {
	return options.New(func(c *Client) error {
		if d == nil {
			return errs.ErrNoDialer
		}
		c.dialer = d

		return nil
	})
}

// WithCloseAfterSend opens a new connection for every message.
func WithCloseAfterSend(enabled bool) Option {
	return options.NoError(func(c *Client) { c.closeAfterSend = enabled })
}

// WithDeferredSends stops producer calls from sending. Samples are only
// sent by explicit flushes and the flush loop, which keeps network writes
// off the producing goroutines.
func WithDeferredSends(enabled bool) Option {
	return options.NoError(func(c *Client) { c.deferred = enabled })
}

// WithSendTimeout bounds each send, connection setup included.
func WithSendTimeout(d time.Duration) Option {
	return options.NoError(func(c *Client) {
		if d > 0 {
			c.sendTimeout = d
		}
	})
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithMetrics reports client activity to m.
func WithMetrics(m *metrics.Metrics) Option {
	return options.NoError(func(c *Client) { c.metrics = m })
}

// WithRecorder tees every frame written by the client to r, typically a
// *capture.Writer.
func WithRecorder(r transport.Recorder) Option {
	return options.NoError(func(c *Client) { c.recorder = r })
}

// WithCodec sets the wire codec; the default writes host byte order.
func WithCodec(codec *message.Codec) Option {
	return options.NoError(func(c *Client) {
		if codec != nil {
			c.codec = codec
		}
	})
}
