// Package smartplot streams numeric samples from a running program to a
// remote plotting front end.
//
// Producers hand samples to a Client, which keeps one circular buffer per
// curve and only sends when enough new samples have piled up, or when asked
// to flush. Each curve has its own lazily dialed connection; messages use a
// compact length-prefixed binary format in host byte order.
//
// # Basic Usage
//
//	client, _ := smartplot.New(smartplot.WithAddress("localhost", 2000))
//	defer client.Close()
//
//	// 1-D curve of 1000 points, sent every 100 new samples
//	client.Plot1D("sensors", "temperature", sample.Of(readings), 1000, 100)
//
//	// X,Y pairs shown as two curves of one plot
//	client.PlotInterleaved("iq", "i", "q", sample.Pairs(iq), 4096, 512)
//
//	// send everything still buffered in one envelope every 50ms
//	_ = client.StartFlushLoop(ctx, 50*time.Millisecond)
//
// # Thresholds
//
// The threshold of a call is the number of new, unsent samples that
// triggers a send. Zero sends whatever is pending, a negative threshold
// never sends automatically. When the backlog reaches the buffer capacity
// the whole buffer is sent again as a create message.
//
// # Grouping
//
// Group collects every message produced inside its callback into one
// envelope written with a single network write:
//
//	_ = client.Group(func(b *smartplot.Batch) {
//	    b.Flush1D("sensors", "temperature")
//	    b.Flush2D("track", "gps")
//	})
//
// # Errors
//
// Producer calls do not return errors. Invalid parameters on first use are
// ignored; send failures are logged and counted. Lower level packages
// (message, transport, capture) return errors built from the errs package.
package smartplot

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/smartplot/curve"
	"github.com/arloliu/smartplot/internal/options"
	"github.com/arloliu/smartplot/internal/registry"
	"github.com/arloliu/smartplot/message"
	"github.com/arloliu/smartplot/metrics"
	"github.com/arloliu/smartplot/transmit"
	"github.com/arloliu/smartplot/transport"
)

const (
	// DefaultHost is the plotter host used when no address is configured.
	DefaultHost = "plotter"
	// DefaultPort is the plotter TCP port used when no address is configured.
	DefaultPort uint16 = 2000
	// DefaultSendTimeout bounds one send, dial included.
	DefaultSendTimeout = 5 * time.Second
)

type kind uint8

const (
	kind1D kind = iota + 1
	kind2D
	kindPair
)

// entry is one registered curve. Both halves of an interleaved pair point to
// the same curve.Pair.
type entry struct {
	key     registry.Key
	kind    kind
	link    *transport.Link
	series1 *curve.Series1D
	series2 *curve.Series2D
	pair    *curve.Pair
	isX     bool
	partner *entry
}

// Client owns the curves of one plotting session.
//
// All methods are safe for concurrent use.
type Client struct {
	mu             sync.Mutex // guards dialer and direct
	dialer         transport.Dialer
	direct         *transport.Link
	closeAfterSend bool
	deferred       bool
	sendTimeout    time.Duration

	codec    *message.Codec
	tx       *transmit.Transmitter
	batcher  *transport.Batcher
	curves   *registry.Registry[*entry]
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder transport.Recorder

	ctx    context.Context //nolint: containedctx
	cancel context.CancelFunc
	loops  sync.WaitGroup
	closed atomic.Bool
}

// New creates a client. Without options curves connect to plotter:2000 over TCP.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		dialer:      transport.TCPDialer{Addr: net.JoinHostPort(DefaultHost, strconv.Itoa(int(DefaultPort)))},
		sendTimeout: DefaultSendTimeout,
		codec:       message.Native(),
		curves:      registry.New[*entry](),
		logger:      slog.Default(),
	}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	c.tx = transmit.New(c.codec)
	c.batcher = transport.NewBatcher(
		transport.WithBatcherLogger(c.logger),
		transport.WithBatcherMetrics(c.metrics),
		transport.WithBatcherCodec(c.codec),
	)
	c.direct = c.newLink("direct", c.dialer)
	c.ctx, c.cancel = context.WithCancel(context.Background())

	return c, nil
}

// Configure sets the plotter address used by curves registered afterwards.
// Existing curves keep their connection target.
func (c *Client) Configure(host string, port uint16) {
	dialer := transport.TCPDialer{Addr: net.JoinHostPort(host, strconv.Itoa(int(port)))}

	c.mu.Lock()
	old := c.direct
	c.dialer = dialer
	c.direct = c.newLink("direct", dialer)
	c.mu.Unlock()

	if err := old.Close(); err != nil {
		c.logger.Debug("close direct link", "error", err)
	}
	c.logger.Info("plotter address configured", "addr", dialer.Addr)
}

// Len returns the number of registered curves; an interleaved pair counts twice.
func (c *Client) Len() int {
	return c.curves.Len()
}

func (c *Client) currentDialer() transport.Dialer {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dialer
}

func (c *Client) directLink() *transport.Link {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.direct
}

func (c *Client) newLink(name string, dialer transport.Dialer) *transport.Link {
	opts := []transport.LinkOption{
		transport.WithName(name),
		transport.WithCloseAfterSend(c.closeAfterSend),
		transport.WithLinkLogger(c.logger),
		transport.WithLinkMetrics(c.metrics),
		transport.WithLinkCodec(c.codec),
	}
	if c.recorder != nil {
		opts = append(opts, transport.WithRecorder(c.recorder))
	}

	return transport.NewLink(dialer, opts...)
}

// submit sends the frames queued in out, inside the group of tok when it is set.
func (c *Client) submit(tok *transport.Token, out *transport.Outbox, key registry.Key) {
	if out.Len() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.sendTimeout)
	defer cancel()

	if err := out.Flush(ctx, c.batcher, tok); err != nil {
		c.logger.Warn("plot send failed", "plot", key.Plot, "curve", key.Curve, "error", err)
	}
}

// producerThreshold applies deferred mode to thresholds of producer calls.
func (c *Client) producerThreshold(threshold int) int {
	if c.deferred {
		return -1
	}

	return threshold
}
