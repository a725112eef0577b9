package smartplot

import (
	"context"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/sample"
	"github.com/arloliu/smartplot/transport"
)

// PlotMemory1D sends the samples of y once as a complete 1-D curve, without
// buffering them. y may be a strided view into the caller's own structs.
func (c *Client) PlotMemory1D(plot, curveName string, y sample.Samples) error {
	return c.sendDirect(plot, curveName, func(out *transport.Outbox, link *transport.Link) error {
		return c.tx.Create1D(out.Sink(link), plot, curveName, y.Len(), y)
	})
}

// PlotMemory2D sends x and y once as a complete 2-D curve.
func (c *Client) PlotMemory2D(plot, curveName string, x, y sample.Samples) error {
	return c.sendDirect(plot, curveName, func(out *transport.Outbox, link *transport.Link) error {
		return c.tx.Create2D(out.Sink(link), plot, curveName, y.Len(), x, y)
	})
}

// PlotMemoryInterleaved sends the X,Y pairs of xy once as a complete
// interleaved 2-D curve.
func (c *Client) PlotMemoryInterleaved(plot, curveName string, xy sample.Samples) error {
	return c.sendDirect(plot, curveName, func(out *transport.Outbox, link *transport.Link) error {
		return c.tx.Create2DInterleaved(out.Sink(link), plot, curveName, xy.PairLen(), xy)
	})
}

func (c *Client) sendDirect(plot, curveName string, build func(*transport.Outbox, *transport.Link) error) error {
	if c.closed.Load() {
		return errs.ErrClientClosed
	}

	out := transport.NewOutbox()
	defer out.Release()

	if err := build(out, c.directLink()); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.sendTimeout)
	defer cancel()

	if err := out.Flush(ctx, c.batcher, nil); err != nil {
		c.logger.Warn("memory send failed", "plot", plot, "curve", curveName, "error", err)
		return err
	}

	return nil
}
