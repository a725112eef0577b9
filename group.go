package smartplot

import (
	"context"

	"github.com/arloliu/smartplot/sample"
	"github.com/arloliu/smartplot/transport"
)

// Batch submits into an open group. It is only valid inside the callback
// passed to Client.Group.
type Batch struct {
	c   *Client
	tok *transport.Token
}

// Group runs fn with a batch whose messages are written as one envelope when
// fn returns. Other goroutines that send while the group is open wait for it
// to end, up to the send timeout.
//
// fn must use b rather than the client. A direct client call inside fn
// waits for the group it is part of until the send timeout expires, and its
// frames are then dropped with a warning.
func (c *Client) Group(fn func(b *Batch)) error {
	tok := c.batcher.Begin()
	fn(&Batch{c: c, tok: tok})

	ctx, cancel := context.WithTimeout(c.ctx, c.sendTimeout)
	defer cancel()

	return c.batcher.End(ctx, tok)
}

// Plot1D is Client.Plot1D inside the group.
func (b *Batch) Plot1D(plot, curveName string, y sample.Samples, capacity, threshold int) {
	b.c.plot1D(b.tok, plot, curveName, y, capacity, b.c.producerThreshold(threshold))
}

// Plot2D is Client.Plot2D inside the group.
func (b *Batch) Plot2D(plot, curveName string, x, y sample.Samples, capacity, threshold int) {
	b.c.plot2D(b.tok, plot, curveName, x, y, capacity, b.c.producerThreshold(threshold))
}

// PlotInterleaved is Client.PlotInterleaved inside the group.
func (b *Batch) PlotInterleaved(plot, curveX, curveY string, xy sample.Samples, capacity, threshold int) {
	b.c.plotPair(b.tok, plot, curveX, curveY, xy, capacity, b.c.producerThreshold(threshold))
}

// Flush1D is Client.Flush1D inside the group.
func (b *Batch) Flush1D(plot, curveName string) {
	b.c.plot1D(b.tok, plot, curveName, sample.Samples{}, 0, 0)
}

// Flush2D is Client.Flush2D inside the group.
func (b *Batch) Flush2D(plot, curveName string) {
	b.c.plot2D(b.tok, plot, curveName, sample.Samples{}, sample.Samples{}, 0, 0)
}

// FlushInterleaved is Client.FlushInterleaved inside the group.
func (b *Batch) FlushInterleaved(plot, curveX, curveY string) {
	b.c.plotPair(b.tok, plot, curveX, curveY, sample.Samples{}, 0, 0)
}

// FlushAll flushes every curve into the group.
func (b *Batch) FlushAll() {
	b.c.flushAll(b.tok)
}
