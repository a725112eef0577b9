package smartplot

import (
	"context"

	"github.com/arloliu/smartplot/curve"
	"github.com/arloliu/smartplot/format"
	"github.com/arloliu/smartplot/internal/registry"
	"github.com/arloliu/smartplot/sample"
	"github.com/arloliu/smartplot/transport"
)

// Plot1D appends y to the 1-D curve plot/curveName.
//
// The first call for a curve registers it with capacity samples of y's type;
// a capacity of zero or less, or an invalid type, makes that first call a
// no-op. Later calls with a different positive capacity reallocate the
// buffer and discard its content. threshold is the number of unsent samples
// that triggers a send.
func (c *Client) Plot1D(plot, curveName string, y sample.Samples, capacity, threshold int) {
	c.plot1D(nil, plot, curveName, y, capacity, c.producerThreshold(threshold))
}

// Plot2D appends X,Y samples held in separate slices to the 2-D curve
// plot/curveName. x and y must hold the same number of samples.
func (c *Client) Plot2D(plot, curveName string, x, y sample.Samples, capacity, threshold int) {
	c.plot2D(nil, plot, curveName, x, y, capacity, c.producerThreshold(threshold))
}

// PlotInterleaved appends X,Y pairs to the interleaved pair curveX/curveY.
// Both halves share one buffer and are always sent for the same window.
func (c *Client) PlotInterleaved(plot, curveX, curveY string, xy sample.Samples, capacity, threshold int) {
	c.plotPair(nil, plot, curveX, curveY, xy, capacity, c.producerThreshold(threshold))
}

// Flush1D sends every unsent sample of a 1-D curve.
func (c *Client) Flush1D(plot, curveName string) {
	c.plot1D(nil, plot, curveName, sample.Samples{}, 0, 0)
}

// Flush2D sends every unsent sample of a 2-D curve.
func (c *Client) Flush2D(plot, curveName string) {
	c.plot2D(nil, plot, curveName, sample.Samples{}, sample.Samples{}, 0, 0)
}

// FlushInterleaved sends every unsent pair of an interleaved pair.
func (c *Client) FlushInterleaved(plot, curveX, curveY string) {
	c.plotPair(nil, plot, curveX, curveY, sample.Samples{}, 0, 0)
}

// FlushAll flushes every curve into one envelope.
func (c *Client) FlushAll() {
	tok := c.batcher.Begin()
	c.flushAll(tok)

	ctx, cancel := context.WithTimeout(c.ctx, c.sendTimeout)
	defer cancel()

	if err := c.batcher.End(ctx, tok); err != nil {
		c.logger.Warn("flush all failed", "curves", c.curves.Len(), "error", err)
	}
}

func (c *Client) plot1D(tok *transport.Token, plot, curveName string, y sample.Samples, capacity, threshold int) {
	e, ok := c.lookup1D(registry.Key{Plot: plot, Curve: curveName}, y.Type, capacity)
	if !ok {
		return
	}

	out := transport.NewOutbox()
	defer out.Release()

	d, err := e.series1.Append(out.Sink(e.link), y, capacity, threshold)
	c.record(e.key, d, err)
	c.submit(tok, out, e.key)
}

func (c *Client) plot2D(tok *transport.Token, plot, curveName string, x, y sample.Samples, capacity, threshold int) {
	e, ok := c.lookup2D(registry.Key{Plot: plot, Curve: curveName}, x.Type, y.Type, capacity)
	if !ok {
		return
	}

	out := transport.NewOutbox()
	defer out.Release()

	d, err := e.series2.Append(out.Sink(e.link), x, y, capacity, threshold)
	c.record(e.key, d, err)
	c.submit(tok, out, e.key)
}

func (c *Client) plotPair(tok *transport.Token, plot, curveX, curveY string, xy sample.Samples, capacity, threshold int) {
	ex, ey, ok := c.lookupPair(registry.Key{Plot: plot, Curve: curveX}, registry.Key{Plot: plot, Curve: curveY}, xy.Type, capacity)
	if !ok {
		return
	}

	c.appendPair(tok, ex, ey, xy, capacity, threshold)
}

func (c *Client) appendPair(tok *transport.Token, ex, ey *entry, xy sample.Samples, capacity, threshold int) {
	out := transport.NewOutbox()
	defer out.Release()

	d, err := ex.pair.Append(out.Sink(ex.link), out.Sink(ey.link), xy, capacity, threshold)
	c.record(ex.key, d, err)
	c.submit(tok, out, ex.key)
}

// flushAll flushes every registered curve in registry order inside the group of tok.
func (c *Client) flushAll(tok *transport.Token) {
	for _, e := range c.curves.Snapshot() {
		switch e.kind {
		case kind1D:
			c.plot1D(tok, e.key.Plot, e.key.Curve, sample.Samples{}, 0, 0)
		case kind2D:
			c.plot2D(tok, e.key.Plot, e.key.Curve, sample.Samples{}, sample.Samples{}, 0, 0)
		case kindPair:
			liveX, _ := e.pair.Live()
			switch {
			case e.isX:
				c.appendPair(tok, e, e.partner, sample.Samples{}, 0, 0)
			case !liveX:
				// X was deallocated on its own; the Y half still flushes.
				c.appendPair(tok, e, e, sample.Samples{}, 0, 0)
			}
		}
	}
}

func (c *Client) record(key registry.Key, d curve.Decision, err error) {
	if err != nil {
		c.logger.Warn("plot append failed", "plot", key.Plot, "curve", key.Curve, "error", err)
		return
	}
	if d != curve.None {
		c.metrics.Decision(d.String())
	}
}

func (c *Client) lookup1D(key registry.Key, typ format.DataType, capacity int) (*entry, bool) {
	if c.closed.Load() {
		return nil, false
	}

	e, created, ok := c.curves.FindOrCreate(key, func() (*entry, bool) {
		if capacity <= 0 || !typ.IsValid() {
			return nil, false
		}
		s, err := curve.NewSeries1D(c.tx, key.Plot, key.Curve, typ, capacity)
		if err != nil {
			c.logger.Warn("curve allocation failed", "plot", key.Plot, "curve", key.Curve, "error", err)
			return nil, false
		}

		return &entry{key: key, kind: kind1D, series1: s, link: c.newLink(key.String(), c.currentDialer())}, true
	})

	return c.checkKind(key, e, created, ok, kind1D, typ.String(), capacity)
}

func (c *Client) lookup2D(key registry.Key, xType, yType format.DataType, capacity int) (*entry, bool) {
	if c.closed.Load() {
		return nil, false
	}

	e, created, ok := c.curves.FindOrCreate(key, func() (*entry, bool) {
		if capacity <= 0 || !xType.IsValid() || !yType.IsValid() {
			return nil, false
		}
		s, err := curve.NewSeries2D(c.tx, key.Plot, key.Curve, xType, yType, capacity)
		if err != nil {
			c.logger.Warn("curve allocation failed", "plot", key.Plot, "curve", key.Curve, "error", err)
			return nil, false
		}

		return &entry{key: key, kind: kind2D, series2: s, link: c.newLink(key.String(), c.currentDialer())}, true
	})

	return c.checkKind(key, e, created, ok, kind2D, xType.String()+","+yType.String(), capacity)
}

func (c *Client) lookupPair(kx, ky registry.Key, typ format.DataType, capacity int) (*entry, *entry, bool) {
	if c.closed.Load() {
		return nil, nil, false
	}

	ex, ey, created, ok := c.curves.FindOrCreatePair(kx, ky, func() (*entry, *entry, bool) {
		if capacity <= 0 || !typ.IsValid() {
			return nil, nil, false
		}
		p, err := curve.NewPair(c.tx, kx.Plot, kx.Curve, ky.Curve, typ, capacity)
		if err != nil {
			c.logger.Warn("curve allocation failed", "plot", kx.Plot, "curve", kx.Curve, "error", err)
			return nil, nil, false
		}

		dialer := c.currentDialer()
		x := &entry{key: kx, kind: kindPair, pair: p, isX: true, link: c.newLink(kx.String(), dialer)}
		y := &entry{key: ky, kind: kindPair, pair: p, link: c.newLink(ky.String(), dialer)}
		x.partner, y.partner = y, x

		return x, y, true
	})
	if !ok {
		c.logger.Debug("interleaved pair not registered", "plot", kx.Plot, "x", kx.Curve, "y", ky.Curve)
		return nil, nil, false
	}
	if ex.kind != kindPair || ey.kind != kindPair || ex.pair != ey.pair || !ex.isX {
		c.logger.Debug("curves are not an interleaved pair", "plot", kx.Plot, "x", kx.Curve, "y", ky.Curve)
		return nil, nil, false
	}
	if created {
		c.metrics.CurveAdded()
		c.metrics.CurveAdded()
		c.logger.Debug("interleaved pair registered", "plot", kx.Plot, "x", kx.Curve, "y", ky.Curve,
			"type", typ, "capacity", capacity)
	}

	return ex, ey, true
}

func (c *Client) checkKind(key registry.Key, e *entry, created, ok bool, want kind, types string, capacity int) (*entry, bool) {
	if !ok {
		c.logger.Debug("curve not registered", "plot", key.Plot, "curve", key.Curve, "type", types, "capacity", capacity)
		return nil, false
	}
	if e.kind != want {
		c.logger.Debug("curve registered with another shape", "plot", key.Plot, "curve", key.Curve)
		return nil, false
	}
	if created {
		c.metrics.CurveAdded()
		c.logger.Debug("curve registered", "plot", key.Plot, "curve", key.Curve, "type", types, "capacity", capacity)
	}

	return e, true
}
