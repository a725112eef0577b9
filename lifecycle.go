package smartplot

import (
	"errors"

	"github.com/arloliu/smartplot/internal/registry"
)

// Deallocate removes one curve and closes its connection, waiting for a send
// in progress. For one half of an interleaved pair the shared buffer is kept
// until the other half is removed too.
func (c *Client) Deallocate(plot, curveName string) {
	key := registry.Key{Plot: plot, Curve: curveName}

	e, ok := c.curves.Remove(key)
	if !ok {
		return
	}
	c.release(e)
}

// DeallocateInterleaved removes both halves of an interleaved pair.
func (c *Client) DeallocateInterleaved(plot, curveX, curveY string) {
	c.Deallocate(plot, curveX)
	c.Deallocate(plot, curveY)
}

func (c *Client) release(e *entry) error {
	if e.kind == kindPair && e.pair.Release(e.isX) {
		c.logger.Debug("interleaved pair released", "plot", e.key.Plot, "curve", e.key.Curve)
	}
	c.metrics.CurveRemoved()

	err := e.link.Close()
	if err != nil {
		c.logger.Debug("close curve link", "plot", e.key.Plot, "curve", e.key.Curve, "error", err)
	}

	return err
}

// Close stops the flush loops, removes every curve and closes all
// connections. The client ignores calls made after Close.
func (c *Client) Close() error {
	c.mu.Lock()
	already := c.closed.Swap(true)
	c.mu.Unlock()

	if already {
		return nil
	}

	c.cancel()
	c.loops.Wait()

	var errList []error
	for key := range c.curves.All() {
		if e, ok := c.curves.Remove(key); ok {
			if err := c.release(e); err != nil {
				errList = append(errList, err)
			}
		}
	}

	if err := c.directLink().Close(); err != nil {
		errList = append(errList, err)
	}

	return errors.Join(errList...)
}
