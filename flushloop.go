package smartplot

import (
	"context"
	"runtime"
	"time"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/internal/options"
)

// Scheduling policies accepted by WithSchedPolicy, numbered as on Linux.
const (
	SchedOther = 0
	SchedFIFO  = 1
	SchedRR    = 2
)

type flushLoop struct {
	policy    int
	priority  int
	schedHint bool
}

// FlushLoopOption configures a flush loop.
type FlushLoopOption = options.Option[*flushLoop]

// WithSchedPolicy runs the loop on a dedicated OS thread with the given
// scheduling policy and priority. Failing to apply them is logged and the
// loop keeps running with the default policy.
func WithSchedPolicy(policy, priority int) FlushLoopOption {
	return options.NoError(func(l *flushLoop) {
		l.policy, l.priority, l.schedHint = policy, priority, true
	})
}

// StartFlushLoop flushes every curve into one envelope each interval until ctx
// is cancelled or the client is closed. Each call starts an independent loop.
func (c *Client) StartFlushLoop(ctx context.Context, interval time.Duration, opts ...FlushLoopOption) error {
	if interval <= 0 {
		return errs.ErrInvalidInterval
	}

	cfg := &flushLoop{}
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return errs.ErrClientClosed
	}

	c.loops.Add(1)
	go c.runFlushLoop(ctx, interval, cfg)

	return nil
}

func (c *Client) runFlushLoop(ctx context.Context, interval time.Duration, cfg *flushLoop) {
	defer c.loops.Done()

	if cfg.schedHint {
		// never unlocked: the thread carries the policy and exits with the loop
		runtime.LockOSThread()

		if err := setSchedPolicy(cfg.policy, cfg.priority); err != nil {
			c.logger.Warn("flush loop scheduling policy not applied",
				"policy", cfg.policy, "priority", cfg.priority, "error", err)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Debug("flush loop started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.FlushAll()
		}
	}
}
