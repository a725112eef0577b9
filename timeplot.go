package smartplot

import (
	"github.com/arloliu/smartplot/format"
	"github.com/arloliu/smartplot/sample"
)

// Time curves record monotonic timestamps, one per TimeMark, so the plotter
// can show when events happened.

// TimeInit registers a time curve of capacity timestamps without sending.
func (c *Client) TimeInit(plot, curveName string, capacity int) {
	c.plot1D(nil, plot, curveName, sample.Samples{Type: format.TypeTime128}, capacity, -1)
}

// TimeMark appends the current monotonic time to a time curve.
func (c *Client) TimeMark(plot, curveName string, threshold int) {
	now := []sample.Time128{sample.Now128()}
	c.plot1D(nil, plot, curveName, sample.Of(now), 0, c.producerThreshold(threshold))
}

// TimeUpdate applies threshold to the timestamps already recorded without
// adding one.
func (c *Client) TimeUpdate(plot, curveName string, threshold int) {
	c.plot1D(nil, plot, curveName, sample.Samples{}, 0, c.producerThreshold(threshold))
}

// TimeFlush sends every unsent timestamp of a time curve.
func (c *Client) TimeFlush(plot, curveName string) {
	c.Flush1D(plot, curveName)
}
