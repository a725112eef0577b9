// Package metrics exposes Prometheus collectors for the plot client.
//
// A nil *Metrics is valid and records nothing, so components take one
// unconditionally and callers opt in by passing a registerer to New.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smartplot"

// Metrics holds the client's Prometheus collectors.
type Metrics struct {
	framesSent    *prometheus.CounterVec
	bytesSent     prometheus.Counter
	sendFailures  prometheus.Counter
	reconnects    prometheus.Counter
	dials         prometheus.Counter
	groupsSent    prometheus.Counter
	groupFrames   prometheus.Histogram
	decisions     *prometheus.CounterVec
	curves        prometheus.Gauge
	captureFrames prometheus.Counter
}

// New creates the collectors and registers them with reg.
// It returns nil when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "frames_sent_total",
			Help:      "Frames written to the plotting front end by action",
		}, []string{"action"}),

		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "bytes_sent_total",
			Help:      "Bytes written to the plotting front end",
		}),

		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "send_failures_total",
			Help:      "Frames that could not be written after one retry",
		}),

		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "reconnects_total",
			Help:      "Connections re-established after a failed write",
		}),

		dials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "dials_total",
			Help:      "Connection attempts",
		}),

		groupsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "groups_sent_total",
			Help:      "Group envelopes written",
		}),

		groupFrames: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "group_frames",
			Help:      "Frames merged into one group envelope",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}),

		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "flush_decisions_total",
			Help:      "Flush policy decisions that sent data, by decision",
		}, []string{"decision"}),

		curves: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "curves",
			Help:      "Live curves",
		}),

		captureFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "frames_total",
			Help:      "Frames written to the capture file",
		}),
	}

	reg.MustRegister(
		m.framesSent,
		m.bytesSent,
		m.sendFailures,
		m.reconnects,
		m.dials,
		m.groupsSent,
		m.groupFrames,
		m.decisions,
		m.curves,
		m.captureFrames,
	)

	return m
}

// FrameSent records one frame of n bytes written for action.
func (m *Metrics) FrameSent(action string, n int) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(action).Inc()
	m.bytesSent.Add(float64(n))
}

// SendFailed records a frame that was dropped after the retry.
func (m *Metrics) SendFailed() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}

// Dialed records a connection attempt.
func (m *Metrics) Dialed() {
	if m == nil {
		return
	}
	m.dials.Inc()
}

// Reconnected records a redial after a failed write.
func (m *Metrics) Reconnected() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// GroupSent records one group envelope holding frames messages.
func (m *Metrics) GroupSent(frames int) {
	if m == nil {
		return
	}
	m.groupsSent.Inc()
	m.groupFrames.Observe(float64(frames))
}

// Decision records a flush policy decision by name.
func (m *Metrics) Decision(name string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(name).Inc()
}

// CurveAdded increments the live curve gauge.
func (m *Metrics) CurveAdded() {
	if m == nil {
		return
	}
	m.curves.Inc()
}

// CurveRemoved decrements the live curve gauge.
func (m *Metrics) CurveRemoved() {
	if m == nil {
		return
	}
	m.curves.Dec()
}

// CaptureWritten records a frame written to the capture file.
func (m *Metrics) CaptureWritten() {
	if m == nil {
		return
	}
	m.captureFrames.Inc()
}
