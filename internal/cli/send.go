package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/arloliu/smartplot"
	"github.com/arloliu/smartplot/capture"
	"github.com/arloliu/smartplot/metrics"
	"github.com/arloliu/smartplot/sample"
)

// Demo curve names.
const (
	demoPlot  = "demo"
	iqPlot    = "iq"
	timePlot  = "timing"
	sineCurve = "sine"
	figCurve  = "lissajous"
	iCurve    = "i"
	qCurve    = "q"
	tickCurve = "tick"
)

type sendOptions struct {
	addr        string
	capacity    int
	threshold   int
	interval    time.Duration
	duration    time.Duration
	rate        int
	deferred    bool
	record      string
	metricsAddr string
}

func newSendCommand(a *app) *cobra.Command {
	opts := sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Stream demo curves to a plotter",
		Long: `send generates a sine wave, a Lissajous figure, an interleaved I/Q pair
and a time curve, and streams them to the configured plotter until
interrupted or until --duration elapses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applySendFlags(cmd, a.cfg, &opts)
			return runSend(cmd.Context(), a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "plotter host:port or ws:// URL")
	cmd.Flags().IntVar(&opts.capacity, "capacity", 0, "samples kept per curve")
	cmd.Flags().IntVar(&opts.threshold, "threshold", 0, "unsent samples that trigger a send; negative defers to the flush loop")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "flush loop interval")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "stop after this long; zero runs until interrupted")
	cmd.Flags().IntVar(&opts.rate, "rate", 100, "samples per second per curve")
	cmd.Flags().BoolVar(&opts.deferred, "deferred", false, "only send from the flush loop")
	cmd.Flags().StringVar(&opts.record, "record", "", "capture file to tee sent frames to")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// applySendFlags fills options the user did not set from cfg.
func applySendFlags(cmd *cobra.Command, cfg *Config, opts *sendOptions) {
	flags := cmd.Flags()
	if !flags.Changed("addr") {
		opts.addr = cfg.Addr
	}
	if !flags.Changed("capacity") {
		opts.capacity = cfg.Capacity
	}
	if !flags.Changed("threshold") {
		opts.threshold = cfg.Threshold
	}
	if !flags.Changed("interval") {
		opts.interval = cfg.Interval
	}
	if !flags.Changed("metrics-addr") {
		opts.metricsAddr = cfg.MetricsAddr
	}
}

func runSend(ctx context.Context, a *app, opts sendOptions) error {
	if opts.rate <= 0 {
		return fmt.Errorf("rate %d must be positive", opts.rate)
	}
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	target := *a.cfg
	target.Addr = opts.addr

	clientOpts := []smartplot.Option{
		smartplot.WithDialer(target.Dialer()),
		smartplot.WithLogger(a.logger),
		smartplot.WithSendTimeout(a.cfg.SendTimeout),
		smartplot.WithCloseAfterSend(a.cfg.CloseAfterSend),
		smartplot.WithDeferredSends(opts.deferred),
	}

	var reg *prometheus.Registry
	if opts.metricsAddr != "" {
		reg = prometheus.NewRegistry()
		clientOpts = append(clientOpts, smartplot.WithMetrics(metrics.New(reg)))
	}

	if opts.record != "" {
		ct, err := a.cfg.CompressionType()
		if err != nil {
			return err
		}
		w, err := capture.Create(opts.record, capture.WithCompression(ct))
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				a.logger.Error("close capture", "path", opts.record, "error", err)
			}
		}()
		clientOpts = append(clientOpts, smartplot.WithRecorder(w))
	}

	client, err := smartplot.New(clientOpts...)
	if err != nil {
		return err
	}
	defer client.Close()

	if reg != nil {
		stop := serveMetrics(a, opts.metricsAddr, reg)
		defer stop()
	}

	if err := client.StartFlushLoop(ctx, opts.interval); err != nil {
		return err
	}

	a.logger.Info("streaming demo curves", "addr", opts.addr, "capacity", opts.capacity,
		"threshold", opts.threshold, "rate", opts.rate)

	gen := demo{client: client, capacity: opts.capacity, threshold: opts.threshold}
	gen.init()

	limiter := rate.NewLimiter(rate.Limit(opts.rate), 1)
	start := time.Now()
	for {
		if err := limiter.Wait(ctx); err != nil {
			// Wait fails early when the next token is past the deadline
			client.FlushAll()
			a.logger.Info("demo stopped", "samples", gen.n, "curves", client.Len())

			return nil
		}
		gen.step(time.Since(start).Seconds())
	}
}

// demo produces one sample per curve per step.
type demo struct {
	client    *smartplot.Client
	capacity  int
	threshold int
	n         int
}

func (d *demo) init() {
	d.client.TimeInit(timePlot, tickCurve, d.capacity)
}

func (d *demo) step(t float64) {
	d.n++

	sine := float32(math.Sin(2 * math.Pi * t))
	d.client.Plot1D(demoPlot, sineCurve, sample.Of([]float32{sine}), d.capacity, d.threshold)

	x := []float64{math.Sin(3 * t)}
	y := []float64{math.Cos(2 * t)}
	d.client.Plot2D(demoPlot, figCurve, sample.Of(x), sample.Of(y), d.capacity, d.threshold)

	iq := [][2]float32{{float32(math.Cos(5 * t)), float32(math.Sin(5 * t))}}
	d.client.PlotInterleaved(iqPlot, iCurve, qCurve, sample.Pairs(iq), d.capacity, d.threshold)

	d.client.TimeMark(timePlot, tickCurve, d.threshold)
}

func serveMetrics(a *app, addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server", "addr", addr, "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
