// Package metrics exports engine activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/nback/internal/engine"
)

// Block results used as the "result" label.
const (
	ResultComplete = "complete"
	ResultAborted  = "aborted"
)

// Collector turns engine notifications into metrics. Subscribe Observe to
// an engine:
//
//	c := metrics.NewCollector(reg)
//	e.Subscribe(c.Observe)
//
// Thread-safety: safe for concurrent use (the underlying metrics are).
type Collector struct {
	// trials counts scored trials by outcome
	trials *prometheus.CounterVec
	// blocks counts finished blocks by result
	blocks *prometheus.CounterVec
	// pauses counts accepted pause requests
	pauses prometheus.Counter
	// level is the n of the most recently started block
	level prometheus.Gauge
	// accuracy tracks balanced accuracy of completed blocks
	accuracy prometheus.Histogram
}

// NewCollector registers the collector's metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		trials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nback_trials_total",
			Help: "Total scored trials by outcome",
		}, []string{"outcome"}),
		blocks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nback_blocks_total",
			Help: "Total finished blocks by result",
		}, []string{"result"}),
		pauses: factory.NewCounter(prometheus.CounterOpts{
			Name: "nback_pauses_total",
			Help: "Total accepted pause requests",
		}),
		level: factory.NewGauge(prometheus.GaugeOpts{
			Name: "nback_level",
			Help: "n of the most recently started block",
		}),
		accuracy: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nback_block_accuracy",
			Help:    "Balanced accuracy of completed blocks",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10), // 0.1 to 1.0
		}),
	}
}

// Observe records one notification.
func (c *Collector) Observe(ev engine.Event) {
	switch ev.Type {
	case engine.EventBlockStart:
		c.level.Set(float64(ev.BlockStart.N))
	case engine.EventTrialEnd:
		c.trials.WithLabelValues(ev.TrialEnd.Outcome.String()).Inc()
	case engine.EventPaused:
		c.pauses.Inc()
	case engine.EventStopped:
		c.blocks.WithLabelValues(ResultAborted).Inc()
	case engine.EventBlockComplete:
		c.blocks.WithLabelValues(ResultComplete).Inc()
		c.accuracy.Observe(ev.BlockComplete.Results.Accuracy)
	}
}

// Serve exposes gatherer on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
