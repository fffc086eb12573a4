package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gmusicfs"

// Collector tracks filesystem operation and streaming metrics on its own
// prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorCounter      *prometheus.CounterVec
	bytesStreamed     prometheus.Counter
	activeStreams     prometheus.Gauge
	catalogTracks     prometheus.Gauge

	server *http.Server
}

// NewCollector creates a collector with all metrics registered.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		operationCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Filesystem operations by type.",
		}, []string{"operation"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Filesystem operation latency by type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errorCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Filesystem operation failures by type.",
		}, []string{"operation"}),
		bytesStreamed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streamed_bytes_total",
			Help:      "Audio and cover bytes delivered to readers.",
		}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Currently open streaming sessions.",
		}),
		catalogTracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_tracks",
			Help:      "Tracks in the aggregated catalog.",
		}),
	}

	registry.MustRegister(
		c.operationCounter,
		c.operationDuration,
		c.errorCounter,
		c.bytesStreamed,
		c.activeStreams,
		c.catalogTracks,
	)
	return c
}

// RecordOperation records one filesystem operation and its outcome.
func (c *Collector) RecordOperation(op string, start time.Time, err error) {
	if c == nil {
		return
	}
	c.operationCounter.WithLabelValues(op).Inc()
	c.operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		c.errorCounter.WithLabelValues(op).Inc()
	}
}

// AddBytesStreamed accounts bytes delivered from an open stream.
func (c *Collector) AddBytesStreamed(n int) {
	if c == nil {
		return
	}
	c.bytesStreamed.Add(float64(n))
}

// StreamOpened bumps the active stream gauge.
func (c *Collector) StreamOpened() {
	if c == nil {
		return
	}
	c.activeStreams.Inc()
}

// StreamClosed drops the active stream gauge.
func (c *Collector) StreamClosed() {
	if c == nil {
		return
	}
	c.activeStreams.Dec()
}

// SetCatalogTracks records the size of the current catalog.
func (c *Collector) SetCatalogTracks(n int) {
	if c == nil {
		return
	}
	c.catalogTracks.Set(float64(n))
}

// Serve exposes /metrics on the given port until Shutdown.
func (c *Collector) Serve(port int) error {
	if c == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	c.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the metrics endpoint.
func (c *Collector) Shutdown(ctx context.Context) error {
	if c == nil || c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}
