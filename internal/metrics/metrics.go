// Package metrics provides Prometheus instrumentation for the FX engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BundlesIngested counts bundle ingest attempts by outcome.
	BundlesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_bundles_ingested_total",
		Help: "Total bundle ingest attempts",
	}, []string{"outcome"})

	// StoredQuarters tracks the number of base quarters in the store.
	StoredQuarters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fx_stored_quarters",
		Help: "Number of base quarters currently stored",
	})

	// CacheHits counts bundle cache hits.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_bundle_cache_hits_total",
		Help: "Bundle reads served from the Redis cache",
	})

	// CacheMisses counts bundle cache misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_bundle_cache_misses_total",
		Help: "Bundle reads that fell through to the primary store",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fx_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fx_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the request path for the label; the API surface is small
		// and quarter labels are a bounded set, so cardinality stays low.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
