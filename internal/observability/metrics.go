// Package observability holds the Prometheus collectors shared by the API
// server and the reconciliation core. Collectors are registered with the
// default registry at init and exposed by the server at /metrics.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Path labels for reconciliation outcomes.
const (
	PathRemote = "remote"
	PathLocal  = "local"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitroute",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, labeled by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitroute",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"route", "method"})

	reconcileOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitroute",
		Subsystem: "reconcile",
		Name:      "operations_total",
		Help:      "Route mutations and loads, labeled by operation and whether the remote service or the local fallback handled them.",
	}, []string{"op", "path"})

	cacheWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitroute",
		Subsystem: "cache",
		Name:      "write_failures_total",
		Help:      "Write-through snapshots that could not be stored in the persistent cache.",
	})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, reconcileOps, cacheWriteFailures)
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// RecordReconcile counts one reconciliation outcome. path is PathRemote or PathLocal.
func RecordReconcile(op, path string) {
	reconcileOps.WithLabelValues(op, path).Inc()
}

// RecordCacheWriteFailure counts one failed write-through.
func RecordCacheWriteFailure() {
	cacheWriteFailures.Inc()
}

// ReconcileCount returns the current value of the operations counter for
// op/path. Tests use it to assert on deltas.
func ReconcileCount(op, path string) float64 {
	return counterValue(reconcileOps.WithLabelValues(op, path))
}

// CacheWriteFailures returns the current value of the cache failure counter.
func CacheWriteFailures() float64 {
	return counterValue(cacheWriteFailures)
}
