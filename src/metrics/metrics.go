package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guestbook_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	// EntriesAppended counts entries successfully written to the store.
	EntriesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guestbook_entries_appended_total",
			Help: "Total number of guestbook entries appended",
		},
	)
	// Rejections counts submissions refused before reaching the store.
	Rejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_rejections_total",
			Help: "Total number of rejected submissions by reason",
		},
		[]string{"reason"},
	)
	// StoreErrors counts store failures by operation.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_store_errors_total",
			Help: "Total number of store read/write failures",
		},
		[]string{"operation"},
	)
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
