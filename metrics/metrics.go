// Package metrics holds the Prometheus collectors of the analytics API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event kinds used as label values.
const (
	KindPageView   = "page_view"
	KindScan       = "scan"
	KindEngagement = "engagement"
	KindSubmission = "submission"
)

var (
	// Capture
	EventsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_captured_total",
			Help: "Events accepted for persistence",
		},
		[]string{"kind"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_dropped_total",
			Help: "Events dropped because the capture buffer was full",
		},
		[]string{"kind"},
	)

	EventWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_event_write_errors_total",
			Help: "Failed event store writes",
		},
		[]string{"kind"},
	)

	CaptureBufferDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analytics_capture_buffer_depth",
			Help: "Events waiting in the capture buffer",
		},
	)

	// Store reads
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_query_duration_seconds",
			Help:    "Duration of raw store reads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	QueryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_query_failures_total",
			Help: "Raw store reads that failed and were answered with an empty result",
		},
		[]string{"query"},
	)

	// Geolocation
	GeoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_geo_lookups_total",
			Help: "Geolocation lookups by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordQuery observes one store read.
func RecordQuery(query string, duration time.Duration, err error) {
	QueryDuration.WithLabelValues(query).Observe(duration.Seconds())
	if err != nil {
		QueryFailures.WithLabelValues(query).Inc()
	}
}

// RecordGeoLookup counts one lookup; outcome is "hit", "miss" or "error".
func RecordGeoLookup(source, outcome string) {
	GeoLookups.WithLabelValues(source, outcome).Inc()
}
