// Package metrics provides Prometheus metrics for the reference-data
// providers and the HTTP surface:
//   - chemref_fetch_attempts_total: download outcomes per source
//   - chemref_cache_hits_total / chemref_cache_misses_total: stash usage
//   - chemref_stale_serves_total: degraded serves from an expired stash
//   - chemref_reload_duration_seconds: full fetch+parse+cache cycles
//   - http_request_total / http_request_duration_seconds / http_request_in_flight
//
// All metrics register with the Prometheus default registry at package init.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	FetchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chemref_fetch_attempts_total",
			Help: "Remote fetch attempts per source and outcome",
		},
		[]string{"source", "outcome"},
	)

	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chemref_cache_hits_total",
			Help: "Provider loads served from a fresh stash artifact",
		},
		[]string{"source"},
	)

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chemref_cache_misses_total",
			Help: "Provider loads that required a remote fetch",
		},
		[]string{"source"},
	)

	StaleServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chemref_stale_serves_total",
			Help: "Provider loads served from a stale stash after fetch failure",
		},
		[]string{"source"},
	)

	ReloadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chemref_reload_duration_seconds",
			Help:    "Duration of full fetch, parse and cache cycles",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"source"},
	)

	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)
)

func init() {
	prometheus.MustRegister(FetchAttemptsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(StaleServesTotal)
	prometheus.MustRegister(ReloadDuration)
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
}
