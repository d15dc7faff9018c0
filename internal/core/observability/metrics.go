package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~80s, print renders are slow
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		},
		[]string{"upstream"},
	)

	extractResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extract_results_total",
			Help: "Extract pipeline results by outcome.",
		},
		[]string{"outcome"},
	)

	documentValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_validation_failures_total",
			Help: "Returned documents rejected by the response validator.",
		},
		[]string{"reason"},
	)

	capabilitiesCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capabilities_cache_total",
			Help: "Capabilities cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
}

func IncExtractResult(outcome string) {
	if outcome == "" {
		outcome = "ok"
	}
	extractResults.WithLabelValues(outcome).Inc()
}

func IncValidationFailure(reason string) {
	documentValidationFailures.WithLabelValues(reason).Inc()
}

func IncCapCacheHit()   { capabilitiesCache.WithLabelValues("hit").Inc() }
func IncCapCacheMiss()  { capabilitiesCache.WithLabelValues("miss").Inc() }
func IncCapCacheError() { capabilitiesCache.WithLabelValues("error").Inc() }

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
