// Package metrics provides Prometheus metrics for the huescheme service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "huescheme"

var (
	// analysisDuration is a histogram of pipeline duration by algorithm.
	analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Histogram of image analysis duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"algorithm"},
	)

	// analysesTotal counts analyses by outcome.
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of image analyses",
		},
		[]string{"algorithm", "status"}, // status: success, error
	)

	// analysesActive is a gauge of analyses holding a concurrency slot.
	analysesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analyses_active",
			Help:      "Number of analyses currently running",
		},
	)

	// cacheLookupsTotal counts result cache lookups.
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of result cache lookups",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	// httpRequestsTotal counts HTTP requests by route and status code.
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	// uploadBytes is a histogram of accepted upload sizes.
	uploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Size of uploaded images in bytes",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 9), // 16KiB .. 4MiB
		},
	)

	allMetrics = []prometheus.Collector{
		analysisDuration,
		analysesTotal,
		analysesActive,
		cacheLookupsTotal,
		httpRequestsTotal,
		uploadBytes,
	}
)

// RecordAnalysis records a finished analysis.
func RecordAnalysis(algorithm, status string, durationSeconds float64) {
	analysisDuration.WithLabelValues(algorithm).Observe(durationSeconds)
	analysesTotal.WithLabelValues(algorithm, status).Inc()
}

// AnalysisStarted marks a concurrency slot as taken.
func AnalysisStarted() {
	analysesActive.Inc()
}

// AnalysisFinished releases a concurrency slot.
func AnalysisFinished() {
	analysesActive.Dec()
}

// RecordCacheLookup records a cache hit, miss or error.
func RecordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordRequest records a served HTTP request.
func RecordRequest(route, code string) {
	httpRequestsTotal.WithLabelValues(route, code).Inc()
}

// RecordUpload records the size of an accepted upload.
func RecordUpload(size int64) {
	uploadBytes.Observe(float64(size))
}

// NewRegistry returns a registry with the huescheme metrics plus Go
// runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	for _, collector := range allMetrics {
		reg.MustRegister(collector)
	}
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler exposing the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
