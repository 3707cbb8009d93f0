package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/studyhub-api/internal/models"
)

// Search outcomes recorded by ObserveSearch.
const (
	SearchOutcomeOK    = "ok"
	SearchOutcomeEmpty = "empty"
	SearchOutcomeError = "error"
)

const metricsNamespace = "studyhub"

var searchLatencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// tally mirrors the counters reported by Snapshot.
type tally struct {
	cacheHits      atomic.Uint64
	cacheMisses    atomic.Uint64
	requests       atomic.Uint64
	requestNanos   atomic.Uint64
	dbQueries      atomic.Uint64
	dbQueryNanos   atomic.Uint64
	searches       atomic.Uint64
	searchFailures atomic.Uint64
	stale          atomic.Uint64
}

// MetricsService owns a private Prometheus registry for the API and the counters
// summarised on the admin metrics endpoint. A nil *MetricsService is a no-op.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	cacheRead    prometheus.Histogram
	cacheWrite   prometheus.Histogram
	cacheRatio   prometheus.Gauge
	cacheResults *prometheus.CounterVec
	dbDuration   *prometheus.HistogramVec
	searches     *prometheus.CounterVec
	searchTiming *prometheus.HistogramVec
	staleReplies prometheus.Counter
	uploadBytes  *prometheus.CounterVec
	extractions  *prometheus.CounterVec

	tally tally
}

// NewMetricsService registers the API collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "http", Name: "request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	m.httpTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "http", Name: "requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	m.cacheRead = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "cache", Name: "read_seconds",
		Help:    "Latency of cache lookups.",
		Buckets: prometheus.DefBuckets,
	})
	m.cacheWrite = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "cache", Name: "write_seconds",
		Help:    "Latency of cache writes.",
		Buckets: prometheus.DefBuckets,
	})
	m.cacheRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace, Subsystem: "cache", Name: "hit_ratio",
		Help: "Share of cache lookups served from the cache.",
	})
	m.cacheResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "cache", Name: "lookups_total",
		Help: "Cache lookups by result.",
	}, []string{"result"})

	m.dbDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "db", Name: "query_duration_seconds",
		Help:    "Duration of database queries by label.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	m.searches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Name: "resource_search_total",
		Help: "Resource searches by outcome and text mode.",
	}, []string{"outcome", "text_mode"})
	m.searchTiming = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Name: "resource_search_duration_seconds",
		Help:    "End to end duration of resource searches.",
		Buckets: searchLatencyBuckets,
	}, []string{"text_mode"})
	m.staleReplies = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace, Name: "live_search_stale_responses_total",
		Help: "Live search replies dropped because a newer request was issued.",
	})
	m.uploadBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Name: "resource_upload_bytes_total",
		Help: "Bytes accepted by resource uploads.",
	}, []string{"file_type"})
	m.extractions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Name: "syllabus_extraction_total",
		Help: "Syllabus extraction attempts by outcome.",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace, Name: "goroutines",
		Help: "Goroutines currently running.",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.registry.MustRegister(
		m.httpDuration, m.httpTotal,
		m.cacheRead, m.cacheWrite, m.cacheRatio, m.cacheResults,
		m.dbDuration,
		m.searches, m.searchTiming, m.staleReplies,
		m.uploadBytes, m.extractions,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, route, code).Inc()
	m.tally.requests.Add(1)
	m.tally.requestNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio gauge.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheRead.Observe(duration.Seconds())
	if hit {
		m.cacheResults.WithLabelValues("hit").Inc()
		m.tally.cacheHits.Add(1)
	} else {
		m.cacheResults.WithLabelValues("miss").Inc()
		m.tally.cacheMisses.Add(1)
	}
	m.cacheRatio.Set(ratio(m.tally.cacheHits.Load(), m.tally.cacheMisses.Load()))
}

// ObserveCacheWrite records the duration of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing under label.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.tally.dbQueries.Add(1)
	m.tally.dbQueryNanos.Add(uint64(duration.Nanoseconds()))
}

// ObserveSearch counts one search by outcome and records its duration.
func (m *MetricsService) ObserveSearch(outcome, textMode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome, textMode).Inc()
	m.searchTiming.WithLabelValues(textMode).Observe(duration.Seconds())
	m.tally.searches.Add(1)
	if outcome == SearchOutcomeError {
		m.tally.searchFailures.Add(1)
	}
}

// RecordStaleLiveResponse counts a live search reply dropped as superseded.
func (m *MetricsService) RecordStaleLiveResponse() {
	if m == nil {
		return
	}
	m.staleReplies.Inc()
	m.tally.stale.Add(1)
}

// ObserveUpload adds the size of an accepted upload.
func (m *MetricsService) ObserveUpload(fileType string, size int64) {
	if m == nil || size <= 0 {
		return
	}
	m.uploadBytes.WithLabelValues(fileType).Add(float64(size))
}

// ObserveExtraction counts a syllabus extraction attempt.
func (m *MetricsService) ObserveExtraction(outcome string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(outcome).Inc()
}

// Snapshot summarises the counters for the admin metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits, misses := m.tally.cacheHits.Load(), m.tally.cacheMisses.Load()
	requests := m.tally.requests.Load()
	queries := m.tally.dbQueries.Load()

	return models.SystemMetrics{
		CacheHitRatio:            ratio(hits, misses),
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMillis(m.tally.requestNanos.Load(), requests),
		DBQueryCount:             queries,
		AverageDBQueryDurationMs: averageMillis(m.tally.dbQueryNanos.Load(), queries),
		SearchesTotal:            m.tally.searches.Load(),
		SearchFailures:           m.tally.searchFailures.Load(),
		StaleLiveResponses:       m.tally.stale.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func ratio(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func averageMillis(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
