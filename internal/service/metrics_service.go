package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jigu1688/sporttools-sub001/internal/models"
)

// MetricsSnapshot is a lightweight view of the engine counters.
type MetricsSnapshot struct {
	RecordsScored        uint64    `json:"records_scored"`
	ItemsScored          uint64    `json:"items_scored"`
	ItemErrors           uint64    `json:"item_errors"`
	AverageRecordMicros  float64   `json:"average_record_micros"`
	Aggregations         uint64    `json:"aggregations"`
	CacheHitRatio        float64   `json:"cache_hit_ratio"`
	CacheHits            uint64    `json:"cache_hits"`
	CacheMisses          uint64    `json:"cache_misses"`
	RequestsTotal        uint64    `json:"requests_total"`
	AverageRequestMillis float64   `json:"average_request_millis"`
	Goroutines           int       `json:"goroutines"`
	GeneratedAt          time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation for scoring, aggregation, cache and HTTP.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	itemsScored        *prometheus.CounterVec
	recordDuration     prometheus.Histogram
	aggregationLatency *prometheus.HistogramVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter

	recordCount          uint64
	recordDurationTotal  uint64
	itemCount            uint64
	itemErrorCount       uint64
	aggregationCount     uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	itemsScored := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fitness_items_scored_total",
		Help: "Items resolved by outcome (scored, exempt or an error code)",
	}, []string{"item", "outcome"})

	recordDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fitness_record_scoring_seconds",
		Help:    "Time spent scoring a single test record",
		Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
	})

	aggregationLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fitness_aggregation_seconds",
		Help:    "Time spent aggregating cohort statistics",
		Buckets: prometheus.DefBuckets,
	}, []string{"dimensions"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, itemsScored, recordDuration, aggregationLatency, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		itemsScored:        itemsScored,
		recordDuration:     recordDuration,
		aggregationLatency: aggregationLatency,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveItem counts a single item outcome.
func (m *MetricsService) ObserveItem(itemCode, outcome string) {
	if m == nil {
		return
	}
	m.itemsScored.WithLabelValues(itemCode, outcome).Inc()
	switch outcome {
	case "scored":
		atomic.AddUint64(&m.itemCount, 1)
	case "exempt":
	default:
		atomic.AddUint64(&m.itemErrorCount, 1)
	}
}

// ObserveRecord records how long one record took to score.
func (m *MetricsService) ObserveRecord(duration time.Duration) {
	if m == nil {
		return
	}
	m.recordDuration.Observe(duration.Seconds())
	atomic.AddUint64(&m.recordCount, 1)
	atomic.AddUint64(&m.recordDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveAggregation records aggregation latency labelled by dimensions.
func (m *MetricsService) ObserveAggregation(dims []models.Dimension, duration time.Duration) {
	if m == nil {
		return
	}
	m.aggregationLatency.WithLabelValues(dimensionLabel(dims)).Observe(duration.Seconds())
	atomic.AddUint64(&m.aggregationCount, 1)
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// Snapshot returns aggregated counters suitable for API consumption.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	records := atomic.LoadUint64(&m.recordCount)
	recordDuration := atomic.LoadUint64(&m.recordDurationTotal)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	snap := MetricsSnapshot{
		RecordsScored: records,
		ItemsScored:   atomic.LoadUint64(&m.itemCount),
		ItemErrors:    atomic.LoadUint64(&m.itemErrorCount),
		Aggregations:  atomic.LoadUint64(&m.aggregationCount),
		CacheHits:     hits,
		CacheMisses:   misses,
		RequestsTotal: requests,
		Goroutines:    runtime.NumGoroutine(),
		GeneratedAt:   time.Now().UTC(),
	}
	if total := hits + misses; total > 0 {
		snap.CacheHitRatio = float64(hits) / float64(total)
	}
	if records > 0 {
		snap.AverageRecordMicros = float64(recordDuration) / float64(records) / float64(time.Microsecond)
	}
	if requests > 0 {
		snap.AverageRequestMillis = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	return snap
}

func dimensionLabel(dims []models.Dimension) string {
	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		parts = append(parts, string(d))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
