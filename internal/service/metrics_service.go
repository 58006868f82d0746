package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/tutor-schedule-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	importRows     *prometheus.CounterVec
	importRuns     *prometheus.CounterVec
	slotsCreated   prometheus.Counter
	slotRejections *prometheus.CounterVec
	sheetFetch     *prometheus.HistogramVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	previewCount         uint64
	commitCount          uint64
	createdCount         uint64
	rejectedCount        uint64
}

// NewMetricsService registers core Prometheus collectors.
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

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_import_rows_total",
		Help: "Lesson cells seen by the import pipeline by outcome",
	}, []string{"status"})

	importRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_import_runs_total",
		Help: "Import requests by mode and layout",
	}, []string{"mode", "layout"})

	slotsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_slots_created_total",
		Help: "Lesson slots written by imports and manual bookings",
	})

	slotRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_slot_rejections_total",
		Help: "Slot candidates rejected by the conflict checker",
	}, []string{"reason"})

	sheetFetch := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sheet_fetch_duration_seconds",
		Help:    "Duration of spreadsheet fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"source", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		importRows, importRuns, slotsCreated, slotRejections, sheetFetch, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		importRows:      importRows,
		importRuns:      importRuns,
		slotsCreated:    slotsCreated,
		slotRejections:  slotRejections,
		sheetFetch:      sheetFetch,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSheetFetch records how long a spreadsheet source took to answer.
func (m *MetricsService) ObserveSheetFetch(source string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.sheetFetch.WithLabelValues(source, result).Observe(duration.Seconds())
}

// RecordImportRun counts one preview or commit together with the per-cell outcome.
func (m *MetricsService) RecordImportRun(mode, layout string, valid, invalid, skipped int) {
	if m == nil {
		return
	}
	m.importRuns.WithLabelValues(mode, layout).Inc()
	m.importRows.WithLabelValues("valid").Add(float64(valid))
	m.importRows.WithLabelValues("error").Add(float64(invalid))
	m.importRows.WithLabelValues("skipped").Add(float64(skipped))
	switch mode {
	case "preview":
		atomic.AddUint64(&m.previewCount, 1)
	case "commit":
		atomic.AddUint64(&m.commitCount, 1)
	}
}

// RecordBooking counts created slots and rejections by reason.
func (m *MetricsService) RecordBooking(created int, rejections map[string]int) {
	if m == nil {
		return
	}
	m.slotsCreated.Add(float64(created))
	atomic.AddUint64(&m.createdCount, uint64(created))
	for reason, count := range rejections {
		m.slotRejections.WithLabelValues(reason).Add(float64(count))
		atomic.AddUint64(&m.rejectedCount, uint64(count))
	}
}

// Snapshot returns aggregated metrics for the metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		ImportPreviews:           atomic.LoadUint64(&m.previewCount),
		ImportCommits:            atomic.LoadUint64(&m.commitCount),
		SlotsCreated:             atomic.LoadUint64(&m.createdCount),
		SlotsRejected:            atomic.LoadUint64(&m.rejectedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
