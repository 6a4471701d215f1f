package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/election-survey-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	inFlight        prometheus.Gauge
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	responses       *prometheus.CounterVec
	quotaRejections prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

const metricsNamespace = "election_survey"

// NewMetricsService builds a private registry with HTTP, cache, query and ingestion collectors
// plus the Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	histogram := func(subsystem, name, help string, labels ...string) *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   prometheus.DefBuckets,
		}, labels)
	}
	counter := func(subsystem, name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: metricsNamespace, Subsystem: subsystem, Name: name, Help: help})
	}

	m := &MetricsService{
		registry:        prometheus.NewRegistry(),
		requestDuration: histogram("http", "request_duration_seconds", "Duration of HTTP requests in seconds", "method", "path", "status"),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "report_cache",
			Name:      "hit_ratio",
			Help:      "Ratio of report cache hits to lookups since start",
		}),
		cacheHits:       counter("report_cache", "hits_total", "Report cache hits"),
		cacheMisses:     counter("report_cache", "misses_total", "Report cache misses"),
		dbQueryDuration: histogram("db", "query_duration_seconds", "Duration of aggregate queries", "query"),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingestion",
			Name:      "responses_total",
			Help:      "Field responses accepted, by status",
		}, []string{"status"}),
		quotaRejections: counter("ingestion", "quota_rejections_total", "Completions refused because the assignment quota was reached"),
	}
	cacheLatency := histogram("report_cache", "read_seconds", "Latency of report cache reads")
	cacheWrite := histogram("report_cache", "write_seconds", "Latency of report cache writes")
	m.cacheLatency = cacheLatency.WithLabelValues()
	m.cacheWrite = cacheWrite.WithLabelValues()

	m.registry.MustRegister(
		m.requestDuration, m.requestTotal, m.inFlight,
		cacheLatency, cacheWrite, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.dbQueryDuration, m.responses, m.quotaRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
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

// TrackInFlight marks a request as started; the returned func marks it done.
func (m *MetricsService) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
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
	if total := hits + atomic.LoadUint64(&m.cacheMissCount); total > 0 {
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

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordResponse counts an accepted response by status.
func (m *MetricsService) RecordResponse(status models.ResponseStatus) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(string(status)).Inc()
}

// RecordQuotaRejection counts a completion refused at the quota ceiling.
func (m *MetricsService) RecordQuotaRejection() {
	if m == nil {
		return
	}
	m.quotaRejections.Inc()
}
