package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcome labels reported to Prometheus.
const (
	OutcomeAccepted         = "accepted"
	OutcomeMalformed        = "malformed"
	OutcomeValidationFailed = "validation_failed"
	OutcomeStorageFailed    = "storage_failed"
	OutcomeRecordingFailed  = "recording_failed"
)

// MetricsService encapsulates Prometheus instrumentation for the intake
// pipeline.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	submissionsTotal *prometheus.CounterVec
	externalCall     *prometheus.HistogramVec
	uploadBytes      prometheus.Counter
	folderCacheHits  prometheus.Counter
	folderCacheMiss  prometheus.Counter
}

// NewMetricsService registers the core collectors.
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

	submissionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "submissions_total",
		Help: "Total submission attempts by outcome",
	}, []string{"outcome"})

	externalCall := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "external_call_duration_seconds",
		Help:    "Duration of Drive and Sheets calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})

	uploadBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upload_bytes_total",
		Help: "Total bytes of accepted document uploads",
	})

	folderCacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "folder_cache_hits_total",
		Help: "Folder-ID cache hits",
	})

	folderCacheMiss := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "folder_cache_misses_total",
		Help: "Folder-ID cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, submissionsTotal, externalCall, uploadBytes, folderCacheHits, folderCacheMiss, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		submissionsTotal: submissionsTotal,
		externalCall:     externalCall,
		uploadBytes:      uploadBytes,
		folderCacheHits:  folderCacheHits,
		folderCacheMiss:  folderCacheMiss,
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
}

// ObserveSubmission counts one submission attempt by outcome.
func (m *MetricsService) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveExternalCall records the duration of one Drive or Sheets call.
func (m *MetricsService) ObserveExternalCall(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.externalCall.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// AddUploadBytes accumulates accepted upload volume.
func (m *MetricsService) AddUploadBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.uploadBytes.Add(float64(n))
}

// RecordFolderCache counts a folder-ID cache lookup.
func (m *MetricsService) RecordFolderCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.folderCacheHits.Inc()
		return
	}
	m.folderCacheMiss.Inc()
}
