// Package metrics provides Prometheus metrics for the strokeheat service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the strokeheat service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	segmentBuckets   []float64
	registry         prometheus.Registerer

	// Core pipeline metrics
	scriptsAnalyzed  prometheus.Counter
	scriptsDuplicate prometheus.Counter
	previewsRendered *prometheus.CounterVec
	decodeErrors     prometheus.Counter
	gapsDetected     prometheus.Counter
	analysisLatency  prometheus.Histogram
	renderLatency    prometheus.Histogram
	segmentsPerStrip prometheus.Histogram

	// Library
	librarySize         prometheus.Gauge
	libraryWriteLatency prometheus.Histogram
	libraryQueryLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "strokeheat",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
		segmentBuckets:   prometheus.ExponentialBuckets(1, 4, 10),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.scriptsAnalyzed = m.counter("scripts_analyzed_total", "Total number of scripts analyzed")
	m.scriptsDuplicate = m.counter("scripts_duplicate_total", "Total number of duplicate script submissions")
	m.previewsRendered = m.counterVec("previews_rendered_total", "Total number of rendered images by kind", "kind")
	m.decodeErrors = m.counter("decode_errors_total", "Total number of documents that failed to decode")
	m.gapsDetected = m.counter("gaps_detected_total", "Total number of undrawn transitions longer than the gap threshold")
	m.analysisLatency = m.histogram("analysis_latency_milliseconds", "Script analysis latency in milliseconds", m.histogramBuckets)
	m.renderLatency = m.histogram("render_latency_milliseconds", "Image render latency in milliseconds", m.histogramBuckets)
	m.segmentsPerStrip = m.histogram("segments_per_strip", "Number of segments drawn per strip", m.segmentBuckets)

	m.librarySize = m.gauge("library_size", "Number of scripts stored in the library")
	m.libraryWriteLatency = m.histogram("library_write_latency_milliseconds", "Library write latency in milliseconds", m.histogramBuckets)
	m.libraryQueryLatency = m.histogram("library_query_latency_milliseconds", "Library query latency in milliseconds", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.queueSize = m.gauge("queue_size", "Current number of queued analysis jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Number of started workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of workers currently processing a job")
	m.workerMessagesPerSecond = m.gauge("worker_messages_per_second", "Jobs processed per second by a worker")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker job latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of failed jobs")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component",
		"component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordScriptAnalyzed increments the analyzed scripts counter.
func RecordScriptAnalyzed() {
	globalManager.scriptsAnalyzed.Inc()
}

// RecordScriptDuplicate increments the duplicate submissions counter.
func RecordScriptDuplicate() {
	globalManager.scriptsDuplicate.Inc()
}

// RecordPreviewRendered counts one rendered image of the given kind ("strip" or "card").
func RecordPreviewRendered(kind string) {
	globalManager.previewsRendered.WithLabelValues(kind).Inc()
}

// RecordDecodeError increments the decode errors counter.
func RecordDecodeError() {
	globalManager.decodeErrors.Inc()
}

// RecordGaps adds n undrawn transitions.
func RecordGaps(n int) {
	if n > 0 {
		globalManager.gapsDetected.Add(float64(n))
	}
}

// RecordAnalysisLatency records analysis latency in milliseconds.
func RecordAnalysisLatency(latencyMs float64) {
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordRenderLatency records render latency in milliseconds.
func RecordRenderLatency(latencyMs float64) {
	globalManager.renderLatency.Observe(latencyMs)
}

// RecordSegments records how many segments one strip drew.
func RecordSegments(n int) {
	globalManager.segmentsPerStrip.Observe(float64(n))
}

// UpdateLibrarySize sets the number of stored scripts.
func UpdateLibrarySize(count int) {
	globalManager.librarySize.Set(float64(count))
}

// RecordLibraryWriteLatency records library write latency.
func RecordLibraryWriteLatency(latencyMs float64) {
	globalManager.libraryWriteLatency.Observe(latencyMs)
}

// RecordLibraryQueryLatency records library query latency.
func RecordLibraryQueryLatency(latencyMs float64) {
	globalManager.libraryQueryLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the number of started workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive adjusts the number of busy workers by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// UpdateWorkerMessagesPerSecond sets the average jobs processed per second.
func UpdateWorkerMessagesPerSecond(rate float64) {
	globalManager.workerMessagesPerSecond.Set(rate)
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory in use in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
