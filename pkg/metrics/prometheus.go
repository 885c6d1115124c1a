// Package metrics provides Prometheus metrics for the wudao analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline
	runsStarted       prometheus.Counter
	runsCompleted     prometheus.Counter
	runsFailed        *prometheus.CounterVec
	runsReset         prometheus.Counter
	lateReports       prometheus.Counter
	uploadLatency     prometheus.Histogram
	analysisLatency   *prometheus.HistogramVec
	intakeRejected    *prometheus.CounterVec
	activeSessions    prometheus.Gauge
	timelineSeeks     prometheus.Counter
	reportOverallHist *prometheus.HistogramVec

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueue     prometheus.Counter
	queueDequeue     prometheus.Counter
	queueErrors      *prometheus.CounterVec

	// Workers
	workerCount   prometheus.Gauge
	workerBusy    prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// Catalog
	catalogQueries *prometheus.CounterVec
	catalogResults *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Scorer backend
	breakerState *prometheus.GaugeVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps default Go collectors out of the exposition.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wudao",
		subsystem:        "analysis",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.runsStarted = m.counter("runs_started_total", "Analysis runs started")
	m.runsCompleted = m.counter("runs_completed_total", "Analysis runs that produced a valid report")
	m.runsFailed = m.counterVec("runs_failed_total", "Analysis runs that ended in Failed, by reason", "reason")
	m.runsReset = m.counter("runs_reset_total", "Pipeline resets, including resets of in-flight runs")
	m.lateReports = m.counter("late_reports_discarded_total", "Reports delivered after their run was reset or superseded")
	m.uploadLatency = m.histogram("upload_latency_milliseconds", "Time spent in the Uploading phase")
	m.analysisLatency = m.histogramVec("analysis_latency_milliseconds", "Time spent in the Analyzing phase",
		m.histogramBuckets, "kind")
	m.intakeRejected = m.counterVec("intake_rejected_total", "Artifacts rejected at intake", "kind")
	m.activeSessions = m.gauge("sessions_active", "Sessions currently held by the service")
	m.timelineSeeks = m.counter("timeline_seeks_total", "Seek commands issued by jump-to-segment")
	m.reportOverallHist = m.histogramVec("report_overall_score", "Distribution of overall report scores",
		[]float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, "kind")

	m.queueSize = m.gauge("queue_size", "Scoring jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum scoring jobs the queue holds")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "queue_size / queue_capacity")
	m.queueEnqueue = m.counter("queue_enqueued_total", "Scoring jobs enqueued")
	m.queueDequeue = m.counter("queue_dequeued_total", "Scoring jobs dequeued by workers")
	m.queueErrors = m.counterVec("queue_enqueue_errors_total", "Rejected enqueues by cause", "cause")

	m.workerCount = m.gauge("worker_count", "Scoring workers in the pool")
	m.workerBusy = m.gauge("worker_busy", "Scoring workers currently calling the scorer")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Worker time per scoring job")
	m.workerErrors = m.counter("worker_errors_total", "Scoring jobs whose scorer call returned an error")

	m.catalogQueries = m.counterVec("catalog_queries_total", "Catalog filter evaluations", "catalog", "sort")
	m.catalogResults = m.histogramVec("catalog_result_size", "Entities returned per catalog query",
		[]float64{0, 1, 2, 3, 5, 10, 25, 50}, "catalog")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration",
		m.histogramBuckets, "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP error responses by endpoint",
		"endpoint", "method", "error_type")

	m.breakerState = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "scorer_breaker_state",
		Help: "Scorer circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordRunStarted counts a pipeline run entering Uploading.
func RecordRunStarted() { globalManager.runsStarted.Inc() }

// RecordRunCompleted counts a run that reached Complete.
func RecordRunCompleted() { globalManager.runsCompleted.Inc() }

// RecordRunFailed counts a run that reached Failed.
func RecordRunFailed(reason string) { globalManager.runsFailed.WithLabelValues(reason).Inc() }

// RecordRunReset counts a pipeline reset.
func RecordRunReset() { globalManager.runsReset.Inc() }

// RecordLateReport counts a report dropped because its run is no longer current.
func RecordLateReport() { globalManager.lateReports.Inc() }

// RecordUploadLatency records the Uploading phase duration.
func RecordUploadLatency(ms float64) { globalManager.uploadLatency.Observe(ms) }

// RecordAnalysisLatency records the Analyzing phase duration for an artifact kind.
func RecordAnalysisLatency(kind string, ms float64) {
	globalManager.analysisLatency.WithLabelValues(kind).Observe(ms)
}

// RecordReportScore records the overall score of a completed report.
func RecordReportScore(kind string, score int) {
	globalManager.reportOverallHist.WithLabelValues(kind).Observe(float64(score))
}

// RecordIntakeRejected counts an artifact refused by an intake.
func RecordIntakeRejected(kind string) { globalManager.intakeRejected.WithLabelValues(kind).Inc() }

// UpdateActiveSessions sets the number of live sessions.
func UpdateActiveSessions(n int) { globalManager.activeSessions.Set(float64(n)) }

// RecordTimelineSeek counts a jump-to-segment seek.
func RecordTimelineSeek() { globalManager.timelineSeeks.Inc() }

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() { globalManager.queueEnqueue.Inc() }

// RecordQueueDequeue counts a job handed to a worker.
func RecordQueueDequeue() { globalManager.queueDequeue.Inc() }

// RecordQueueEnqueueError counts a refused job by cause.
func RecordQueueEnqueueError(cause string) { globalManager.queueErrors.WithLabelValues(cause).Inc() }

// UpdateWorkerCount sets the pool size.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// AddWorkerBusy adjusts the number of workers inside a scorer call.
func AddWorkerBusy(delta int) { globalManager.workerBusy.Add(float64(delta)) }

// RecordWorkerProcessingLatency records time spent on one job.
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerLatency.Observe(ms) }

// RecordWorkerError counts a failed scorer call.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordCatalogQuery records a filter evaluation and the size of its result.
func RecordCatalogQuery(catalog, sort string, results int) {
	globalManager.catalogQueries.WithLabelValues(catalog, sort).Inc()
	globalManager.catalogResults.WithLabelValues(catalog).Observe(float64(results))
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateBreakerState publishes a circuit breaker state.
func UpdateBreakerState(name string, state int) {
	globalManager.breakerState.WithLabelValues(name).Set(float64(state))
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) { globalManager.systemGoroutineCount.Set(float64(n)) }

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
