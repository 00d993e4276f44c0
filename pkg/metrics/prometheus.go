package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Manager manages all Prometheus metrics for the consolidation service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Refresh cycle metrics
	refreshCycles          *prometheus.CounterVec
	refreshDuration        prometheus.Histogram
	refreshLastSuccessUnix prometheus.Gauge
	refreshLastAttemptUnix prometheus.Gauge
	viewAvailable          prometheus.Gauge

	// Source metrics
	sourceFetchLatency *prometheus.HistogramVec
	sourceFetchErrors  *prometheus.CounterVec
	sourceRows         *prometheus.GaugeVec
	cacheLookups       *prometheus.CounterVec

	// Published view metrics
	viewRecords      prometheus.Gauge
	viewCritical     prometheus.Gauge
	viewMatched      prometheus.Gauge
	viewFlagged      prometheus.Gauge
	viewRowsByTier   *prometheus.GaugeVec
	viewDriftColumns prometheus.Gauge

	// Refresh trigger queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueWaitLatency   prometheus.Histogram

	// Worker metrics
	workerBusy   prometheus.Gauge
	workerErrors prometheus.Counter

	// Notification metrics
	notifyPublished *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
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
		namespace:        "consolidator",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// NewMetricsManager is an alias of NewManager.
func NewMetricsManager(opts ...Option) *Manager {
	return NewManager(opts...)
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)
	cycleBuckets := prometheus.ExponentialBuckets(50, 2, 12)

	m.refreshCycles = auto.NewCounterVec(
		m.counterOpts("refresh_cycles_total", "Refresh cycles by trigger and outcome"),
		[]string{"trigger", "outcome"},
	)
	m.refreshDuration = auto.NewHistogram(
		m.histogramOpts("refresh_duration_milliseconds", "Wall time of a full refresh cycle in milliseconds", cycleBuckets),
	)
	m.refreshLastSuccessUnix = auto.NewGauge(
		m.gaugeOpts("refresh_last_success_unix", "Unix time of the last successful refresh"),
	)
	m.refreshLastAttemptUnix = auto.NewGauge(
		m.gaugeOpts("refresh_last_attempt_unix", "Unix time of the last refresh attempt"),
	)
	m.viewAvailable = auto.NewGauge(
		m.gaugeOpts("view_available", "1 when a consolidated view has been published"),
	)

	m.sourceFetchLatency = auto.NewHistogramVec(
		m.histogramOpts("source_fetch_latency_milliseconds", "Latency of fetching one source table in milliseconds", cycleBuckets),
		[]string{"table"},
	)
	m.sourceFetchErrors = auto.NewCounterVec(
		m.counterOpts("source_fetch_errors_total", "Failed source table fetches"),
		[]string{"table"},
	)
	m.sourceRows = auto.NewGaugeVec(
		m.gaugeOpts("source_rows", "Rows in the last fetched copy of each source table"),
		[]string{"table"},
	)
	m.cacheLookups = auto.NewCounterVec(
		m.counterOpts("cache_lookups_total", "Source cache lookups by result"),
		[]string{"table", "result"},
	)

	m.viewRecords = auto.NewGauge(m.gaugeOpts("view_records", "Enriched records in the published view"))
	m.viewCritical = auto.NewGauge(m.gaugeOpts("view_critical_records", "Records in a critical tier"))
	m.viewMatched = auto.NewGauge(m.gaugeOpts("view_matched_records", "Records that matched a parcel row"))
	m.viewFlagged = auto.NewGauge(m.gaugeOpts("view_flagged_records", "Records whose reason needs justification"))
	m.viewRowsByTier = auto.NewGaugeVec(
		m.gaugeOpts("view_tier_records", "Records per aging tier"),
		[]string{"tier"},
	)
	m.viewDriftColumns = auto.NewGauge(
		m.gaugeOpts("view_drift_columns", "Expected columns missing from the last fetched sources"),
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Pending refresh triggers"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Refresh trigger queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Refresh trigger queue utilization (0-1)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Refresh triggers enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Refresh triggers dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Refresh triggers rejected by the queue"))
	m.queueWaitLatency = auto.NewHistogram(
		m.histogramOpts("queue_wait_milliseconds", "Time a trigger spent queued in milliseconds", m.histogramBuckets),
	)

	m.workerBusy = auto.NewGauge(m.gaugeOpts("worker_busy", "1 while the refresh worker runs a cycle"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Refresh cycles that ended in error"))

	m.notifyPublished = auto.NewCounterVec(
		m.counterOpts("notify_events_total", "Cycle notifications by outcome"),
		[]string{"outcome"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that failed in milliseconds", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Current goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets),
	)
}

// Refresh cycle functions.

// RecordRefreshCycle counts one cycle for trigger with the given outcome.
func RecordRefreshCycle(trigger, outcome string) {
	globalManager.refreshCycles.WithLabelValues(trigger, outcome).Inc()
}

// RecordRefreshDuration records the duration of a cycle in milliseconds.
func RecordRefreshDuration(durationMs float64) {
	globalManager.refreshDuration.Observe(durationMs)
}

// UpdateRefreshLastSuccess sets the last successful refresh time.
func UpdateRefreshLastSuccess(unix int64) {
	globalManager.refreshLastSuccessUnix.Set(float64(unix))
}

// UpdateRefreshLastAttempt sets the last attempted refresh time.
func UpdateRefreshLastAttempt(unix int64) {
	globalManager.refreshLastAttemptUnix.Set(float64(unix))
}

// UpdateViewAvailable reports whether a view is being served.
func UpdateViewAvailable(available bool) {
	if available {
		globalManager.viewAvailable.Set(1)
		return
	}
	globalManager.viewAvailable.Set(0)
}

// Source functions.

// RecordSourceFetchLatency records the latency of one table fetch.
func RecordSourceFetchLatency(table string, latencyMs float64) {
	globalManager.sourceFetchLatency.WithLabelValues(table).Observe(latencyMs)
}

// RecordSourceFetchError counts one failed table fetch.
func RecordSourceFetchError(table string) {
	globalManager.sourceFetchErrors.WithLabelValues(table).Inc()
}

// UpdateSourceRows sets the row count of the last fetched copy of table.
func UpdateSourceRows(table string, rows int) {
	globalManager.sourceRows.WithLabelValues(table).Set(float64(rows))
}

// RecordCacheLookup counts a cache hit or miss for table.
func RecordCacheLookup(table, result string) {
	globalManager.cacheLookups.WithLabelValues(table, result).Inc()
}

// View functions.

// ViewStats is the subset of a published view exported as gauges.
type ViewStats struct {
	Records      int
	Critical     int
	Matched      int
	Flagged      int
	DriftColumns int
	Tiers        map[string]int
}

// UpdateView replaces the view gauges. Tiers absent from s are cleared.
func UpdateView(s ViewStats) {
	globalManager.viewRecords.Set(float64(s.Records))
	globalManager.viewCritical.Set(float64(s.Critical))
	globalManager.viewMatched.Set(float64(s.Matched))
	globalManager.viewFlagged.Set(float64(s.Flagged))
	globalManager.viewDriftColumns.Set(float64(s.DriftColumns))
	globalManager.viewRowsByTier.Reset()
	for tier, n := range s.Tiers {
		globalManager.viewRowsByTier.WithLabelValues(tier).Set(float64(n))
	}
}

// UpdateDriftColumns sets the number of expected columns that are missing.
func UpdateDriftColumns(n int) {
	globalManager.viewDriftColumns.Set(float64(n))
}

// Queue functions.

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

// RecordQueueWaitLatency records how long a trigger waited in the queue.
func RecordQueueWaitLatency(latencyMs float64) {
	globalManager.queueWaitLatency.Observe(latencyMs)
}

// Worker functions.

// UpdateWorkerBusy reports whether the worker is running a cycle.
func UpdateWorkerBusy(busy bool) {
	if busy {
		globalManager.workerBusy.Set(1)
		return
	}
	globalManager.workerBusy.Set(0)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordNotification counts a cycle notification with outcome.
func RecordNotification(outcome string) {
	globalManager.notifyPublished.WithLabelValues(outcome).Inc()
}

// HTTP functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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
