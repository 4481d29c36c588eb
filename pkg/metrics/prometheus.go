// Package metrics provides Prometheus metrics for the livescore simulator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "livescore"
	subsystem = "simulator"

	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Simulation
	eventsSpawned  prometheus.Counter
	eventsRemoved  prometheus.Counter
	eventsLive     prometheus.Gauge
	transitions    *prometheus.CounterVec
	transitionErrs *prometheus.CounterVec

	// Scheduler
	jobsScheduled prometheus.Counter
	jobsExecuted  prometheus.Counter
	jobsDropped   prometheus.Counter
	jobsPending   prometheus.Gauge
	jobLateness   prometheus.Histogram

	// Notifier
	notificationsPublished *prometheus.CounterVec
	notificationsDropped   *prometheus.CounterVec
	notificationsFailed    *prometheus.CounterVec
	subscribers            prometheus.Gauge

	// Repository
	repositoryRecords       prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Queue / workers
	queueEnqueued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerLatency      prometheus.Histogram
	workerErrors       prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        namespace,
		subsystem:        subsystem,
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// RefreshInterval is how often the periodic system and service gauges are
// refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.eventsSpawned = m.counter("events_spawned_total", "Total number of simulated events created by the spawn loop")
	m.eventsRemoved = m.counter("events_removed_total", "Total number of events removed after finishing")
	m.eventsLive = m.gauge("events_in_store", "Events currently present in the store")
	m.transitions = m.counterVec("transitions_total", "Applied transitions by kind", "kind")
	m.transitionErrs = m.counterVec("transition_errors_total", "Transitions that failed to apply by kind and reason", "kind", "reason")

	m.jobsScheduled = m.counter("jobs_scheduled_total", "Jobs armed on the scheduler")
	m.jobsExecuted = m.counter("jobs_executed_total", "Jobs executed by workers")
	m.jobsDropped = m.counter("jobs_dropped_total", "Jobs discarded without running (shutdown or full queue)")
	m.jobsPending = m.gauge("jobs_pending", "Jobs waiting for their due time")
	m.jobLateness = m.histogram("job_lateness_milliseconds", "Delay between a job's due time and its execution",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000})

	m.notificationsPublished = m.counterVec("notifications_published_total", "Notifications published by kind", "kind")
	m.notificationsDropped = m.counterVec("notifications_dropped_total", "Notifications not delivered to a slow subscriber", "kind")
	m.notificationsFailed = m.counterVec("notifications_failed_total", "Notifications that failed at a transport", "transport")
	m.subscribers = m.gauge("subscribers", "Currently attached subscriptions")

	m.repositoryRecords = m.gauge("repository_records_total", "Records held by the event store")
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Event store write latency in milliseconds", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Event store read latency in milliseconds", m.histogramBuckets)

	m.queueEnqueued = m.counter("queue_enqueue_total", "Jobs handed to worker queues")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected by worker queues")
	m.workerCount = m.gauge("worker_count", "Number of workers executing jobs")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Time spent executing a job in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Jobs that returned an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Simulation.

// RecordEventSpawned increments the spawned events counter.
func RecordEventSpawned() { globalManager.eventsSpawned.Inc() }

// RecordEventRemoved increments the removed events counter.
func RecordEventRemoved() { globalManager.eventsRemoved.Inc() }

// UpdateEventsInStore sets the number of events currently stored.
func UpdateEventsInStore(n int) { globalManager.eventsLive.Set(float64(n)) }

// RecordTransition counts an applied transition of the given kind.
func RecordTransition(kind string) { globalManager.transitions.WithLabelValues(kind).Inc() }

// RecordTransitionError counts a transition that could not be applied.
func RecordTransitionError(kind, reason string) {
	globalManager.transitionErrs.WithLabelValues(kind, reason).Inc()
}

// Scheduler.

// RecordJobScheduled counts an armed job.
func RecordJobScheduled() { globalManager.jobsScheduled.Inc() }

// RecordJobExecuted counts an executed job.
func RecordJobExecuted() { globalManager.jobsExecuted.Inc() }

// RecordJobsDropped counts n jobs discarded without running.
func RecordJobsDropped(n int) { globalManager.jobsDropped.Add(float64(n)) }

// UpdateJobsPending sets the number of jobs waiting on the heap.
func UpdateJobsPending(n int) { globalManager.jobsPending.Set(float64(n)) }

// RecordJobLateness observes how late a job ran, in milliseconds.
func RecordJobLateness(ms float64) { globalManager.jobLateness.Observe(ms) }

// Notifier.

// RecordNotificationPublished counts a published notification.
func RecordNotificationPublished(kind string) {
	globalManager.notificationsPublished.WithLabelValues(kind).Inc()
}

// RecordNotificationDropped counts a notification a subscriber missed.
func RecordNotificationDropped(kind string) {
	globalManager.notificationsDropped.WithLabelValues(kind).Inc()
}

// RecordNotificationFailed counts a transport failure.
func RecordNotificationFailed(transport string) {
	globalManager.notificationsFailed.WithLabelValues(transport).Inc()
}

// UpdateSubscribers sets the number of attached subscriptions.
func UpdateSubscribers(n int) { globalManager.subscribers.Set(float64(n)) }

// Repository.

// UpdateRepositoryRecordsTotal sets the number of stored records.
func UpdateRepositoryRecordsTotal(n int) { globalManager.repositoryRecords.Set(float64(n)) }

// RecordRepositoryUpdateLatency observes a write latency in milliseconds.
func RecordRepositoryUpdateLatency(ms float64) { globalManager.repositoryUpdateLatency.Observe(ms) }

// RecordRepositoryQueryLatency observes a read latency in milliseconds.
func RecordRepositoryQueryLatency(ms float64) { globalManager.repositoryQueryLatency.Observe(ms) }

// Queue and workers.

// RecordQueueEnqueue counts a job accepted by a worker queue.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueEnqueueError counts a job rejected by a worker queue.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// RecordWorkerProcessingLatency observes job execution time in milliseconds.
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerLatency.Observe(ms) }

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// HTTP.

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByEndpoint counts an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent counts an error raised inside a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) { globalManager.systemGoroutineCount.Set(float64(n)) }

// RecordSystemGCPauseTime observes the average GC pause in milliseconds.
func RecordSystemGCPauseTime(ms float64) { globalManager.systemGCPauseTime.Observe(ms) }

// GetRegistry returns the registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Default returns the global manager.
func Default() *Manager {
	return globalManager
}
