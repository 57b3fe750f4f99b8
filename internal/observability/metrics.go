// Package observability provides Prometheus metrics, OpenTelemetry tracing,
// and structured logging for cv-git.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector holds all Prometheus metrics for cv-git.
type MetricsCollector struct {
	// Command metrics (one cv invocation)
	CommandsTotal    *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	CommandsInFlight *prometheus.GaugeVec
	CommandErrors    *prometheus.CounterVec

	// Sync metrics
	SyncOperationsTotal *prometheus.CounterVec
	SyncDuration        *prometheus.HistogramVec
	FilesProcessedTotal prometheus.Counter
	FilesFailedTotal    prometheus.Counter
	ChunksEmbeddedTotal prometheus.Counter
	SymbolsIndexedTotal prometheus.Counter
	SyncErrorsTotal     *prometheus.CounterVec

	// Embedding metrics
	EmbeddingRequests    *prometheus.CounterVec
	EmbeddingDuration    *prometheus.HistogramVec
	EmbeddingCacheHits   prometheus.Counter
	EmbeddingCacheMisses prometheus.Counter
	EmbeddingErrorsTotal *prometheus.CounterVec

	// Query cache metrics (semantic/graph query cache, spec.md §5)
	SearchCacheHits   prometheus.Counter
	SearchCacheMisses prometheus.Counter

	// Graph store metrics
	GraphQueriesTotal *prometheus.CounterVec
	GraphQueryDuration *prometheus.HistogramVec

	// Vector store metrics
	VectorSearchRequests *prometheus.CounterVec
	VectorSearchDuration *prometheus.HistogramVec
	VectorSearchResults  *prometheus.HistogramVec
	VectorStoreSize      prometheus.Gauge

	// Credential store metrics
	CredentialOperationsTotal *prometheus.CounterVec
	CredentialErrorsTotal     *prometheus.CounterVec

	// Platform adapter metrics (GitHub/GitLab API calls)
	PlatformRequestsTotal   *prometheus.CounterVec
	PlatformRequestDuration *prometheus.HistogramVec

	// System metrics
	SystemStartTime prometheus.Gauge
	SystemHealth    *prometheus.GaugeVec
}

// NewMetricsCollector creates and registers all Prometheus metrics.
func NewMetricsCollector(namespace string) *MetricsCollector {
	return NewMetricsCollectorWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates metrics with a specific registry (for testing).
func NewMetricsCollectorWithRegistry(namespace string, reg prometheus.Registerer) *MetricsCollector {
	if namespace == "" {
		namespace = "cvgit"
	}

	// Helper function to create auto-registered metrics
	autoCounterVec := func(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
		return promauto.With(reg).NewCounterVec(opts, labelNames)
	}

	autoHistogramVec := func(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
		return promauto.With(reg).NewHistogramVec(opts, labelNames)
	}

	autoGaugeVec := func(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
		return promauto.With(reg).NewGaugeVec(opts, labelNames)
	}

	autoCounter := func(opts prometheus.CounterOpts) prometheus.Counter {
		return promauto.With(reg).NewCounter(opts)
	}

	autoGauge := func(opts prometheus.GaugeOpts) prometheus.Gauge {
		return promauto.With(reg).NewGauge(opts)
	}

	return &MetricsCollector{
		// Command metrics
		CommandsTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of cv command invocations by command and status",
			},
			[]string{"command", "status"},
		),
		CommandDuration: autoHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command execution duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"command"},
		),
		CommandsInFlight: autoGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "commands_in_flight",
				Help:      "Number of cv commands currently executing",
			},
			[]string{"command"},
		),
		CommandErrors: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "command_errors_total",
				Help:      "Total number of command errors by command and error kind",
			},
			[]string{"command", "error_type"},
		),

		// Sync metrics
		SyncOperationsTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_operations_total",
				Help:      "Total number of sync runs by type (full/incremental) and status",
			},
			[]string{"operation", "status"},
		),
		SyncDuration: autoHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Sync run duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"operation"},
		),
		FilesProcessedTotal: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_files_processed_total",
				Help:      "Total number of files processed by sync",
			},
		),
		FilesFailedTotal: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_files_failed_total",
				Help:      "Total number of files that failed during sync",
			},
		),
		ChunksEmbeddedTotal: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_chunks_embedded_total",
				Help:      "Total number of chunks embedded by sync",
			},
		),
		SymbolsIndexedTotal: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_symbols_indexed_total",
				Help:      "Total number of symbols written to the graph store by sync",
			},
		),
		SyncErrorsTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_errors_total",
				Help:      "Total number of sync errors by phase (parse/embed/store)",
			},
			[]string{"phase"},
		),

		// Embedding metrics
		EmbeddingRequests: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_requests_total",
				Help:      "Total number of embedding requests by provider and status",
			},
			[]string{"provider", "status"},
		),
		EmbeddingDuration: autoHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "embedding_duration_seconds",
				Help:      "Embedding generation duration in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"provider"},
		),
		EmbeddingCacheHits: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_cache_hits_total",
				Help:      "Total number of embedding cache hits",
			},
		),
		EmbeddingCacheMisses: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_cache_misses_total",
				Help:      "Total number of embedding cache misses",
			},
		),
		SearchCacheHits: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_cache_hits_total",
				Help:      "Total number of query cache hits (find/explain/graph)",
			},
		),
		SearchCacheMisses: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_cache_misses_total",
				Help:      "Total number of query cache misses (find/explain/graph)",
			},
		),
		EmbeddingErrorsTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_errors_total",
				Help:      "Total number of embedding errors by provider and type",
			},
			[]string{"provider", "error_type"},
		),

		// Graph store metrics
		GraphQueriesTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_queries_total",
				Help:      "Total number of graph store queries by query type and status",
			},
			[]string{"query_type", "status"},
		),
		GraphQueryDuration: autoHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_query_duration_seconds",
				Help:      "Graph store query duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .5, 1},
			},
			[]string{"query_type"},
		),

		// Vector store metrics
		VectorSearchRequests: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vector_search_requests_total",
				Help:      "Total number of vector search requests by type and status",
			},
			[]string{"search_type", "status"},
		),
		VectorSearchDuration: autoHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "vector_search_duration_seconds",
				Help:      "Vector search duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"search_type"},
		),
		VectorSearchResults: autoHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "vector_search_results_count",
				Help:      "Number of results returned by vector search",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"search_type"},
		),
		VectorStoreSize: autoGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "vector_store_size_bytes",
				Help:      "Total size of the vector store on disk, in bytes",
			},
		),

		// Credential store metrics
		CredentialOperationsTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credential_operations_total",
				Help:      "Total number of credential store operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		CredentialErrorsTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credential_errors_total",
				Help:      "Total number of credential store errors by type",
			},
			[]string{"error_type"},
		),

		// Platform adapter metrics
		PlatformRequestsTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "platform_requests_total",
				Help:      "Total number of hosting-platform API requests by platform, operation, and status",
			},
			[]string{"platform", "operation", "status"},
		),
		PlatformRequestDuration: autoHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "platform_request_duration_seconds",
				Help:      "Hosting-platform API request duration in seconds",
				Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"platform", "operation"},
		),

		// System metrics
		SystemStartTime: autoGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_start_time_seconds",
				Help:      "Unix timestamp when the process started",
			},
		),
		SystemHealth: autoGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_health_status",
				Help:      "Health status of cv-git components (1 = healthy, 0 = unhealthy)",
			},
			[]string{"component"},
		),
	}
}

// RecordCommand records metrics for a completed cv command invocation.
func (m *MetricsCollector) RecordCommand(command, status string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(command, status).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordCommandError records a command error by its cverrors.Kind.
func (m *MetricsCollector) RecordCommandError(command, errorType string) {
	m.CommandErrors.WithLabelValues(command, errorType).Inc()
}

// TrackCommandInFlight tracks in-flight command executions.
func (m *MetricsCollector) TrackCommandInFlight(command string, delta float64) {
	m.CommandsInFlight.WithLabelValues(command).Add(delta)
}

// RecordSyncOperation records metrics for a completed sync run.
func (m *MetricsCollector) RecordSyncOperation(operation, status string, duration time.Duration) {
	m.SyncOperationsTotal.WithLabelValues(operation, status).Inc()
	m.SyncDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFilesProcessed increments the files-processed counter.
func (m *MetricsCollector) RecordFilesProcessed(count int) {
	m.FilesProcessedTotal.Add(float64(count))
}

// RecordFilesFailed increments the files-failed counter.
func (m *MetricsCollector) RecordFilesFailed(count int) {
	m.FilesFailedTotal.Add(float64(count))
}

// RecordChunksEmbedded increments the chunks-embedded counter.
func (m *MetricsCollector) RecordChunksEmbedded(count int) {
	m.ChunksEmbeddedTotal.Add(float64(count))
}

// RecordSymbolsIndexed increments the symbols-indexed counter.
func (m *MetricsCollector) RecordSymbolsIndexed(count int) {
	m.SymbolsIndexedTotal.Add(float64(count))
}

// RecordSyncError records a sync error for the given phase (parse/embed/store).
func (m *MetricsCollector) RecordSyncError(phase string) {
	m.SyncErrorsTotal.WithLabelValues(phase).Inc()
}

// RecordEmbedding records metrics for an embedding request.
func (m *MetricsCollector) RecordEmbedding(provider, status string, duration time.Duration) {
	m.EmbeddingRequests.WithLabelValues(provider, status).Inc()
	m.EmbeddingDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordEmbeddingCacheHit records a cache hit.
func (m *MetricsCollector) RecordEmbeddingCacheHit() {
	m.EmbeddingCacheHits.Inc()
}

// RecordEmbeddingCacheMiss records a cache miss.
func (m *MetricsCollector) RecordEmbeddingCacheMiss() {
	m.EmbeddingCacheMisses.Inc()
}

// RecordSearchCacheHit records a query cache hit.
func (m *MetricsCollector) RecordSearchCacheHit() {
	m.SearchCacheHits.Inc()
}

// RecordSearchCacheMiss records a query cache miss.
func (m *MetricsCollector) RecordSearchCacheMiss() {
	m.SearchCacheMisses.Inc()
}

// RecordEmbeddingError records an embedding error.
func (m *MetricsCollector) RecordEmbeddingError(provider, errorType string) {
	m.EmbeddingErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// RecordGraphQuery records metrics for a graph store query (callers/callees/neighborhood/path/impact).
func (m *MetricsCollector) RecordGraphQuery(queryType, status string, duration time.Duration) {
	m.GraphQueriesTotal.WithLabelValues(queryType, status).Inc()
	m.GraphQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
}

// RecordVectorSearch records metrics for a vector search request.
func (m *MetricsCollector) RecordVectorSearch(searchType, status string, duration time.Duration, resultCount int) {
	m.VectorSearchRequests.WithLabelValues(searchType, status).Inc()
	m.VectorSearchDuration.WithLabelValues(searchType).Observe(duration.Seconds())
	m.VectorSearchResults.WithLabelValues(searchType).Observe(float64(resultCount))
}

// UpdateVectorStoreSize updates the vector store size metric.
func (m *MetricsCollector) UpdateVectorStoreSize(sizeBytes int64) {
	m.VectorStoreSize.Set(float64(sizeBytes))
}

// RecordCredentialOperation records metrics for a credential store operation (set/get/list/delete).
func (m *MetricsCollector) RecordCredentialOperation(operation, status string) {
	m.CredentialOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordCredentialError records a credential store error.
func (m *MetricsCollector) RecordCredentialError(errorType string) {
	m.CredentialErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordPlatformRequest records metrics for a hosting-platform API request.
func (m *MetricsCollector) RecordPlatformRequest(platform, operation, status string, duration time.Duration) {
	m.PlatformRequestsTotal.WithLabelValues(platform, operation, status).Inc()
	m.PlatformRequestDuration.WithLabelValues(platform, operation).Observe(duration.Seconds())
}

// SetSystemStartTime sets the system start time.
func (m *MetricsCollector) SetSystemStartTime(startTime time.Time) {
	m.SystemStartTime.Set(float64(startTime.Unix()))
}

// SetComponentHealth sets the health status of a component.
func (m *MetricsCollector) SetComponentHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.SystemHealth.WithLabelValues(component).Set(value)
}
