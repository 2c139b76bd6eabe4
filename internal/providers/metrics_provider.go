package providers

import (
	"ponudaplus/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits(collection string)
	IncCacheMisses(collection string)
	ObserveBackupDuration(kind string, duration time.Duration)
	SetBackupSize(kind string, bytes int)
	SetLastBackupTimestamp(t time.Time)
	IncRestoredDocuments(collection, outcome string)
	IncStoreOperations(op, status string)
	ObservePersistenceDuration(duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	backupDuration      *prometheus.HistogramVec
	backupSize          *prometheus.GaugeVec
	lastBackup          prometheus.Gauge
	restoredDocuments   *prometheus.CounterVec
	storeOperations     *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits(collection string) {
	m.cacheHits.WithLabelValues(collection).Inc()
}

func (m *MetricsProvider) IncCacheMisses(collection string) {
	m.cacheMisses.WithLabelValues(collection).Inc()
}

func (m *MetricsProvider) ObserveBackupDuration(kind string, duration time.Duration) {
	m.backupDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *MetricsProvider) SetBackupSize(kind string, bytes int) {
	m.backupSize.WithLabelValues(kind).Set(float64(bytes))
}

func (m *MetricsProvider) SetLastBackupTimestamp(t time.Time) {
	m.lastBackup.Set(float64(t.Unix()))
}

func (m *MetricsProvider) IncRestoredDocuments(collection, outcome string) {
	m.restoredDocuments.WithLabelValues(collection, outcome).Inc()
}

func (m *MetricsProvider) IncStoreOperations(op, status string) {
	m.storeOperations.WithLabelValues(op, status).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ponuda_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ponuda_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ponuda_cache_hits_total",
			Help: "Document cache hits by collection",
		}, []string{"collection"}),

		cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ponuda_cache_misses_total",
			Help: "Document cache misses by collection",
		}, []string{"collection"}),

		backupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ponuda_backup_duration_seconds",
			Help:    "Duration of full database exports in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"kind"}),

		backupSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ponuda_backup_size_bytes",
			Help: "Serialized size of the last backup",
		}, []string{"kind"}),

		lastBackup: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ponuda_last_backup_timestamp_seconds",
			Help: "Unix time of the last successful backup download",
		}),

		restoredDocuments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ponuda_restored_documents_total",
			Help: "Documents processed by restore, by collection and outcome",
		}, []string{"collection", "outcome"}),

		storeOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ponuda_store_operations_total",
			Help: "Document store calls by operation and status",
		}, []string{"op", "status"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ponuda_persistence_duration_seconds",
			Help:    "Duration of local key-value flushes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits(_ string)                            {}
func (n *noopMetrics) IncCacheMisses(_ string)                          {}
func (n *noopMetrics) ObserveBackupDuration(_ string, _ time.Duration)  {}
func (n *noopMetrics) SetBackupSize(_ string, _ int)                    {}
func (n *noopMetrics) SetLastBackupTimestamp(_ time.Time)               {}
func (n *noopMetrics) IncRestoredDocuments(_, _ string)                 {}
func (n *noopMetrics) IncStoreOperations(_, _ string)                   {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
