package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// Metric family names read back by Snapshot.
const (
	metricRequestDuration = "planner_request_duration_seconds"
	metricExternalErrors  = "planner_external_errors_total"
	metricCacheHits       = "planner_cache_hits_total"
	metricCacheMisses     = "planner_cache_misses_total"
	metricViewsBuilt      = "planner_views_built_total"
	metricDataWarnings    = "planner_data_warnings_total"
	metricRequestsTotal   = "planner_requests_total"
)

// Cache label values.
const (
	CacheItems  = "items"
	CacheViews  = "views"
	CacheAccess = "access"
)

// Metrics holds all Prometheus metrics for the planner.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	viewsBuilt      *prometheus.CounterVec
	dataWarnings    *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricRequestDuration,
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricExternalErrors,
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricCacheHits,
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricCacheMisses,
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		viewsBuilt: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricViewsBuilt,
				Help: "Total planning views built by the engine.",
			},
			[]string{"view"},
		),
		dataWarnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricDataWarnings,
				Help: "Data-quality warnings raised while building views, by field.",
			},
			[]string{"field"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricRequestsTotal,
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrViewBuilt counts an engine run ("timeline", "timeframes", "summary").
func (m *Metrics) IncrViewBuilt(view string) {
	m.viewsBuilt.WithLabelValues(view).Inc()
}

// AddDataWarning counts one data-quality warning on field.
func (m *Metrics) AddDataWarning(field string) {
	m.dataWarnings.WithLabelValues(field).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// Snapshot summarizes the registry for GET /v1/metrics/engine.
func (m *Metrics) Snapshot() *domain.EngineMetrics {
	families, err := m.Registry.Gather()
	if err != nil {
		return &domain.EngineMetrics{Period: "all_time"}
	}

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	totalRequests := sumCounter(byName[metricRequestsTotal], "", "")
	errorRequests := sumCounter(byName[metricRequestsTotal], "status", "error")

	snap := &domain.EngineMetrics{
		ViewsBuilt:     int64(sumCounter(byName[metricViewsBuilt], "", "")),
		DataWarnings:   int64(sumCounter(byName[metricDataWarnings], "", "")),
		ExternalErrors: int64(sumCounter(byName[metricExternalErrors], "", "")),
		TotalRequests:  int64(totalRequests),
		ItemsCacheHit:  hitRate(byName, CacheItems),
		ViewsCacheHit:  hitRate(byName, CacheViews),
		Period:         "all_time",
	}
	if totalRequests > 0 {
		snap.ErrorRate = errorRequests / totalRequests
	}
	return snap
}

func hitRate(byName map[string]*dto.MetricFamily, cache string) float64 {
	hits := sumCounter(byName[metricCacheHits], "cache", cache)
	misses := sumCounter(byName[metricCacheMisses], "cache", cache)
	if hits+misses == 0 {
		return 0
	}
	return hits / (hits + misses)
}

// sumCounter adds up a counter family, optionally restricted to series whose
// label equals value.
func sumCounter(f *dto.MetricFamily, label, value string) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, metric := range f.GetMetric() {
		if label != "" && !hasLabel(metric, label, value) {
			continue
		}
		total += metric.GetCounter().GetValue()
	}
	return total
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
