package metrics

import (
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

/* ========================================================================
 * Prometheus Metrics
 * ========================================================================
 * Shared collectors for every siteplane service plus the /metrics
 * endpoint.
 * ======================================================================== */

var (
	// HTTPRequestDuration times HTTP requests.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "siteplane",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestTotal counts HTTP requests.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siteplane",
			Subsystem: "http",
			Name:      "request_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// DBQueryDuration times database statements, labelled by gorm
	// operation and table. Populated by the GormPlugin.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "siteplane",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// ScopeViolationTotal counts rejected or refused tenant-scoping
	// attempts seen by the repository layer. Any non-zero rate is worth
	// an alert: it is either an attack or a caller bug.
	ScopeViolationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siteplane",
			Subsystem: "repository",
			Name:      "scope_violation_total",
			Help:      "Total number of tenant scope violations detected",
		},
		[]string{"entity", "kind"},
	)
)

// RegisterMetricsEndpoint mounts promhttp at /metrics.
func RegisterMetricsEndpoint(app *fiber.App) {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c fiber.Ctx) error {
		handler(c.RequestCtx())
		return nil
	})
}

// NewCounter creates a custom counter.
func NewCounter(namespace, subsystem, name, help string, labels []string) *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewGauge creates a custom gauge.
func NewGauge(namespace, subsystem, name, help string, labels []string) *prometheus.GaugeVec {
	return promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewHistogram creates a custom histogram.
func NewHistogram(namespace, subsystem, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}
