package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hypotest/domain/stats"
)

// Metrics holds the Prometheus collectors of the HTTP API on a private registry
type Metrics struct {
	registry            *prometheus.Registry
	comparisons         *prometheus.CounterVec
	comparisonErrors    *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		comparisons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hypotest",
			Name:      "comparisons_total",
			Help:      "Completed mean comparisons by method and decision.",
		}, []string{"method", "decision"}),
		comparisonErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hypotest",
			Name:      "comparison_errors_total",
			Help:      "Failed API requests by error code.",
		}, []string{"code"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hypotest",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeComparison(r stats.TestResult) {
	if m == nil {
		return
	}
	decision := "retain"
	if r.RejectNull {
		decision = "reject"
	}
	m.comparisons.WithLabelValues(string(r.Method), decision).Inc()
}

func (m *Metrics) observeError(code string) {
	if m == nil {
		return
	}
	m.comparisonErrors.WithLabelValues(code).Inc()
}

// instrument records the latency of every request by matched route
func (m *Metrics) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestDuration.
			WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
