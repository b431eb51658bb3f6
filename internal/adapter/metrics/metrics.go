package metrics

import (
	"strconv"
	"strings"
	"time"

	"fintech-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service's Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	settlementRuns      *prometheus.CounterVec
	settlementCards     *prometheus.CounterVec
	settlementCollected prometheus.Counter
	settlementDuration  prometheus.Histogram
}

// New creates a Collector whose metric names start with namespace.
func New(namespace string) *Collector {
	ns := strings.ReplaceAll(namespace, "-", "_")
	c := &Collector{registry: prometheus.NewRegistry()}

	c.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	c.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	c.settlementRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "settlement_runs_total",
			Help:      "Settlement sweeps by result",
		},
		[]string{"result"},
	)
	c.settlementCards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "settlement_cards_total",
			Help:      "Cards processed by the settlement sweep, by outcome",
		},
		[]string{"outcome"},
	)
	c.settlementCollected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "settlement_collected_amount_total",
			Help:      "Currency units collected from accounts by settlement",
		},
	)
	c.settlementDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "settlement_duration_seconds",
			Help:      "Wall time of one settlement sweep",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.settlementRuns,
		c.settlementCards,
		c.settlementCollected,
		c.settlementDuration,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Middleware records request counts and latency per route pattern.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		method := ctx.Request.Method
		status := strconv.Itoa(ctx.Writer.Status())

		c.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
	return func(ctx *gin.Context) {
		h.ServeHTTP(ctx.Writer, ctx.Request)
	}
}

// ObserveSettlement records a finished sweep.
func (c *Collector) ObserveSettlement(report *ports.SettlementReport, elapsed time.Duration) {
	c.settlementRuns.WithLabelValues(string(ports.SettlementRunCompleted)).Inc()
	c.settlementDuration.Observe(elapsed.Seconds())
	c.settlementCards.WithLabelValues("settled").Add(float64(report.Settled))
	c.settlementCards.WithLabelValues("stopped").Add(float64(report.Stopped))
	c.settlementCards.WithLabelValues("skipped").Add(float64(report.Skipped))
	c.settlementCards.WithLabelValues("failed").Add(float64(report.Failed))
	c.settlementCollected.Add(float64(report.Collected))
}

// SettlementRun counts a sweep that ended without a report.
func (c *Collector) SettlementRun(result ports.SettlementRunResult) {
	c.settlementRuns.WithLabelValues(string(result)).Inc()
}
