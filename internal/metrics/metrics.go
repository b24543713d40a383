package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recompute outcomes
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeError   = "error"
)

// Metrics holds the collectors of one process on its own registry
type Metrics struct {
	Registry *prometheus.Registry

	Recomputes        *prometheus.CounterVec
	RecomputeDuration prometheus.Histogram
	Pages             prometheus.Gauge
	Blocks            prometheus.Gauge

	Exports        *prometheus.CounterVec
	ExportDuration prometheus.Histogram
	ExportedPages  prometheus.Counter

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Recomputes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gomprova_recomputes_total",
				Help: "Pagination recomputations by outcome",
			},
			[]string{"outcome"},
		),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gomprova_recompute_duration_seconds",
			Help:    "Duration of measure, paginate and compose",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}),
		Pages: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gomprova_pages",
			Help: "Sheets in the last applied layout",
		}),
		Blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gomprova_blocks",
			Help: "Blocks in the last applied layout",
		}),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gomprova_exports_total",
				Help: "Exports by outcome",
			},
			[]string{"outcome"},
		),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gomprova_export_duration_seconds",
			Help:    "Duration of exports",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		ExportedPages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gomprova_exported_pages_total",
			Help: "Pages written by successful exports",
		}),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
	}
	m.Registry.MustRegister(
		m.Recomputes, m.RecomputeDuration, m.Pages, m.Blocks,
		m.Exports, m.ExportDuration, m.ExportedPages,
		m.RequestCounter, m.RequestDuration,
	)
	return m
}

// ObserveRecompute records one recomputation
func (m *Metrics) ObserveRecompute(outcome string, d time.Duration, blocks, pages int) {
	m.Recomputes.WithLabelValues(outcome).Inc()
	m.RecomputeDuration.Observe(d.Seconds())
	if outcome == OutcomeApplied {
		m.Blocks.Set(float64(blocks))
		m.Pages.Set(float64(pages))
	}
}

// ObserveExport records one export
func (m *Metrics) ObserveExport(pages int, d time.Duration, err error) {
	if err != nil {
		m.Exports.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.Exports.WithLabelValues(OutcomeApplied).Inc()
	m.ExportDuration.Observe(d.Seconds())
	m.ExportedPages.Add(float64(pages))
}

// Middleware counts and times gin requests by route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
