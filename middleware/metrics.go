package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for HTTP traffic and scores
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	scores   *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg, panicking on duplicate registration
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ai_mapper",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ai_mapper",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	scores := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ai_mapper",
			Subsystem: "analyzer",
			Name:      "score",
			Help:      "Distribution of produced SEO and GEO scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"kind"},
	)

	reg.MustRegister(requests, duration, scores)

	return &Metrics{
		requests: requests,
		duration: duration,
		scores:   scores,
	}
}

// Handler records request counts and latencies
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveScores records a produced pair of scores
func (m *Metrics) ObserveScores(seo, geo int) {
	if m == nil {
		return
	}
	m.scores.WithLabelValues("seo").Observe(float64(seo))
	m.scores.WithLabelValues("geo").Observe(float64(geo))
}
