package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the request-level and outbound-call Prometheus collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	outbound *prometheus.CounterVec
}

// NewMetrics builds and registers the collectors on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Count of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "klaviyo_requests_total",
			Help: "Count of outbound Klaviyo API calls by endpoint and status. Status 0 is a transport failure.",
		}, []string{"endpoint", "status"}),
	}
	reg.MustRegister(m.requests, m.latency, m.outbound)
	return m
}

// RecordOutbound counts one remote API call. It satisfies the Klaviyo
// client's recorder interface.
func (m *Metrics) RecordOutbound(endpoint string, statusCode int) {
	m.outbound.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// Handler records request counts and latency per route.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
