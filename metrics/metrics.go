// Package metrics exposes Prometheus metrics for the newsmap API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one server.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	countryMatches  *prometheus.CounterVec
	notifications   prometheus.Counter
}

// New creates a Metrics with its own registry, so tests and multiple servers
// don't collide on the default one.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsmap",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "newsmap",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		countryMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsmap",
			Name:      "country_matches_total",
			Help:      "Country match decisions by the rule that resolved them.",
		}, []string{"rule"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "newsmap",
			Name:      "notifications_sent_total",
			Help:      "Notifications recorded for subscribers.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.countryMatches,
		m.notifications,
		collectors.NewGoCollector(),
	)

	return m
}

// Middleware records request counts and latency. Unmatched routes are
// grouped under "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObserveMatch counts a match decision. An empty rule means no match.
func (m *Metrics) ObserveMatch(rule string) {
	if m == nil {
		return
	}
	if rule == "" {
		rule = "none"
	}
	m.countryMatches.WithLabelValues(rule).Inc()
}

// AddNotifications counts recorded notifications.
func (m *Metrics) AddNotifications(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.notifications.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
