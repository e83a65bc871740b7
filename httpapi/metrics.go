package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics served at /metrics.
type Collector struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	chatOutcomes *prometheus.CounterVec
	recognized   prometheus.Counter
}

// NewCollector creates the collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "makefoods_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "makefoods_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		chatOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "makefoods_chat_outcomes_total",
			Help: "Chat operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		recognized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "makefoods_recognized_items_total",
			Help: "Total number of items recognized from images",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.duration,
		c.chatOutcomes,
		c.recognized,
	)

	return c
}

func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordOutcome counts one finished chat operation.
func (c *Collector) RecordOutcome(operation, outcome string) {
	c.chatOutcomes.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) RecordRecognized(count int) {
	c.recognized.Add(float64(count))
}

// MetricsHandler serves the gathered metrics in the Prometheus text format.
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
