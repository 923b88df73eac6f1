// Package metrics provides Prometheus metrics for the chat relay.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay collectors.
type Metrics struct {
	registry *prometheus.Registry

	ChatRequestsTotal       *prometheus.CounterVec
	ChatRequestsInFlight    prometheus.Gauge
	ProviderCallDuration    *prometheus.HistogramVec
	RateLimitedRequestTotal prometheus.Counter
}

// New creates the collectors and registers them on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_chat_requests_total",
			Help: "Total number of chat requests by outcome",
		},
		[]string{"outcome"},
	)
	m.ChatRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_chat_requests_in_flight",
			Help: "Number of chat requests waiting on the completion provider",
		},
	)
	m.ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_provider_call_duration_seconds",
			Help:    "Duration of completion provider calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"outcome"},
	)
	m.RateLimitedRequestTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	m.registry.MustRegister(
		m.ChatRequestsTotal,
		m.ChatRequestsInFlight,
		m.ProviderCallDuration,
		m.RateLimitedRequestTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordChat records the outcome of a chat request.
func (m *Metrics) RecordChat(outcome string) {
	m.ChatRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordProviderCall records how long a provider call took.
func (m *Metrics) RecordProviderCall(outcome string, d time.Duration) {
	m.ProviderCallDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordRateLimited counts a rejected request.
func (m *Metrics) RecordRateLimited() {
	m.RateLimitedRequestTotal.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
