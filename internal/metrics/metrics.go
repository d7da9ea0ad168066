// Package metrics holds the Prometheus collectors for MCP and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "holmes"

// Metrics owns a registry so tests and multiple servers do not collide on the
// global one.
type Metrics struct {
	Registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	toolCallsTotal  *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	resourceReads   *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		toolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of MCP tool calls by outcome",
			},
			[]string{"tool", "outcome"}, // outcome: ok, error
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_call_duration_seconds",
				Help:      "Duration of MCP tool calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		resourceReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resource_reads_total",
				Help:      "Total number of MCP resource reads by scheme",
			},
			[]string{"scheme", "outcome"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.toolCallsTotal,
		m.toolDuration,
		m.resourceReads,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveHTTP records one completed HTTP request. path should be a route
// pattern, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// ObserveTool records one tool call. A call fails when the handler returned
// an error or flagged its result as an error.
func (m *Metrics) ObserveTool(tool string, failed bool, d time.Duration) {
	m.toolCallsTotal.WithLabelValues(tool, outcome(failed)).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveResource records one resource read.
func (m *Metrics) ObserveResource(scheme string, failed bool) {
	m.resourceReads.WithLabelValues(scheme, outcome(failed)).Inc()
}

func outcome(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}
