package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Invocation and node status labels.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusInvalid  = "invalid"
	StatusCanceled = "canceled"
)

// PrometheusMetrics collects graph execution metrics.
//
// Metrics exposed (all namespaced with "chatgraph_"):
//
//  1. invocations_total (counter): completed Invoke calls.
//     Labels: graph, status (success/error/invalid/canceled).
//  2. node_latency_ms (histogram): node execution duration.
//     Labels: graph, node, status.
//     Buckets: [1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000].
//  3. inflight_invocations (gauge): Invoke calls currently running.
//     Labels: graph.
//
// A nil *PrometheusMetrics is valid and records nothing, so graphs
// compiled without WithMetrics pay no cost.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	g, _ := builder.Compile(graph.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type PrometheusMetrics struct {
	invocations *prometheus.CounterVec
	nodeLatency *prometheus.HistogramVec
	inflight    *prometheus.GaugeVec
}

// NewPrometheusMetrics creates and registers all graph metrics with the
// given registry. A nil registry means prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &PrometheusMetrics{
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatgraph",
			Name:      "invocations_total",
			Help:      "Total number of completed graph invocations",
		}, []string{"graph", "status"}),

		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatgraph",
			Name:      "node_latency_ms",
			Help:      "Node execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000},
		}, []string{"graph", "node", "status"}),

		inflight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "chatgraph",
			Name:      "inflight_invocations",
			Help:      "Number of graph invocations currently executing",
		}, []string{"graph"}),
	}
}

func (pm *PrometheusMetrics) invocationStarted(graph string) {
	if pm == nil {
		return
	}
	pm.inflight.WithLabelValues(graph).Inc()
}

func (pm *PrometheusMetrics) invocationDone(graph string) {
	if pm == nil {
		return
	}
	pm.inflight.WithLabelValues(graph).Dec()
}

func (pm *PrometheusMetrics) observeInvocation(graph, status string) {
	if pm == nil {
		return
	}
	pm.invocations.WithLabelValues(graph, status).Inc()
}

func (pm *PrometheusMetrics) observeNode(graph, node, status string, latency time.Duration) {
	if pm == nil {
		return
	}
	pm.nodeLatency.WithLabelValues(graph, node, status).Observe(float64(latency) / float64(time.Millisecond))
}
