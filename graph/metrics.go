package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics records workflow execution metrics.
//
// Metrics exposed (namespace "graphflow"):
//
//	inflight_runs (gauge)                       runs currently traversing
//	runs_total{graph_id,status} (counter)       finished runs by final status
//	node_latency_ms{graph_id,node_id} (hist)    node execution duration
//	node_failures_total{graph_id,node_id} (ctr) tool failures caught at a node
//	loopbacks_total{graph_id,from,to} (counter) conditional edges taken
//
// Run ids are deliberately not used as labels.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	wf, _ := graph.New("g", def, reg, graph.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type PrometheusMetrics struct {
	inflightRuns prometheus.Gauge
	runs         *prometheus.CounterVec
	nodeLatency  *prometheus.HistogramVec
	nodeFailures *prometheus.CounterVec
	loopbacks    *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates the collectors and registers them with
// registry. A nil registry uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		enabled: true,
		inflightRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "graphflow",
			Name:      "inflight_runs",
			Help:      "Number of runs currently traversing their workflow",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphflow",
			Name:      "runs_total",
			Help:      "Finished runs by final status",
		}, []string{"graph_id", "status"}),
		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "graphflow",
			Name:      "node_latency_ms",
			Help:      "Node execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"graph_id", "node_id"}),
		nodeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphflow",
			Name:      "node_failures_total",
			Help:      "Tool failures caught at a node boundary",
		}, []string{"graph_id", "node_id"}),
		loopbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphflow",
			Name:      "loopbacks_total",
			Help:      "Conditional edges taken",
		}, []string{"graph_id", "from", "to"}),
	}
}

func (pm *PrometheusMetrics) on() bool {
	if pm == nil {
		return false
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// RunStarted increments the in-flight gauge.
func (pm *PrometheusMetrics) RunStarted() {
	if !pm.on() {
		return
	}
	pm.inflightRuns.Inc()
}

// RunFinished decrements the in-flight gauge and counts the final status.
func (pm *PrometheusMetrics) RunFinished(graphID string, status Status) {
	if !pm.on() {
		return
	}
	pm.inflightRuns.Dec()
	pm.runs.WithLabelValues(graphID, string(status)).Inc()
}

// RecordNodeLatency observes one node execution.
func (pm *PrometheusMetrics) RecordNodeLatency(graphID, nodeID string, latency time.Duration) {
	if !pm.on() {
		return
	}
	pm.nodeLatency.WithLabelValues(graphID, nodeID).Observe(float64(latency.Milliseconds()))
}

// IncrementNodeFailures counts a tool failure at nodeID.
func (pm *PrometheusMetrics) IncrementNodeFailures(graphID, nodeID string) {
	if !pm.on() {
		return
	}
	pm.nodeFailures.WithLabelValues(graphID, nodeID).Inc()
}

// IncrementLoopbacks counts a conditional edge taken from one node to another.
func (pm *PrometheusMetrics) IncrementLoopbacks(graphID, from, to string) {
	if !pm.on() {
		return
	}
	pm.loopbacks.WithLabelValues(graphID, from, to).Inc()
}

// Disable stops recording until Enable is called.
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable resumes recording.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
