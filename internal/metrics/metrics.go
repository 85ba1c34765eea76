// Package metrics exposes Prometheus instrumentation for workflow runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records run and node level execution metrics. A nil *Collector
// is valid and records nothing.
type Collector struct {
	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	nodeExecutions *prometheus.CounterVec
	nodeDuration   *prometheus.HistogramVec
	eventsDropped  prometheus.Counter
}

// NewCollector registers the workflow metrics with reg under the given
// namespace.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      "Workflow runs by final status.",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_run_duration_seconds",
			Help:      "Wall time of complete workflow runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		nodeExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_node_executions_total",
			Help:      "Node handler executions by node type and outcome.",
		}, []string{"node_type", "status"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_node_duration_seconds",
			Help:      "Node handler execution time by node type.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"node_type"}),
		eventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_events_dropped_total",
			Help:      "Execution events dropped by full run sinks.",
		}),
	}
}

// RunFinished records one completed run.
func (c *Collector) RunFinished(status string, d time.Duration) {
	if c == nil {
		return
	}
	c.runsTotal.WithLabelValues(status).Inc()
	c.runDuration.Observe(d.Seconds())
}

// NodeExecuted records one node handler execution.
func (c *Collector) NodeExecuted(nodeType, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.nodeExecutions.WithLabelValues(nodeType, status).Inc()
	c.nodeDuration.WithLabelValues(nodeType).Observe(d.Seconds())
}

// EventDropped records one event discarded by a full sink.
func (c *Collector) EventDropped() {
	if c == nil {
		return
	}
	c.eventsDropped.Inc()
}
