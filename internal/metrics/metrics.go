// Package metrics exposes Prometheus instrumentation for the tool
// pipeline. Collectors are registered on a caller-supplied registerer
// so tests can use isolated registries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Execution outcome label values.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeDenied      = "denied"
	OutcomeBlocked     = "blocked"
	OutcomeNotFound    = "not_found"
	OutcomeInvalidArgs = "invalid_args"
	OutcomeRateLimited = "rate_limited"
)

// Metrics holds the pipeline's collectors.
type Metrics struct {
	executions  *prometheus.CounterVec
	approvals   *prometheus.CounterVec
	truncations prometheus.Counter
	duration    *prometheus.HistogramVec
}

// New creates and registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wrench_tool_executions_total",
			Help: "Tool calls processed, by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wrench_tool_approvals_total",
			Help: "Approval gate decisions, by tool name and decision.",
		}, []string{"tool", "decision"}),
		truncations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wrench_result_truncations_total",
			Help: "Tool results truncated by the size limit.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wrench_tool_duration_seconds",
			Help:    "Tool execution duration.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"tool"}),
	}
	reg.MustRegister(m.executions, m.approvals, m.truncations, m.duration)
	return m
}

// RecordExecution counts one processed call with its outcome.
func (m *Metrics) RecordExecution(toolName, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(toolName, outcome).Inc()
	m.duration.WithLabelValues(toolName).Observe(elapsed.Seconds())
}

// RecordApproval counts one approval gate decision.
func (m *Metrics) RecordApproval(toolName, decision string) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(toolName, decision).Inc()
}

// RecordTruncation counts one size-limited result.
func (m *Metrics) RecordTruncation() {
	if m == nil {
		return
	}
	m.truncations.Inc()
}
