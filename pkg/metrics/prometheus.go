// Package metrics provides Prometheus-based instrumentation for the
// simulation: oracle traffic, parser recoveries, tool dispatch, and
// reflection activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder records simulation metrics. It implements
// oracle.Recorder for completion observations.
type PrometheusRecorder struct {
	oracleRequestsTotal *prometheus.CounterVec
	oracleDuration      *prometheus.HistogramVec
	oracleChars         *prometheus.CounterVec
	parseRecoveries     *prometheus.CounterVec
	toolExecutions      *prometheus.CounterVec
	reflectionsTotal    *prometheus.CounterVec
	ticksTotal          *prometheus.CounterVec
}

// NewPrometheusRecorder creates and registers the simulation metrics.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		oracleRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_requests_total",
				Help: "Total completions requested, by model, agent, status, and error type",
			},
			[]string{"model", "agent_id", "status", "error_type"},
		),
		oracleDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oracle_request_duration_seconds",
				Help:    "Completion latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "agent_id"},
		),
		oracleChars: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_chars_total",
				Help: "Characters exchanged with the oracle, by direction",
			},
			[]string{"model", "agent_id", "direction"},
		),
		parseRecoveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parse_recoveries_total",
				Help: "Oracle output parse outcomes, by layer that resolved them",
			},
			[]string{"agent_id", "layer"},
		),
		toolExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Tool dispatches, by tool and outcome",
			},
			[]string{"agent_id", "tool", "status"},
		),
		reflectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reflections_total",
				Help: "Reflection runs, by outcome",
			},
			[]string{"agent_id", "status"},
		),
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_ticks_total",
				Help: "Agent step loop ticks, by outcome",
			},
			[]string{"agent_id", "status"},
		),
	}
}

// ObserveCompletion implements oracle.Recorder.
func (r *PrometheusRecorder) ObserveCompletion(model, agentID string, promptChars, completionChars int, success bool, errorType string, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	r.oracleRequestsTotal.WithLabelValues(model, agentID, status, errorType).Inc()
	r.oracleDuration.WithLabelValues(model, agentID).Observe(duration.Seconds())
	r.oracleChars.WithLabelValues(model, agentID, "prompt").Add(float64(promptChars))
	r.oracleChars.WithLabelValues(model, agentID, "completion").Add(float64(completionChars))
}

// RecordParseOutcome counts which parsing layer resolved an oracle reply.
// Layer is "exact", "corrective", "heuristic", or "failed".
func (r *PrometheusRecorder) RecordParseOutcome(agentID, layer string) {
	r.parseRecoveries.WithLabelValues(agentID, layer).Inc()
}

// RecordToolExecution counts one tool dispatch.
func (r *PrometheusRecorder) RecordToolExecution(agentID, tool string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	r.toolExecutions.WithLabelValues(agentID, tool, status).Inc()
}

// RecordReflection counts one reflection run.
func (r *PrometheusRecorder) RecordReflection(agentID string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	r.reflectionsTotal.WithLabelValues(agentID, status).Inc()
}

// RecordTick counts one step loop tick.
func (r *PrometheusRecorder) RecordTick(agentID string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	r.ticksTotal.WithLabelValues(agentID, status).Inc()
}
