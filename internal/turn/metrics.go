package turn

import "github.com/prometheus/client_golang/prometheus"

var (
	turnLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiinbox",
			Subsystem: "turn",
			Name:      "latency_seconds",
			Help:      "End-to-end turn processing latency by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"outcome"},
	)

	oracleCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiinbox",
			Subsystem: "turn",
			Name:      "oracle_calls_total",
			Help:      "Decision model calls by method and status.",
		},
		[]string{"method", "status"},
	)

	toolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiinbox",
			Subsystem: "turn",
			Name:      "tool_executions_total",
			Help:      "Tool executions by tool name and status.",
		},
		[]string{"tool", "status"},
	)
)

func init() {
	prometheus.MustRegister(turnLatency, oracleCalls, toolExecutions)
}

// RegisterMetrics registers the turn metrics on a custom registry, used by
// tests that want an isolated gatherer.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(turnLatency, oracleCalls, toolExecutions)
}

// Turn outcomes recorded on turnLatency.
const (
	outcomeSuccess       = "success"
	outcomeOracleFailure = "oracle_failure"
	outcomePersistError  = "persist_error"
	outcomeCanceled      = "canceled"
)
