package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting application metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - Agent-loop iteration counts and outcomes
//   - LLM provider request performance and token usage
//   - Tool execution patterns and latencies
//   - Policy decisions by effect and risk level
//   - Confirm-token lifecycle events
//   - Error rates categorized by type and component
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	defer metrics.RecordToolExecution("ssh_exec", "success", time.Since(start).Seconds())
type Metrics struct {
	// AgentLoopIterations counts agent-loop turns by outcome.
	// Labels: outcome (tool_use|end_turn|capped)
	AgentLoopIterations *prometheus.CounterVec

	// LLMRequestDuration measures LLM API call latency in seconds.
	// Labels: provider, model
	// Buckets: 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s, 60s
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests by provider, model, and status.
	// Labels: provider, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMTokensUsed tracks token consumption.
	// Labels: provider, model, type (input|output)
	LLMTokensUsed *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: tool_name, status (success|error|pending_confirm)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	// Buckets: 0.01s, 0.05s, 0.1s, 0.5s, 1s, 5s, 10s, 30s, 60s
	ToolExecutionDuration *prometheus.HistogramVec

	// PolicyDecisions counts policy-engine decisions by effect and risk level.
	// Labels: effect (allow|require_confirm|deny), risk_level
	PolicyDecisions *prometheus.CounterVec

	// ConfirmTokenEvents counts confirm-token lifecycle events.
	// Labels: event (mint|consume|expire)
	ConfirmTokenEvents *prometheus.CounterVec

	// ErrorCounter tracks errors by component and error type.
	// Labels: component (loop|executor|provider|policy|audit|notify), error_type
	ErrorCounter *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
// This should be called once at application startup.
//
// All metrics are automatically registered with Prometheus's default registry
// and will be available at the /metrics endpoint when using prometheus HTTP handler.
func NewMetrics() *Metrics {
	return &Metrics{
		AgentLoopIterations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_loop_iterations_total",
				Help: "Total number of agent-loop iterations by outcome",
			},
			[]string{"outcome"},
		),

		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsagent_llm_request_duration_seconds",
				Help:    "Duration of LLM provider requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),

		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_llm_requests_total",
				Help: "Total number of LLM requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),

		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_llm_tokens_total",
				Help: "Total number of tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),

		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsagent_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),

		PolicyDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_policy_decisions_total",
				Help: "Total number of policy decisions by effect and risk level",
			},
			[]string{"effect", "risk_level"},
		),

		ConfirmTokenEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_confirm_token_events_total",
				Help: "Total number of confirm-token lifecycle events",
			},
			[]string{"event"},
		),

		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_errors_total",
				Help: "Total number of errors by component and error type",
			},
			[]string{"component", "error_type"},
		),
	}
}

// RecordLoopIteration increments the agent-loop iteration counter for outcome
// ("tool_use", "end_turn", or "capped").
func (m *Metrics) RecordLoopIteration(outcome string) {
	m.AgentLoopIterations.WithLabelValues(outcome).Inc()
}

// RecordLLMRequest records metrics for an LLM provider request.
//
// Example:
//
//	start := time.Now()
//	// ... make LLM request ...
//	metrics.RecordLLMRequest("anthropic", "claude-3-opus", "success", time.Since(start).Seconds(), 100, 500)
func (m *Metrics) RecordLLMRequest(provider, model, status string, durationSeconds float64, inputTokens, outputTokens int) {
	m.LLMRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	if inputTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// RecordToolExecution records metrics for a tool execution.
//
// Example:
//
//	start := time.Now()
//	// ... execute tool ...
//	metrics.RecordToolExecution("ssh_exec", "success", time.Since(start).Seconds())
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordPolicyDecision increments the policy-decision counter for the given
// effect ("allow"|"require_confirm"|"deny") and risk level.
func (m *Metrics) RecordPolicyDecision(effect, riskLevel string) {
	m.PolicyDecisions.WithLabelValues(effect, riskLevel).Inc()
}

// RecordConfirmTokenEvent increments the confirm-token counter for the given
// lifecycle event ("mint"|"consume"|"expire").
func (m *Metrics) RecordConfirmTokenEvent(event string) {
	m.ConfirmTokenEvents.WithLabelValues(event).Inc()
}

// RecordError increments the error counter for a given component and error type.
//
// Example:
//
//	metrics.RecordError("provider", "rate_limit")
//	metrics.RecordError("executor", "timeout")
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorCounter.WithLabelValues(component, errorType).Inc()
}
