package agent

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsctl/agentcore/internal/audit"
	"github.com/opsctl/agentcore/internal/observability"
	"github.com/opsctl/agentcore/pkg/models"
	"go.opentelemetry.io/otel/trace"
)

// ConfirmArgKey is the reserved argument key a caller sets to re-invoke a
// policy-sensitive tool with a previously minted confirm token. The
// executor strips it before the tool's arguments are written to the audit
// log, so a token is never persisted in the clear in tool_args.
const ConfirmArgKey = "confirm_token"

// DefaultToolTimeout bounds a single tool execution. Exceeding it is
// reported to the model as an error result, never raised to the loop.
const DefaultToolTimeout = 60 * time.Second

// Executor bridges tool-call objects emitted by a provider to the
// registry: it looks the tool up, runs it under a deadline, writes the
// audit trail, and normalizes the result back to a plain string the loop
// appends to the conversation. Policy interception (allow / require
// confirm / deny) happens inside each policy-sensitive tool's own Execute,
// not here — the executor does not need to know which tools are
// policy-sensitive.
type Executor struct {
	registry *ToolRegistry
	store    audit.Store
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
}

// NewExecutor builds an Executor. A zero timeout falls back to
// DefaultToolTimeout. A nil logger falls back to slog.Default(). metrics
// and tracer may both be nil, in which case the corresponding
// instrumentation is skipped.
func NewExecutor(registry *ToolRegistry, store audit.Store, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Executor {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{registry: registry, store: store, timeout: timeout, logger: logger, metrics: metrics, tracer: tracer}
}

// executedCall is one tool call's normalized result, ready to be appended
// to the conversation as a tool_result batch entry.
type executedCall struct {
	ToolUseID string
	Text      string
	IsError   bool
}

// ExecuteBatch runs calls in the order the model emitted them — the
// executor never fans calls within one iteration out concurrently — and
// returns results in that same order. No call in the batch is skipped by
// an earlier call's failure; every call produces a result (success, error,
// or pending_confirm rendered to text).
func (e *Executor) ExecuteBatch(ctx context.Context, sessionID string, calls []models.ToolCall) []models.ToolResult {
	results := make([]models.ToolResult, 0, len(calls))
	for _, call := range calls {
		exec := e.executeOne(ctx, sessionID, call)
		results = append(results, models.ToolResult{
			ToolCallID: exec.ToolUseID,
			Content:    exec.Text,
			IsError:    exec.IsError,
		})
	}
	return results
}

func (e *Executor) executeOne(ctx context.Context, sessionID string, call models.ToolCall) executedCall {
	toolUseID := call.ID
	if toolUseID == "" {
		toolUseID = randHex(8)
	}

	callID := "call_" + randHex(8)
	loggedInput := redactConfirmArg(call.Input)

	if err := e.store.AddToolCall(ctx, &audit.ToolCall{
		CallID:    callID,
		SessionID: sessionID,
		ToolName:  call.Name,
		Input:     loggedInput,
		Status:    audit.ToolCallPending,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		e.logger.Warn("audit: failed to record tool call", "call_id", callID, "error", err)
	}

	tool, ok := e.registry.Get(call.Name)
	if !ok {
		msg := fmt.Sprintf("Tool `%s` not found", call.Name)
		e.completeAuditError(ctx, callID, msg)
		if e.metrics != nil {
			e.metrics.RecordToolExecution(call.Name, "error", 0)
			e.metrics.RecordError("executor", "tool_not_found")
		}
		return executedCall{ToolUseID: toolUseID, Text: msg, IsError: true}
	}

	if err := validateToolArgs(tool, call.Input); err != nil {
		msg := fmt.Sprintf("tool %q rejected: %s", call.Name, err.Error())
		e.completeAuditError(ctx, callID, msg)
		if e.metrics != nil {
			e.metrics.RecordToolExecution(call.Name, "error", 0)
			e.metrics.RecordError("executor", "invalid_arguments")
		}
		return executedCall{ToolUseID: toolUseID, Text: msg, IsError: true}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var span trace.Span
	if e.tracer != nil {
		execCtx, span = e.tracer.TraceToolExecution(execCtx, call.Name)
	}

	start := time.Now()
	result, err := tool.Execute(execCtx, call.Input)
	duration := time.Since(start).Seconds()

	if span != nil {
		if err != nil {
			e.tracer.RecordError(span, err)
		} else {
			attrs := []any{"tool_name", call.Name}
			if effect, ok := result.Metadata["policy_effect"].(string); ok {
				attrs = append(attrs, "policy_effect", effect)
			}
			if risk, ok := result.Metadata["risk_level"].(string); ok {
				attrs = append(attrs, "risk_level", risk)
			}
			e.tracer.SetAttributes(span, attrs...)
		}
		span.End()
	}

	if err != nil {
		var text string
		if execCtx.Err() == context.DeadlineExceeded {
			text = fmt.Sprintf("tool %q timed out after %s", call.Name, e.timeout)
			if e.metrics != nil {
				e.metrics.RecordError("executor", "timeout")
			}
		} else {
			text = fmt.Sprintf("tool %q execution failed: %s", call.Name, err.Error())
			if e.metrics != nil {
				e.metrics.RecordError("executor", "execution_failed")
			}
		}
		e.completeAuditError(ctx, callID, text)
		if e.metrics != nil {
			e.metrics.RecordToolExecution(call.Name, "error", duration)
		}
		return executedCall{ToolUseID: toolUseID, Text: text, IsError: true}
	}

	e.recordResult(ctx, callID, result, duration)
	if e.metrics != nil {
		e.metrics.RecordToolExecution(call.Name, string(result.Status), duration)
	}
	return executedCall{
		ToolUseID: toolUseID,
		Text:      formatToolResult(result),
		IsError:   result.Status == ToolResultError,
	}
}

// recordResult patches the audit row for a tool call that ran to
// completion (success, error, or pending_confirm — all three are "ran",
// only a not-found or a timeout skip straight to completeAuditError).
func (e *Executor) recordResult(ctx context.Context, callID string, result *ToolResult, duration float64) {
	status := audit.ToolCallSuccess
	switch result.Status {
	case ToolResultError:
		status = audit.ToolCallError
	case ToolResultPendingConfirm:
		status = audit.ToolCallPending
	}

	now := time.Now().UTC()
	stdout := result.Output
	if stdout == "" {
		stdout = result.Content
	}
	stderr := result.Error

	patch := audit.ToolCallPatch{
		Status:        &status,
		StdoutSummary: &stdout,
		StderrSummary: &stderr,
		CompletedAt:   &now,
	}
	if result.ExitCode != nil {
		patch.ExitCode = result.ExitCode
	}
	if effect, ok := result.Metadata["policy_effect"].(string); ok {
		patch.PolicyEffect = &effect
	}
	if risk, ok := result.Metadata["risk_level"].(string); ok {
		patch.RiskLevel = &risk
	}

	if err := e.store.UpdateToolCall(ctx, callID, patch); err != nil {
		e.logger.Warn("audit: failed to update tool call", "call_id", callID, "error", err)
	}
}

func (e *Executor) completeAuditError(ctx context.Context, callID string, message string) {
	status := audit.ToolCallError
	now := time.Now().UTC()
	patch := audit.ToolCallPatch{
		Status:        &status,
		StderrSummary: &message,
		CompletedAt:   &now,
	}
	if err := e.store.UpdateToolCall(ctx, callID, patch); err != nil {
		e.logger.Warn("audit: failed to update tool call", "call_id", callID, "error", err)
	}
}

// formatToolResult renders a ToolResult to the plain string the model
// reads back from the conversation, following the selection rule: success
// yields its output (plus a trailing stderr note if present); error yields
// the error text, falling back to output, falling back to a fixed
// placeholder; pending_confirm yields a human-readable preview block with
// re-invocation instructions.
func formatToolResult(result *ToolResult) string {
	switch result.Status {
	case ToolResultSuccess:
		out := result.Output
		if out == "" {
			out = result.Content
		}
		if result.Error != "" {
			out += "\n(stderr: " + result.Error + ")"
		}
		return out
	case ToolResultError:
		if result.Error != "" {
			return result.Error
		}
		if result.Output != "" {
			return result.Output
		}
		return "tool execution failed with no further detail"
	case ToolResultPendingConfirm:
		text := "Confirmation required before proceeding:\n"
		for k, v := range result.Preview {
			text += fmt.Sprintf("  %s: %v\n", k, v)
		}
		text += fmt.Sprintf("\nconfirm token: %s\n", result.ConfirmToken)
		text += fmt.Sprintf("Re-invoke this tool with %q set to this token to proceed.", ConfirmArgKey)
		return text
	default:
		if result.Content != "" {
			return result.Content
		}
		return ""
	}
}

// redactConfirmArg returns a copy of raw with the reserved confirm-token
// argument masked, so a live token is never persisted in the clear in an
// audit row's tool_args. Malformed input is passed through unchanged —
// the executor never fails a tool invocation over an audit-logging
// concern.
func redactConfirmArg(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw
	}
	if _, ok := m[ConfirmArgKey]; !ok {
		return raw
	}
	m[ConfirmArgKey] = "[REDACTED]"
	out, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return out
}

func randHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
