package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/opsctl/agentcore/internal/audit"
	"github.com/opsctl/agentcore/internal/observability"
	"go.opentelemetry.io/otel/trace"
)

// LoopState is one of the five states the agent loop moves through.
type LoopState string

const (
	StateIdle           LoopState = "idle"
	StateAwaitingModel  LoopState = "awaiting_model"
	StateExecutingTools LoopState = "executing_tools"
	StateTerminal       LoopState = "terminal"
	StateCapped         LoopState = "capped"
)

// DefaultMaxIterations is the default turn budget for one Loop.Run call.
// HardCapIterations is the ceiling no caller-supplied value may exceed.
const (
	DefaultMaxIterations = 10
	HardCapIterations    = 20
)

// Loop drives model <-> tool turns for one user request: it asks the
// provider for a completion, and if the completion carries tool calls,
// hands them to the Executor and feeds the results back, repeating until
// the provider returns no tool calls or the iteration cap is reached.
type Loop struct {
	provider LLMProvider
	registry *ToolRegistry
	executor *Executor
	store    audit.Store
	logger   *slog.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer

	maxIterations int
	state         LoopState
}

// NewLoop builds a Loop. maxIterations <= 0 falls back to
// DefaultMaxIterations; values above HardCapIterations are clamped to it —
// a caller cannot accidentally run an unbounded session. metrics and
// tracer may both be nil, in which case the corresponding instrumentation
// is skipped.
func NewLoop(provider LLMProvider, registry *ToolRegistry, executor *Executor, store audit.Store, maxIterations int, logger *slog.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if maxIterations > HardCapIterations {
		maxIterations = HardCapIterations
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		provider:      provider,
		registry:      registry,
		executor:      executor,
		store:         store,
		logger:        logger,
		metrics:       metrics,
		tracer:        tracer,
		maxIterations: maxIterations,
		state:         StateIdle,
	}
}

// State returns the loop's current state. Useful for tests and
// introspection; Run drives the transitions itself.
func (l *Loop) State() LoopState {
	return l.state
}

// Run executes one full agent-loop turn for sessionID: it appends prompt
// to a fresh Conversation, calls the provider up to l.maxIterations times,
// dispatching any tool calls to the Executor between calls, and returns
// the terminal or capped ProviderResponse.
func (l *Loop) Run(ctx context.Context, sessionID, model, prompt string) (*ProviderResponse, error) {
	conv := NewConversation("")
	conv.AddUser(prompt)

	runStart := time.Now()
	if err := l.store.CreateSession(ctx, &audit.Session{
		ID:         sessionID,
		StartedAt:  runStart.UTC(),
		User:       currentUser(),
		Hostname:   currentHostname(),
		Provider:   l.provider.Name(),
		Model:      model,
		UserPrompt: prompt,
		Status:     audit.SessionRunning,
	}); err != nil {
		l.logger.Warn("audit: failed to create session", "session_id", sessionID, "error", err)
	}

	tools := l.registry.Definitions()
	cumulative := Usage{}
	var last *ProviderResponse

	l.state = StateIdle
	for i := 1; i <= l.maxIterations; i++ {
		l.state = StateAwaitingModel

		iterCtx := ctx
		var iterSpan trace.Span
		if l.tracer != nil {
			iterCtx, iterSpan = l.tracer.TraceLoopIteration(ctx, sessionID, i)
		}

		req := &CompletionRequest{
			Model:    model,
			System:   conv.System(),
			Messages: conv.Messages(),
			Tools:    tools,
		}

		var llmSpan trace.Span
		if l.tracer != nil {
			iterCtx, llmSpan = l.tracer.TraceLLMRequest(iterCtx, l.provider.Name(), model)
		}

		requestStart := time.Now()
		resp, err := CompleteSync(iterCtx, l.provider, req)
		requestDuration := time.Since(requestStart).Seconds()
		if llmSpan != nil {
			if err != nil {
				l.tracer.RecordError(llmSpan, err)
			}
			llmSpan.End()
		}
		if err != nil {
			if l.metrics != nil {
				l.metrics.RecordLLMRequest(l.provider.Name(), model, "error", requestDuration, 0, 0)
				l.metrics.RecordError("provider", "completion_failed")
			}
			if iterSpan != nil {
				l.tracer.RecordError(iterSpan, err)
				iterSpan.End()
			}
			l.finalizeFailed(ctx, sessionID, i, err, runStart)
			return nil, fmt.Errorf("%w: %s", ErrProvider, err)
		}
		if l.metrics != nil {
			l.metrics.RecordLLMRequest(l.provider.Name(), model, "success", requestDuration, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}

		cumulative.InputTokens += resp.Usage.InputTokens
		cumulative.OutputTokens += resp.Usage.OutputTokens
		resp.Usage = cumulative
		last = resp

		if len(resp.ToolCalls) == 0 {
			l.state = StateTerminal
			if l.metrics != nil {
				l.metrics.RecordLoopIteration("end_turn")
			}
			if iterSpan != nil {
				iterSpan.End()
			}
			l.finalizeCompleted(ctx, sessionID, i, resp, runStart)
			return resp, nil
		}

		conv.AddAssistant(resp.Text, resp.ToolCalls)

		l.state = StateExecutingTools
		if l.metrics != nil {
			l.metrics.RecordLoopIteration("tool_use")
		}
		results := l.executor.ExecuteBatch(iterCtx, sessionID, resp.ToolCalls)
		conv.AddToolResults(results)
		if iterSpan != nil {
			iterSpan.End()
		}
	}

	l.state = StateCapped
	if l.metrics != nil {
		l.metrics.RecordLoopIteration("capped")
	}
	last.Text += fmt.Sprintf("\n\n[iteration cap of %d reached; tool calls above were requested but not executed this turn]", l.maxIterations)
	last.StopReason = StopToolUse
	last.Capped = true
	l.finalizeCapped(ctx, sessionID, last, runStart)
	return last, nil
}

func (l *Loop) finalizeCompleted(ctx context.Context, sessionID string, iterations int, resp *ProviderResponse, runStart time.Time) {
	status := audit.SessionCompleted
	now := time.Now().UTC()
	final := resp.Text
	usage := audit.Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}
	duration := now.Sub(runStart).Seconds()
	patch := audit.SessionPatch{
		EndedAt:        &now,
		FinalResponse:  &final,
		IterationCount: &iterations,
		Status:         &status,
		Usage:          &usage,
		DurationSec:    &duration,
	}
	if err := l.store.UpdateSession(ctx, sessionID, patch); err != nil {
		l.logger.Warn("audit: failed to update session", "session_id", sessionID, "error", err)
	}
}

func (l *Loop) finalizeCapped(ctx context.Context, sessionID string, resp *ProviderResponse, runStart time.Time) {
	status := audit.SessionCapped
	now := time.Now().UTC()
	final := resp.Text
	iterations := l.maxIterations
	usage := audit.Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}
	duration := now.Sub(runStart).Seconds()
	patch := audit.SessionPatch{
		EndedAt:        &now,
		FinalResponse:  &final,
		IterationCount: &iterations,
		Status:         &status,
		Usage:          &usage,
		DurationSec:    &duration,
	}
	if err := l.store.UpdateSession(ctx, sessionID, patch); err != nil {
		l.logger.Warn("audit: failed to update session", "session_id", sessionID, "error", err)
	}
}

func (l *Loop) finalizeFailed(ctx context.Context, sessionID string, iterations int, cause error, runStart time.Time) {
	status := audit.SessionFailed
	now := time.Now().UTC()
	errText := cause.Error()
	duration := now.Sub(runStart).Seconds()
	patch := audit.SessionPatch{
		EndedAt:        &now,
		IterationCount: &iterations,
		Status:         &status,
		Error:          &errText,
		DurationSec:    &duration,
	}
	if err := l.store.UpdateSession(ctx, sessionID, patch); err != nil {
		l.logger.Warn("audit: failed to update session", "session_id", sessionID, "error", err)
	}
}

// currentUser returns the operator identity to stamp onto a Session,
// mirroring the source project's os.getenv("USER", "unknown").
func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

// currentHostname returns the local hostname to stamp onto a Session, or
// "unknown" if it cannot be determined.
func currentHostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown"
	}
	return h
}
