// Package observability provides diagnostic event types and emission.
package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// DiagnosticSessionState represents the state of an agent-loop session.
type DiagnosticSessionState string

const (
	SessionStateIdle       DiagnosticSessionState = "idle"
	SessionStateProcessing DiagnosticSessionState = "processing"
	SessionStateWaitingConfirm DiagnosticSessionState = "waiting_confirm"
)

// DiagnosticEventType identifies the type of diagnostic event.
type DiagnosticEventType string

const (
	EventTypeModelUsage       DiagnosticEventType = "model.usage"
	EventTypeSessionState     DiagnosticEventType = "session.state"
	EventTypeSessionStuck     DiagnosticEventType = "session.stuck"
	EventTypePolicyDecision   DiagnosticEventType = "policy.decision"
	EventTypeConfirmMinted    DiagnosticEventType = "confirm_token.minted"
	EventTypeConfirmConsumed  DiagnosticEventType = "confirm_token.consumed"
	EventTypeConfirmExpired   DiagnosticEventType = "confirm_token.expired"
	EventTypeRunAttempt       DiagnosticEventType = "run.attempt"
	EventTypeDiagnosticHeartbeat DiagnosticEventType = "diagnostic.heartbeat"
)

// DiagnosticEvent is the base event structure.
type DiagnosticEvent struct {
	Type DiagnosticEventType `json:"type"`
	Seq  int64               `json:"seq"`
	Ts   int64               `json:"ts"`
}

// ModelUsageEvent tracks token usage for an LLM provider request.
type ModelUsageEvent struct {
	DiagnosticEvent
	SessionID  string          `json:"session_id,omitempty"`
	Provider   string          `json:"provider,omitempty"`
	Model      string          `json:"model,omitempty"`
	Usage      UsageDetails    `json:"usage"`
	Context    *ContextDetails `json:"context,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
}

// UsageDetails contains token usage breakdown.
type UsageDetails struct {
	Input  int64 `json:"input,omitempty"`
	Output int64 `json:"output,omitempty"`
	Total  int64 `json:"total,omitempty"`
}

// ContextDetails contains context window information.
type ContextDetails struct {
	Limit int64 `json:"limit,omitempty"`
	Used  int64 `json:"used,omitempty"`
}

// SessionStateEvent tracks agent-loop session state changes.
type SessionStateEvent struct {
	DiagnosticEvent
	SessionID string                 `json:"session_id,omitempty"`
	PrevState DiagnosticSessionState `json:"prev_state,omitempty"`
	State     DiagnosticSessionState `json:"state"`
	Reason    string                 `json:"reason,omitempty"`
}

// SessionStuckEvent fires when a session has sat in waiting_confirm past a
// threshold — its minted confirm token is at risk of expiring unconsumed.
type SessionStuckEvent struct {
	DiagnosticEvent
	SessionID string                 `json:"session_id,omitempty"`
	State     DiagnosticSessionState `json:"state"`
	AgeMs     int64                  `json:"age_ms"`
}

// PolicyDecisionEvent tracks a policy-engine decision for one tool
// invocation.
type PolicyDecisionEvent struct {
	DiagnosticEvent
	SessionID string `json:"session_id,omitempty"`
	ToolName  string `json:"tool_name"`
	Effect    string `json:"effect"`
	RiskLevel string `json:"risk_level"`
	Rule      string `json:"rule,omitempty"`
}

// ConfirmTokenEvent tracks a confirm-token lifecycle transition (minted,
// consumed, or expired).
type ConfirmTokenEvent struct {
	DiagnosticEvent
	SessionID string `json:"session_id,omitempty"`
	ToolName  string `json:"tool_name"`
}

// RunAttemptEvent tracks attempts of one agent run (a run may retry a
// failed provider call before giving up).
type RunAttemptEvent struct {
	DiagnosticEvent
	SessionID string `json:"session_id,omitempty"`
	RunID     string `json:"run_id"`
	Attempt   int    `json:"attempt"`
}

// DiagnosticHeartbeatEvent reports aggregate process health on an interval.
type DiagnosticHeartbeatEvent struct {
	DiagnosticEvent
	ActiveSessions int `json:"active_sessions"`
	PendingConfirm int `json:"pending_confirm"`
}

// DiagnosticEventPayload is a union type for all diagnostic events.
type DiagnosticEventPayload interface {
	EventType() DiagnosticEventType
	Sequence() int64
	Timestamp() int64
}

// Implement DiagnosticEventPayload for all event types
func (e *DiagnosticEvent) EventType() DiagnosticEventType { return e.Type }
func (e *DiagnosticEvent) Sequence() int64                { return e.Seq }
func (e *DiagnosticEvent) Timestamp() int64               { return e.Ts }

// DiagnosticListener receives diagnostic events.
type DiagnosticListener func(event DiagnosticEventPayload)

// DiagnosticEmitter manages diagnostic event emission.
type DiagnosticEmitter struct {
	mu        sync.RWMutex
	seq       int64
	enabled   bool
	listeners []DiagnosticListener
}

var globalEmitter = &DiagnosticEmitter{}

// SetDiagnosticsEnabled enables or disables diagnostic events.
func SetDiagnosticsEnabled(enabled bool) {
	globalEmitter.mu.Lock()
	defer globalEmitter.mu.Unlock()
	globalEmitter.enabled = enabled
}

// IsDiagnosticsEnabled returns whether diagnostics are enabled.
func IsDiagnosticsEnabled() bool {
	globalEmitter.mu.RLock()
	defer globalEmitter.mu.RUnlock()
	return globalEmitter.enabled
}

// OnDiagnosticEvent registers a listener for diagnostic events.
func OnDiagnosticEvent(listener DiagnosticListener) func() {
	globalEmitter.mu.Lock()
	defer globalEmitter.mu.Unlock()
	globalEmitter.listeners = append(globalEmitter.listeners, listener)

	// Return unsubscribe function
	return func() {
		globalEmitter.mu.Lock()
		defer globalEmitter.mu.Unlock()
		for i, l := range globalEmitter.listeners {
			// Compare function pointers (this is a simplification)
			if &l == &listener {
				globalEmitter.listeners = append(globalEmitter.listeners[:i], globalEmitter.listeners[i+1:]...)
				break
			}
		}
	}
}

// nextSeq returns the next sequence number.
func nextSeq() int64 {
	return atomic.AddInt64(&globalEmitter.seq, 1)
}

// emit sends an event to all listeners.
func emit(event DiagnosticEventPayload) {
	globalEmitter.mu.RLock()
	if !globalEmitter.enabled {
		globalEmitter.mu.RUnlock()
		return
	}
	listeners := make([]DiagnosticListener, len(globalEmitter.listeners))
	copy(listeners, globalEmitter.listeners)
	globalEmitter.mu.RUnlock()

	for _, listener := range listeners {
		func() {
			defer func() {
				if recovered := recover(); recovered != nil {
					_ = recovered
				}
			}() // Ignore listener panics
			listener(event)
		}()
	}
}

// EmitModelUsage emits a model usage event.
func EmitModelUsage(e *ModelUsageEvent) {
	e.Type = EventTypeModelUsage
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitSessionState emits a session state event.
func EmitSessionState(e *SessionStateEvent) {
	e.Type = EventTypeSessionState
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitSessionStuck emits a session stuck event.
func EmitSessionStuck(e *SessionStuckEvent) {
	e.Type = EventTypeSessionStuck
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitPolicyDecision emits a policy decision event.
func EmitPolicyDecision(e *PolicyDecisionEvent) {
	e.Type = EventTypePolicyDecision
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitConfirmTokenMinted emits a confirm-token minted event.
func EmitConfirmTokenMinted(e *ConfirmTokenEvent) {
	e.Type = EventTypeConfirmMinted
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitConfirmTokenConsumed emits a confirm-token consumed event.
func EmitConfirmTokenConsumed(e *ConfirmTokenEvent) {
	e.Type = EventTypeConfirmConsumed
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitConfirmTokenExpired emits a confirm-token expired event.
func EmitConfirmTokenExpired(e *ConfirmTokenEvent) {
	e.Type = EventTypeConfirmExpired
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitRunAttempt emits a run attempt event.
func EmitRunAttempt(e *RunAttemptEvent) {
	e.Type = EventTypeRunAttempt
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// EmitDiagnosticHeartbeat emits a diagnostic heartbeat event.
func EmitDiagnosticHeartbeat(e *DiagnosticHeartbeatEvent) {
	e.Type = EventTypeDiagnosticHeartbeat
	e.Seq = nextSeq()
	e.Ts = time.Now().UnixMilli()
	emit(e)
}

// ResetDiagnosticsForTest resets diagnostic state for testing.
func ResetDiagnosticsForTest() {
	globalEmitter.mu.Lock()
	defer globalEmitter.mu.Unlock()
	atomic.StoreInt64(&globalEmitter.seq, 0)
	globalEmitter.listeners = nil
}
