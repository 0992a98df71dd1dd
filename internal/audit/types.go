// Package audit persists agent sessions and the tool calls made within
// them, redacting sensitive output before it is written. Grounded in the
// source project's audit/models.py and audit/logger.py.
package audit

import (
	"encoding/json"
	"time"
)

// SessionStatus is the lifecycle state of an AuditSession.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCapped    SessionStatus = "capped"
)

// ToolCallStatus is the lifecycle state of an AuditToolCall.
type ToolCallStatus string

const (
	ToolCallPending ToolCallStatus = "pending"
	ToolCallSuccess ToolCallStatus = "success"
	ToolCallError   ToolCallStatus = "error"
	ToolCallDenied  ToolCallStatus = "denied"
)

// Usage records the cumulative token counts consumed across every LLM
// request a Session made, summed across loop iterations.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Session is one agent-loop run: the prompt that started it, the provider
// and model that served it, and how it ended. User and Hostname identify
// who ran it and from where; Usage and DurationSec are filled in once the
// run finishes.
type Session struct {
	ID             string        `json:"id"`
	StartedAt      time.Time     `json:"started_at"`
	EndedAt        time.Time     `json:"ended_at,omitempty"`
	Env            string        `json:"env,omitempty"`
	User           string        `json:"user"`
	Hostname       string        `json:"hostname"`
	Provider       string        `json:"provider"`
	Model          string        `json:"model"`
	UserPrompt     string        `json:"user_prompt"`
	FinalResponse  string        `json:"final_response,omitempty"`
	IterationCount int           `json:"iteration_count"`
	Status         SessionStatus `json:"status"`
	Error          string        `json:"error,omitempty"`
	Usage          Usage         `json:"usage,omitempty"`
	DurationSec    float64       `json:"duration_sec,omitempty"`
}

// ToolCall is one tool invocation made within a Session.
type ToolCall struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	CallID         string          `json:"call_id"`
	ToolName       string          `json:"tool_name"`
	Input          json.RawMessage `json:"input,omitempty"`
	Status         ToolCallStatus  `json:"status"`
	PolicyEffect   string          `json:"policy_effect,omitempty"`
	RiskLevel      string          `json:"risk_level,omitempty"`
	StdoutSummary  string          `json:"stdout_summary,omitempty"`
	StderrSummary  string          `json:"stderr_summary,omitempty"`
	ExitCode       *int            `json:"exit_code,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    time.Time       `json:"completed_at,omitempty"`
}

// SessionPatch describes a partial update to a Session; nil fields are left
// unchanged.
type SessionPatch struct {
	EndedAt        *time.Time
	FinalResponse  *string
	IterationCount *int
	Status         *SessionStatus
	Error          *string
	Usage          *Usage
	DurationSec    *float64
}

// ToolCallPatch describes a partial update to a ToolCall; nil fields are
// left unchanged. StdoutSummary, when set, is redacted before write.
type ToolCallPatch struct {
	Status        *ToolCallStatus
	PolicyEffect  *string
	RiskLevel     *string
	StdoutSummary *string
	StderrSummary *string
	ExitCode      *int
	CompletedAt   *time.Time
}
