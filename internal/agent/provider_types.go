package agent

import (
	"context"
	"encoding/json"

	"github.com/opsctl/agentcore/pkg/models"
)

// LLMProvider defines the interface for Large Language Model backends.
//
// Implementations of this interface handle the specifics of communicating
// with different LLM APIs (Anthropic, OpenAI, Google, AWS Bedrock) while
// presenting a unified request/response shape to the agent loop. Internally
// a provider may stream tokens off the wire; CompleteSync (in response.go)
// drains that stream into a single ProviderResponse before the loop ever
// sees it, since tool-enabled turns are never partially applied.
//
// Implementations must be safe for concurrent use.
type LLMProvider interface {
	// Complete sends a prompt and returns a channel of response chunks.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []Model

	// SupportsTools returns whether the provider supports tool use.
	SupportsTools() bool
}

// CompletionRequest contains all parameters for an LLM completion request.
type CompletionRequest struct {
	// Model specifies which LLM model to use. If empty, the provider's
	// default model is used.
	Model string `json:"model"`

	// System is the fixed system instruction (see Conversation).
	System string `json:"system,omitempty"`

	// Messages contains the conversation history in chronological order.
	Messages []CompletionMessage `json:"messages"`

	// Tools defines the tool catalog the model may call.
	Tools []Tool `json:"tools,omitempty"`

	// MaxTokens limits the maximum length of the generated response. If 0
	// or negative, the provider's default is used.
	MaxTokens int `json:"max_tokens,omitempty"`

	// EnableThinking enables extended thinking mode for providers that
	// support it. CompleteSync discards the thinking trace; it never
	// reaches the agent loop or the audit store.
	EnableThinking bool `json:"enable_thinking,omitempty"`

	// ThinkingBudgetTokens sets the token budget for extended thinking.
	ThinkingBudgetTokens int `json:"thinking_budget_tokens,omitempty"`
}

// CompletionMessage represents a single message in a conversation. Role
// values: "user", "assistant", "tool".
type CompletionMessage struct {
	Role        string               `json:"role"`
	Content     string               `json:"content,omitempty"`
	ToolCalls   []models.ToolCall    `json:"tool_calls,omitempty"`
	ToolResults []models.ToolResult  `json:"tool_results,omitempty"`
	Attachments []models.Attachment  `json:"attachments,omitempty"`
}

// CompletionChunk represents a single chunk in a provider's internal
// streaming response. Chunks are aggregated by CompleteSync into a single
// ProviderResponse; the agent loop never observes a partial chunk.
type CompletionChunk struct {
	Text          string           `json:"text,omitempty"`
	ToolCall      *models.ToolCall `json:"tool_call,omitempty"`
	Done          bool             `json:"done,omitempty"`
	Error         error            `json:"-"`
	Thinking      string           `json:"thinking,omitempty"`
	ThinkingStart bool             `json:"thinking_start,omitempty"`
	ThinkingEnd   bool             `json:"thinking_end,omitempty"`
	InputTokens   int              `json:"input_tokens,omitempty"`
	OutputTokens  int              `json:"output_tokens,omitempty"`
}

// Model describes an available LLM model and its capabilities.
type Model struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ContextSize    int    `json:"context_size"`
	SupportsVision bool   `json:"supports_vision"`
}

// Tool is the provider-facing shape of a tool definition: name,
// description, and a JSON Schema for its arguments. Each vendor's toolconv
// package converts a slice of these into that vendor's native tool-schema
// representation.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolResultStatus tags which variant of the ToolResult union is populated.
type ToolResultStatus string

const (
	ToolResultSuccess        ToolResultStatus = "success"
	ToolResultError          ToolResultStatus = "error"
	ToolResultPendingConfirm ToolResultStatus = "pending_confirm"
)

// ToolResult is the tagged-union result of one tool execution. Exactly one
// of the three shapes is meaningful per Status:
//   - success: Output, ExitCode, DurationSec, Metadata
//   - error: Error, Output (if any), ExitCode
//   - pending_confirm: ConfirmToken, Preview
//
// Policy-sensitive tools (ssh_exec and its batch variant) populate
// pending_confirm themselves by calling the policy engine from within
// Execute; the executor does not need to know which tools are
// policy-sensitive.
type ToolResult struct {
	Status      ToolResultStatus `json:"status"`
	Output      string           `json:"output,omitempty"`
	Error       string           `json:"error,omitempty"`
	ExitCode    *int             `json:"exit_code,omitempty"`
	DurationSec float64          `json:"duration_sec,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`

	ConfirmToken string         `json:"confirm_token,omitempty"`
	Preview      map[string]any `json:"preview,omitempty"`

	// Content and IsError are a plain-string convenience shortcut for
	// tools with nothing else to report; Execute may set either these or
	// the fields above.
	Content string `json:"content,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}
