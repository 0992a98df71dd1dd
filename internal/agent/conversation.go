package agent

import (
	"sync"

	"github.com/opsctl/agentcore/pkg/models"
)

// DefaultSystemPrompt is the fixed operator-style instruction injected into
// every conversation. It is configuration, not code: callers that want a
// different persona pass their own string to NewConversation rather than
// editing this one. Grounded in the source project's agent/conversation.py
// SYSTEM_PROMPT, re-expressed rather than translated.
const DefaultSystemPrompt = `You are an operations agent embedded in a fleet-management console.

Core rules:
1. Use tools to take real action. Do not describe steps the operator should
   run by hand when a tool can run them for you.
2. When a request names or implies a host, service, or log, call the
   relevant tool (ssh_exec, ssh_exec_batch, log_tail, git_query) rather than
   guessing at the answer.
3. After a tool call returns, read its result before deciding the next
   step or replying. Summarize what happened; do not restate the raw output
   verbatim unless the operator asked for it.

Workflow:
1. Identify the target host(s) and the action requested.
2. Call the appropriate tool. Use the batch variant when the same command
   must run on more than one host.
3. If a tool reports it needs confirmation, relay the preview to the
   operator and re-invoke the tool with the confirmation token once they
   agree; never fabricate a token.
4. If a command fails, look at the error before retrying or escalating.

Be concise. Flag destructive or high-risk actions explicitly before you
take them. You are the executor, not a tutorial.`

// Conversation is the ordered message log for one agent-loop invocation.
// It owns the fixed system instruction and the growing list of user,
// assistant, and tool-result entries. A Conversation belongs to exactly one
// loop run and is discarded when that run ends; it is never shared across
// sessions.
type Conversation struct {
	mu       sync.Mutex
	system   string
	messages []CompletionMessage
}

// NewConversation returns an empty Conversation. An empty systemPrompt
// falls back to DefaultSystemPrompt.
func NewConversation(systemPrompt string) *Conversation {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Conversation{system: systemPrompt}
}

// System returns the fixed system instruction for this conversation, to be
// passed as CompletionRequest.System rather than stored inline in Messages
// — providers inject it through their native channel.
func (c *Conversation) System() string {
	return c.system
}

// AddUser appends a user message.
func (c *Conversation) AddUser(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, CompletionMessage{Role: "user", Content: content})
}

// AddAssistant appends an assistant message. content may be empty when the
// turn produced only tool calls; toolCalls may be nil when the turn
// produced only text.
func (c *Conversation) AddAssistant(content string, toolCalls []models.ToolCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, CompletionMessage{
		Role:      "assistant",
		Content:   content,
		ToolCalls: toolCalls,
	})
}

// AddToolResults appends a single batch of tool results as one message, in
// the order given. Every ToolCall emitted in the preceding assistant
// message must have a matching entry here, in the same order, before the
// next assistant message is added.
func (c *Conversation) AddToolResults(results []models.ToolResult) {
	if len(results) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, CompletionMessage{
		Role:        "tool",
		ToolResults: results,
	})
}

// Messages returns a copy of the conversation log, not including the
// system instruction (which travels separately via System()).
func (c *Conversation) Messages() []CompletionMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CompletionMessage, len(c.messages))
	copy(out, c.messages)
	return out
}
