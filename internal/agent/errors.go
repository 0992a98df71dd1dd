package agent

import "errors"

// Error kinds the agent loop and tool executor distinguish. These are
// kinds, not sentinel error values for every possible failure: most are
// reified as a tool result the model can read rather than returned to the
// caller. Only configuration errors and provider errors ever terminate a
// run from outside the loop.
var (
	// ErrConfiguration covers a missing API key, a malformed policy rule,
	// or a duplicate tool name. Fatal at startup; never seen mid-loop.
	ErrConfiguration = errors.New("agent: configuration error")

	// ErrProvider covers a vendor API failure, auth failure, or rate
	// limit. It terminates the loop with stop_reason=error; the core
	// never retries it silently.
	ErrProvider = errors.New("agent: provider error")

	// ErrToolNotFound is synthesized into an error ToolResult rather than
	// returned to a caller; it never terminates the loop.
	ErrToolNotFound = errors.New("agent: tool not found")

	// ErrToolTimeout marks a tool execution that exceeded its deadline.
	// Reported as an error ToolResult, not raised to the loop.
	ErrToolTimeout = errors.New("agent: tool execution timed out")

	// ErrConfirmToken marks a confirm-token re-entry that failed
	// validation (unknown, expired, or already consumed).
	ErrConfirmToken = errors.New("agent: invalid or expired confirm token")
)
