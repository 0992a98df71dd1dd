package audit

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get-style methods when no matching record
// exists.
var ErrNotFound = errors.New("audit: not found")

// Store persists Session and ToolCall records. Every method is expected to
// be called best-effort by callers: a Store failure is logged and
// swallowed by the agent loop and tool executor, never propagated to the
// end user, per the source project's logger.py semantics.
type Store interface {
	CreateSession(ctx context.Context, session *Session) error
	UpdateSession(ctx context.Context, sessionID string, patch SessionPatch) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	ListSessions(ctx context.Context, limit int, status SessionStatus) ([]*Session, error)

	AddToolCall(ctx context.Context, call *ToolCall) error
	UpdateToolCall(ctx context.Context, callID string, patch ToolCallPatch) error
	ListToolCalls(ctx context.Context, sessionID string) ([]*ToolCall, error)

	Close() error
}
