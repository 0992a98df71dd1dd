package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/opsctl/agentcore/internal/redact"
)

// MemoryStore is a thread-safe in-memory Store for tests and single-process
// development use.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	toolCalls map[string][]*ToolCall // keyed by session ID
	byCallID  map[string]*ToolCall
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]*Session),
		toolCalls: make(map[string][]*ToolCall),
		byCallID:  make(map[string]*ToolCall),
	}
}

func (s *MemoryStore) CreateSession(ctx context.Context, session *Session) error {
	if session == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	s.sessions[session.ID] = &clone
	return nil
}

func (s *MemoryStore) UpdateSession(ctx context.Context, sessionID string, patch SessionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	applySessionPatch(session, patch)
	return nil
}

func applySessionPatch(session *Session, patch SessionPatch) {
	if patch.EndedAt != nil {
		session.EndedAt = *patch.EndedAt
	}
	if patch.FinalResponse != nil {
		session.FinalResponse = *patch.FinalResponse
	}
	if patch.IterationCount != nil {
		session.IterationCount = *patch.IterationCount
	}
	if patch.Status != nil {
		session.Status = *patch.Status
	}
	if patch.Error != nil {
		session.Error = *patch.Error
	}
	if patch.Usage != nil {
		session.Usage = *patch.Usage
	}
	if patch.DurationSec != nil {
		session.DurationSec = *patch.DurationSec
	}
}

func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *session
	return &clone, nil
}

func (s *MemoryStore) ListSessions(ctx context.Context, limit int, status SessionStatus) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if status != "" && session.Status != status {
			continue
		}
		clone := *session
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) AddToolCall(ctx context.Context, call *ToolCall) error {
	if call == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *call
	s.toolCalls[call.SessionID] = append(s.toolCalls[call.SessionID], &clone)
	s.byCallID[call.CallID] = &clone
	return nil
}

func (s *MemoryStore) UpdateToolCall(ctx context.Context, callID string, patch ToolCallPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.byCallID[callID]
	if !ok {
		return ErrNotFound
	}
	applyToolCallPatch(call, patch)
	return nil
}

func applyToolCallPatch(call *ToolCall, patch ToolCallPatch) {
	if patch.Status != nil {
		call.Status = *patch.Status
	}
	if patch.PolicyEffect != nil {
		call.PolicyEffect = *patch.PolicyEffect
	}
	if patch.RiskLevel != nil {
		call.RiskLevel = *patch.RiskLevel
	}
	if patch.StdoutSummary != nil {
		call.StdoutSummary = redact.String(*patch.StdoutSummary)
	}
	if patch.StderrSummary != nil {
		call.StderrSummary = *patch.StderrSummary
	}
	if patch.ExitCode != nil {
		call.ExitCode = patch.ExitCode
	}
	if patch.CompletedAt != nil {
		call.CompletedAt = *patch.CompletedAt
	}
}

func (s *MemoryStore) ListToolCalls(ctx context.Context, sessionID string) ([]*ToolCall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	calls := s.toolCalls[sessionID]
	out := make([]*ToolCall, len(calls))
	for i, c := range calls {
		clone := *c
		out[i] = &clone
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
