package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opsctl/agentcore/internal/redact"
)

// sqlStore implements Store over database/sql. It is shared by the SQLite
// and Postgres backends; the only difference between them is schema DDL
// and placeholder syntax, both captured in the dialect.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

// dialect isolates the two points where SQLite and Postgres syntax diverge:
// positional placeholders and bind-parameter numbering.
type dialect struct {
	name string
	bind func(n int) string // nth bind parameter, 1-indexed
}

var sqliteDialect = dialect{
	name: "sqlite",
	bind: func(n int) string { return "?" },
}

var postgresDialect = dialect{
	name: "postgres",
	bind: func(n int) string { return fmt.Sprintf("$%d", n) },
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlStore) CreateSession(ctx context.Context, session *Session) error {
	if session == nil {
		return nil
	}
	binds := make([]string, 16)
	for i := range binds {
		binds[i] = s.dialect.bind(i + 1)
	}
	q := fmt.Sprintf(`
		INSERT INTO audit_sessions
			(id, started_at, ended_at, env, session_user, hostname, provider, model, user_prompt, final_response, iteration_count, status, error, usage_input_tokens, usage_output_tokens, duration_sec)
		VALUES (%s)
	`, strings.Join(binds, ","))
	_, err := s.db.ExecContext(ctx, q,
		session.ID, session.StartedAt, nullTime(session.EndedAt), session.Env, session.User, session.Hostname,
		session.Provider, session.Model, session.UserPrompt, nullableString(session.FinalResponse),
		session.IterationCount, string(session.Status), nullableString(session.Error),
		session.Usage.InputTokens, session.Usage.OutputTokens, nullFloat(session.DurationSec),
	)
	if err != nil {
		return fmt.Errorf("create audit session: %w", err)
	}
	return nil
}

func (s *sqlStore) UpdateSession(ctx context.Context, sessionID string, patch SessionPatch) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	applySessionPatch(session, patch)

	q := fmt.Sprintf(`
		UPDATE audit_sessions
		SET ended_at = %s, final_response = %s, iteration_count = %s, status = %s, error = %s, usage_input_tokens = %s, usage_output_tokens = %s, duration_sec = %s
		WHERE id = %s
	`, s.dialect.bind(1), s.dialect.bind(2), s.dialect.bind(3), s.dialect.bind(4), s.dialect.bind(5),
		s.dialect.bind(6), s.dialect.bind(7), s.dialect.bind(8), s.dialect.bind(9))
	_, err = s.db.ExecContext(ctx, q,
		nullTime(session.EndedAt), nullableString(session.FinalResponse), session.IterationCount,
		string(session.Status), nullableString(session.Error), session.Usage.InputTokens,
		session.Usage.OutputTokens, nullFloat(session.DurationSec), sessionID,
	)
	if err != nil {
		return fmt.Errorf("update audit session: %w", err)
	}
	return nil
}

func (s *sqlStore) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	q := fmt.Sprintf(`
		SELECT id, started_at, ended_at, env, session_user, hostname, provider, model, user_prompt, final_response, iteration_count, status, error, usage_input_tokens, usage_output_tokens, duration_sec
		FROM audit_sessions WHERE id = %s
	`, s.dialect.bind(1))
	row := s.db.QueryRowContext(ctx, q, sessionID)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get audit session: %w", err)
	}
	return session, nil
}

func (s *sqlStore) ListSessions(ctx context.Context, limit int, status SessionStatus) ([]*Session, error) {
	query := `
		SELECT id, started_at, ended_at, env, session_user, hostname, provider, model, user_prompt, final_response, iteration_count, status, error, usage_input_tokens, usage_output_tokens, duration_sec
		FROM audit_sessions`
	var args []any
	if status != "" {
		args = append(args, string(status))
		query += fmt.Sprintf(" WHERE status = %s", s.dialect.bind(len(args)))
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT %s", s.dialect.bind(len(args)))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit session: %w", err)
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

func (s *sqlStore) AddToolCall(ctx context.Context, call *ToolCall) error {
	if call == nil {
		return nil
	}
	q := fmt.Sprintf(`
		INSERT INTO audit_tool_calls
			(id, session_id, call_id, tool_name, input, status, policy_effect, risk_level, stdout_summary, stderr_summary, exit_code, created_at, completed_at)
		VALUES (%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s)
	`, s.dialect.bind(1), s.dialect.bind(2), s.dialect.bind(3), s.dialect.bind(4), s.dialect.bind(5),
		s.dialect.bind(6), s.dialect.bind(7), s.dialect.bind(8), s.dialect.bind(9), s.dialect.bind(10),
		s.dialect.bind(11), s.dialect.bind(12), s.dialect.bind(13))
	_, err := s.db.ExecContext(ctx, q,
		call.ID, call.SessionID, call.CallID, call.ToolName, []byte(call.Input), string(call.Status),
		call.PolicyEffect, call.RiskLevel, call.StdoutSummary, call.StderrSummary, nullInt(call.ExitCode),
		call.CreatedAt, nullTime(call.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("add audit tool call: %w", err)
	}
	return nil
}

func (s *sqlStore) UpdateToolCall(ctx context.Context, callID string, patch ToolCallPatch) error {
	if patch.StdoutSummary != nil {
		redacted := redact.String(*patch.StdoutSummary)
		patch.StdoutSummary = &redacted
	}

	var sets []string
	var args []any
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = %s", column, s.dialect.bind(len(args))))
	}
	if patch.Status != nil {
		addSet("status", string(*patch.Status))
	}
	if patch.PolicyEffect != nil {
		addSet("policy_effect", *patch.PolicyEffect)
	}
	if patch.RiskLevel != nil {
		addSet("risk_level", *patch.RiskLevel)
	}
	if patch.StdoutSummary != nil {
		addSet("stdout_summary", *patch.StdoutSummary)
	}
	if patch.StderrSummary != nil {
		addSet("stderr_summary", *patch.StderrSummary)
	}
	if patch.ExitCode != nil {
		addSet("exit_code", nullInt(patch.ExitCode))
	}
	if patch.CompletedAt != nil {
		addSet("completed_at", nullTime(*patch.CompletedAt))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, callID)

	query := "UPDATE audit_tool_calls SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += fmt.Sprintf(" WHERE call_id = %s", s.dialect.bind(len(args)))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update audit tool call: %w", err)
	}
	return nil
}

func (s *sqlStore) ListToolCalls(ctx context.Context, sessionID string) ([]*ToolCall, error) {
	q := fmt.Sprintf(`
		SELECT id, session_id, call_id, tool_name, input, status, policy_effect, risk_level, stdout_summary, stderr_summary, exit_code, created_at, completed_at
		FROM audit_tool_calls WHERE session_id = %s ORDER BY created_at ASC
	`, s.dialect.bind(1))
	rows, err := s.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list audit tool calls: %w", err)
	}
	defer rows.Close()

	var out []*ToolCall
	for rows.Next() {
		call, err := scanToolCall(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit tool call: %w", err)
		}
		out = append(out, call)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(scanner rowScanner) (*Session, error) {
	var (
		session       Session
		endedAt       sql.NullTime
		finalResponse sql.NullString
		status        string
		errMsg        sql.NullString
		inputTokens   sql.NullInt64
		outputTokens  sql.NullInt64
		durationSec   sql.NullFloat64
	)
	if err := scanner.Scan(
		&session.ID, &session.StartedAt, &endedAt, &session.Env, &session.User, &session.Hostname,
		&session.Provider, &session.Model, &session.UserPrompt, &finalResponse, &session.IterationCount,
		&status, &errMsg, &inputTokens, &outputTokens, &durationSec,
	); err != nil {
		return nil, err
	}
	session.Status = SessionStatus(status)
	if endedAt.Valid {
		session.EndedAt = endedAt.Time
	}
	if finalResponse.Valid {
		session.FinalResponse = finalResponse.String
	}
	if errMsg.Valid {
		session.Error = errMsg.String
	}
	session.Usage = Usage{InputTokens: int(inputTokens.Int64), OutputTokens: int(outputTokens.Int64)}
	if durationSec.Valid {
		session.DurationSec = durationSec.Float64
	}
	return &session, nil
}

func scanToolCall(scanner rowScanner) (*ToolCall, error) {
	var (
		call        ToolCall
		inputBytes  []byte
		status      string
		exitCode    sql.NullInt64
		completedAt sql.NullTime
	)
	if err := scanner.Scan(
		&call.ID, &call.SessionID, &call.CallID, &call.ToolName, &inputBytes, &status,
		&call.PolicyEffect, &call.RiskLevel, &call.StdoutSummary, &call.StderrSummary, &exitCode,
		&call.CreatedAt, &completedAt,
	); err != nil {
		return nil, err
	}
	call.Status = ToolCallStatus(status)
	if len(inputBytes) > 0 {
		call.Input = json.RawMessage(inputBytes)
	}
	if exitCode.Valid {
		code := int(exitCode.Int64)
		call.ExitCode = &code
	}
	if completedAt.Valid {
		call.CompletedAt = completedAt.Time
	}
	return &call, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v float64) sql.NullFloat64 {
	if v == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
