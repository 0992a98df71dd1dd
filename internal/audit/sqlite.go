package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_sessions (
	id                  TEXT PRIMARY KEY,
	started_at          DATETIME NOT NULL,
	ended_at            DATETIME,
	env                 TEXT,
	session_user        TEXT NOT NULL DEFAULT '',
	hostname            TEXT NOT NULL DEFAULT '',
	provider            TEXT NOT NULL,
	model               TEXT NOT NULL,
	user_prompt         TEXT NOT NULL,
	final_response      TEXT,
	iteration_count     INTEGER NOT NULL DEFAULT 0,
	status              TEXT NOT NULL,
	error               TEXT,
	usage_input_tokens  INTEGER NOT NULL DEFAULT 0,
	usage_output_tokens INTEGER NOT NULL DEFAULT 0,
	duration_sec        REAL
);

CREATE TABLE IF NOT EXISTS audit_tool_calls (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL REFERENCES audit_sessions(id),
	call_id         TEXT NOT NULL UNIQUE,
	tool_name       TEXT NOT NULL,
	input           BLOB,
	status          TEXT NOT NULL,
	policy_effect   TEXT,
	risk_level      TEXT,
	stdout_summary  TEXT,
	stderr_summary  TEXT,
	exit_code       INTEGER,
	created_at      DATETIME NOT NULL,
	completed_at    DATETIME
);

CREATE INDEX IF NOT EXISTS idx_audit_tool_calls_session ON audit_tool_calls(session_id);
`

// NewSQLiteStore opens (creating if necessary) a pure-Go SQLite-backed
// audit Store at path. Intended for local development and single-process
// deployments; modernc.org/sqlite avoids a cgo dependency.
func NewSQLiteStore(path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite audit store: %w", err)
	}
	// SQLite serializes writers; a single connection avoids "database is
	// locked" errors from the agent loop's concurrent tool calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite audit store: %w", err)
	}

	return &sqlStore{db: db, dialect: sqliteDialect}, nil
}
