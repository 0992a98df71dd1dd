package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS audit_sessions (
	id                  TEXT PRIMARY KEY,
	started_at          TIMESTAMPTZ NOT NULL,
	ended_at            TIMESTAMPTZ,
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
	duration_sec        DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS audit_tool_calls (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL REFERENCES audit_sessions(id),
	call_id         TEXT NOT NULL UNIQUE,
	tool_name       TEXT NOT NULL,
	input           JSONB,
	status          TEXT NOT NULL,
	policy_effect   TEXT,
	risk_level      TEXT,
	stdout_summary  TEXT,
	stderr_summary  TEXT,
	exit_code       INTEGER,
	created_at      TIMESTAMPTZ NOT NULL,
	completed_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_audit_tool_calls_session ON audit_tool_calls(session_id);
`

// PostgresConfig holds connection-pool tuning for the Postgres-backed
// audit store, used in production fleets.
type PostgresConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultPostgresConfig returns sensible pool defaults.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// NewPostgresStore opens a Postgres-backed audit Store using dsn, runs its
// migration, and verifies connectivity.
func NewPostgresStore(dsn string, config *PostgresConfig) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if config == nil {
		config = DefaultPostgresConfig()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres audit store: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres audit store: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate postgres audit store: %w", err)
	}

	return &sqlStore{db: db, dialect: postgresDialect}, nil
}
