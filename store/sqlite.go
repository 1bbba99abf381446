package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/carverhealth/medgate/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS gate_decisions (
			decision_id TEXT PRIMARY KEY,
			session_id TEXT,
			policy TEXT NOT NULL,
			allowed INTEGER NOT NULL,
			latency_ms INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gate_decisions_session ON gate_decisions(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS llm_calls (
			request_id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL,
			error TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_llm_calls_created ON llm_calls(created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// RecordGateDecision inserts one gate decision.
func (s *SQLiteStore) RecordGateDecision(ctx context.Context, d *domain.GateDecision) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gate_decisions (decision_id, session_id, policy, allowed, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.DecisionID, d.SessionID, d.Policy, boolToInt(d.Allowed), d.LatencyMs, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert gate decision: %w", err)
	}
	return nil
}

// GetGateDecisions returns decisions, newest first. Empty sessionID matches all.
func (s *SQLiteStore) GetGateDecisions(ctx context.Context, sessionID string, limit int) ([]domain.GateDecision, error) {
	query := `SELECT decision_id, session_id, policy, allowed, latency_ms, created_at
	          FROM gate_decisions`
	args := []interface{}{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query gate decisions: %w", err)
	}
	defer rows.Close()

	var out []domain.GateDecision
	for rows.Next() {
		var d domain.GateDecision
		var allowed int
		if err := rows.Scan(&d.DecisionID, &d.SessionID, &d.Policy, &allowed, &d.LatencyMs, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gate decision: %w", err)
		}
		d.Allowed = allowed != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecordLLMCall inserts one upstream call record.
func (s *SQLiteStore) RecordLLMCall(ctx context.Context, call *domain.LLMCall) error {
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_calls (request_id, model, prompt_tokens, completion_tokens, total_tokens, latency_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		call.RequestID, call.Model, call.PromptTokens, call.CompletionTokens, call.TotalTokens,
		call.LatencyMs, call.Error, call.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert llm call: %w", err)
	}
	return nil
}

// GetLLMCalls returns upstream call records, newest first.
func (s *SQLiteStore) GetLLMCalls(ctx context.Context, limit int) ([]domain.LLMCall, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, model, prompt_tokens, completion_tokens, total_tokens, latency_ms, COALESCE(error, ''), created_at
		 FROM llm_calls ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query llm calls: %w", err)
	}
	defer rows.Close()

	var out []domain.LLMCall
	for rows.Next() {
		var c domain.LLMCall
		if err := rows.Scan(&c.RequestID, &c.Model, &c.PromptTokens, &c.CompletionTokens, &c.TotalTokens,
			&c.LatencyMs, &c.Error, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan llm call: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
