package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/opentalon/agentsmith/internal/schema"
)

// ExecutionStore persists per-turn execution records.
type ExecutionStore struct {
	db *DB
}

// NewExecutionStore returns an execution store over db.
func NewExecutionStore(db *DB) *ExecutionStore {
	return &ExecutionStore{db: db}
}

// Record saves one execution for an agent.
func (s *ExecutionStore) Record(agentID string, exec *schema.AgentExecution) error {
	callsJSON, err := json.Marshal(exec.FunctionCalls)
	if err != nil {
		return fmt.Errorf("encode function calls: %w", err)
	}
	success := 0
	if exec.Success {
		success = 1
	}
	_, err = s.db.SQLDB().Exec(
		s.db.bind(`INSERT INTO executions (id, agent_id, user_message, agent_response, function_calls, success, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		exec.ID, agentID, exec.UserMessage, exec.AgentResponse, string(callsJSON),
		success, exec.Error, exec.Timestamp.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// ListByAgent returns an agent's executions, newest first, capped at
// limit (0 means no cap).
func (s *ExecutionStore) ListByAgent(agentID string, limit int) ([]*schema.AgentExecution, error) {
	query := `SELECT id, user_message, agent_response, function_calls, success, error, created_at FROM executions WHERE agent_id = ? ORDER BY created_at DESC`
	args := []any{agentID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.SQLDB().Query(s.db.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var execs []*schema.AgentExecution
	for rows.Next() {
		var exec schema.AgentExecution
		var callsJSON, createdAt string
		var success int
		if err := rows.Scan(&exec.ID, &exec.UserMessage, &exec.AgentResponse, &callsJSON, &success, &exec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		if err := json.Unmarshal([]byte(callsJSON), &exec.FunctionCalls); err != nil {
			return nil, fmt.Errorf("decode function calls: %w", err)
		}
		exec.Success = success != 0
		exec.Timestamp, _ = time.Parse(time.RFC3339, createdAt)
		execs = append(execs, &exec)
	}
	return execs, rows.Err()
}
