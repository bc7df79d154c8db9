package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opentalon/agentsmith/internal/schema"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Agent is one persisted agent: the analyzed API it was built from, the
// goal, and the generated plan.
type Agent struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Goal      string           `json:"goal"`
	API       schema.ParsedAPI `json:"api"`
	Plan      schema.AgentPlan `json:"plan"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// AgentStore persists agents.
type AgentStore struct {
	db *DB
}

// NewAgentStore returns an agent store over db.
func NewAgentStore(db *DB) *AgentStore {
	return &AgentStore{db: db}
}

// Create inserts an agent. CreatedAt/UpdatedAt are set here.
func (s *AgentStore) Create(agent *Agent) error {
	apiJSON, err := json.Marshal(agent.API)
	if err != nil {
		return fmt.Errorf("encode api: %w", err)
	}
	planJSON, err := json.Marshal(agent.Plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	now := time.Now().UTC()
	agent.CreatedAt = now
	agent.UpdatedAt = now
	_, err = s.db.SQLDB().Exec(
		s.db.bind(`INSERT INTO agents (id, name, goal, api, plan, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		agent.ID, agent.Name, agent.Goal, string(apiJSON), string(planJSON),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// Get loads an agent by id.
func (s *AgentStore) Get(id string) (*Agent, error) {
	var name, goal, apiJSON, planJSON, createdAt, updatedAt string
	err := s.db.SQLDB().QueryRow(
		s.db.bind(`SELECT name, goal, api, plan, created_at, updated_at FROM agents WHERE id = ?`),
		id,
	).Scan(&name, &goal, &apiJSON, &planJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("agent %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load agent: %w", err)
	}

	agent := &Agent{ID: id, Name: name, Goal: goal}
	if err := json.Unmarshal([]byte(apiJSON), &agent.API); err != nil {
		return nil, fmt.Errorf("decode api: %w", err)
	}
	if err := json.Unmarshal([]byte(planJSON), &agent.Plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	agent.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	agent.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return agent, nil
}

// List returns all agents, newest first, with their api and plan
// payloads fully decoded.
func (s *AgentStore) List() ([]*Agent, error) {
	rows, err := s.db.SQLDB().Query(
		`SELECT id, name, goal, api, plan, created_at, updated_at FROM agents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var agents []*Agent
	for rows.Next() {
		var agent Agent
		var apiJSON, planJSON, createdAt, updatedAt string
		if err := rows.Scan(&agent.ID, &agent.Name, &agent.Goal, &apiJSON, &planJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		if err := json.Unmarshal([]byte(apiJSON), &agent.API); err != nil {
			return nil, fmt.Errorf("decode api: %w", err)
		}
		if err := json.Unmarshal([]byte(planJSON), &agent.Plan); err != nil {
			return nil, fmt.Errorf("decode plan: %w", err)
		}
		agent.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		agent.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		agents = append(agents, &agent)
	}
	return agents, rows.Err()
}

// Delete removes an agent and, via the schema's cascade, its
// executions.
func (s *AgentStore) Delete(id string) error {
	res, err := s.db.SQLDB().Exec(s.db.bind(`DELETE FROM agents WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("agent %q: %w", id, ErrNotFound)
	}
	return nil
}
