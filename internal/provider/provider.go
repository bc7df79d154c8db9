// Package provider implements the LLM backend boundary: chat
// completion with optional function calling.
package provider

import (
	"context"

	"github.com/opentalon/agentsmith/internal/schema"
)

// ChatRequest is one LLM round: the plan's system prompt, the user
// message for this round, and the callable function declarations.
type ChatRequest struct {
	SystemPrompt string
	UserMessage  string
	Functions    []schema.FunctionDefinition
}

// ChatResponse carries the model's text plus any function calls it
// requested. Backends in this design return at most one call per turn,
// but the slice keeps the contract forward-compatible.
type ChatResponse struct {
	Content       string
	FunctionCalls []schema.FunctionCall
}

// Provider is a pluggable LLM backend.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
