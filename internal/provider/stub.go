package provider

import "context"

// DefaultStubReply is what agents answer when no live backend is
// configured (builder previews, tests).
const DefaultStubReply = "This is a preview response from your agent. Connect a live model provider to enable real conversations."

// StubProvider always returns a canned string and never declares
// function calls.
type StubProvider struct {
	Reply string
}

// NewStubProvider creates a stub backend. An empty reply falls back to
// DefaultStubReply.
func NewStubProvider(reply string) *StubProvider {
	if reply == "" {
		reply = DefaultStubReply
	}
	return &StubProvider{Reply: reply}
}

func (p *StubProvider) Name() string { return "Stub" }

func (p *StubProvider) Chat(_ context.Context, _ *ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{Content: p.Reply}, nil
}
