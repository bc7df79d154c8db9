package provider

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	openRouterDefaultBaseURL = "https://openrouter.ai/api/v1"
	openRouterReferer        = "https://agentsmith.opentalon.dev"
	openRouterTitle          = "agentsmith"
)

// OpenRouterProvider speaks the same chat-completions wire format as
// OpenAI; it differs only in base URL, key source, and the identifying
// headers OpenRouter asks clients to send.
type OpenRouterProvider struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// OpenRouterOption configures an OpenRouterProvider.
type OpenRouterOption func(*OpenRouterProvider)

// WithOpenRouterHTTPClient sets a custom HTTP client.
func WithOpenRouterHTTPClient(c *http.Client) OpenRouterOption {
	return func(p *OpenRouterProvider) { p.client = c }
}

// WithOpenRouterModel overrides the default model.
func WithOpenRouterModel(model string) OpenRouterOption {
	return func(p *OpenRouterProvider) { p.model = model }
}

// NewOpenRouterProvider creates a provider for the OpenRouter API.
func NewOpenRouterProvider(baseURL, apiKey string, opts ...OpenRouterOption) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = openRouterDefaultBaseURL
	}
	p := &OpenRouterProvider{
		name:    "OpenRouter",
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   "openai/gpt-4o-mini",
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *OpenRouterProvider) Name() string { return p.name }

func (p *OpenRouterProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return completeChat(ctx, p.client, p.name, p.baseURL+openAICompletionsPath, p.headers(), p.model, req)
}

func (p *OpenRouterProvider) headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		h.Set("Authorization", "Bearer "+p.apiKey)
	}
	h.Set("HTTP-Referer", openRouterReferer)
	h.Set("X-Title", openRouterTitle)
	return h
}
