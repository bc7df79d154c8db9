package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opentalon/agentsmith/internal/schema"
)

const (
	openAIDefaultBaseURL  = "https://api.openai.com/v1"
	openAICompletionsPath = "/chat/completions"
	defaultModel          = "gpt-4o-mini"
)

// OpenAIProvider talks to the OpenAI chat-completions API (or any
// endpoint speaking the same wire format).
type OpenAIProvider struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(c *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) { p.client = c }
}

// WithOpenAIModel overrides the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) { p.model = model }
}

// NewOpenAIProvider creates a provider for an OpenAI-compatible endpoint.
func NewOpenAIProvider(baseURL, apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	p := &OpenAIProvider{
		name:    "OpenAI",
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   defaultModel,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *OpenAIProvider) Name() string { return p.name }

// Chat sends one completion round, with function declarations when the
// request carries any.
func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return completeChat(ctx, p.client, p.name, p.baseURL+openAICompletionsPath, p.headers(), p.model, req)
}

func (p *OpenAIProvider) headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		h.Set("Authorization", "Bearer "+p.apiKey)
	}
	return h
}

// -- chat-completions wire types --

type oaiRequest struct {
	Model     string                      `json:"model"`
	Messages  []oaiMessage                `json:"messages"`
	Functions []schema.FunctionDefinition `json:"functions,omitempty"`
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
	Error   *oaiError   `json:"error,omitempty"`
}

type oaiChoice struct {
	Message oaiChoiceMessage `json:"message"`
}

type oaiChoiceMessage struct {
	Content      string           `json:"content"`
	FunctionCall *oaiFunctionCall `json:"function_call,omitempty"`
}

type oaiFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type oaiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// completeChat is the shared request/response path for every backend
// speaking the chat-completions wire format; the backends differ only
// in URL, headers, and reported name.
func completeChat(ctx context.Context, client *http.Client, name, url string, headers http.Header, model string, req *ChatRequest) (*ChatResponse, error) {
	wire := oaiRequest{
		Model: model,
		Messages: []oaiMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserMessage},
		},
		Functions: req.Functions,
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, fmt.Errorf("%s API error: %s", name, httpResp.Status)
	}

	var wireResp oaiResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if wireResp.Error != nil {
		return nil, fmt.Errorf("%s error [%s]: %s", name, wireResp.Error.Type, wireResp.Error.Message)
	}

	resp := &ChatResponse{}
	if len(wireResp.Choices) == 0 {
		return resp, nil
	}

	msg := wireResp.Choices[0].Message
	resp.Content = msg.Content
	if msg.FunctionCall != nil && msg.FunctionCall.Name != "" {
		params, err := parseArguments(msg.FunctionCall.Arguments)
		if err != nil {
			return nil, fmt.Errorf("%s function call arguments: %w", name, err)
		}
		resp.FunctionCalls = append(resp.FunctionCalls, schema.FunctionCall{
			Name:       msg.FunctionCall.Name,
			Parameters: params,
		})
	}
	return resp, nil
}

// parseArguments decodes the JSON-string arguments field, defaulting to
// an empty object when absent or empty.
func parseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}
