package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/opentalon/agentsmith/internal/metrics"
	"github.com/opentalon/agentsmith/internal/provider"
	"github.com/opentalon/agentsmith/internal/schema"
)

// scriptedProvider replays one canned response (or error) per round and
// records every request it sees.
type scriptedProvider struct {
	responses []*provider.ChatResponse
	errs      []error
	requests  []*provider.ChatRequest
}

func (p *scriptedProvider) Name() string { return "Scripted" }

func (p *scriptedProvider) Chat(_ context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	round := len(p.requests)
	p.requests = append(p.requests, req)
	if round < len(p.errs) && p.errs[round] != nil {
		return nil, p.errs[round]
	}
	if round < len(p.responses) {
		return p.responses[round], nil
	}
	return &provider.ChatResponse{Content: "no script for this round"}, nil
}

func testPlan() *schema.AgentPlan {
	return &schema.AgentPlan{
		SystemPrompt: "You are the Widgets assistant.",
		FunctionDefinitions: []schema.FunctionDefinition{
			{Name: "get_widgets_id", Parameters: schema.FunctionParameters{Type: "object"}},
		},
	}
}

func testAPI(baseURL string) *schema.ParsedAPI {
	return &schema.ParsedAPI{
		Name:    "Widgets",
		BaseURL: baseURL,
		Endpoints: []schema.APIEndpoint{
			{
				Path:   "/widgets/{id}",
				Method: schema.MethodGet,
				Parameters: []schema.APIParameter{
					{Name: "id", Type: "string", Required: true, Location: schema.InPath},
				},
			},
			{
				Path:   "/widgets",
				Method: schema.MethodPost,
				Parameters: []schema.APIParameter{
					{Name: "name", Type: "string", Required: true, Location: schema.InBody},
					{Name: "price", Type: "number", Location: schema.InBody},
				},
			},
		},
		Authentication: schema.APIAuth{Type: schema.AuthBearer},
	}
}

func TestExecuteAgentNoFunctionCalls(t *testing.T) {
	r := New(provider.NewStubProvider(""))
	exec := r.ExecuteAgent(context.Background(), testPlan(), "hello", testAPI("http://unused.invalid"), nil)

	if !exec.Success {
		t.Fatalf("success = false, error = %q", exec.Error)
	}
	if exec.AgentResponse != provider.DefaultStubReply {
		t.Errorf("response = %q", exec.AgentResponse)
	}
	if len(exec.FunctionCalls) != 0 {
		t.Errorf("function calls = %d, want 0", len(exec.FunctionCalls))
	}
	if exec.ID == "" {
		t.Error("execution id should be set")
	}
}

func TestExecuteAgentTwoRounds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "w-1", "stock": 3})
	}))
	defer server.Close()

	scripted := &scriptedProvider{responses: []*provider.ChatResponse{
		{Content: "Checking that widget.", FunctionCalls: []schema.FunctionCall{
			{Name: "get_widgets_id", Parameters: map[string]any{"id": "w-1"}},
		}},
		{Content: "Widget w-1 has 3 in stock."},
	}}

	r := New(scripted)
	exec := r.ExecuteAgent(context.Background(), testPlan(), "how many w-1 left?", testAPI(server.URL), map[string]string{"apiKey": "k"})

	if !exec.Success {
		t.Fatalf("success = false, error = %q", exec.Error)
	}
	if exec.AgentResponse != "Widget w-1 has 3 in stock." {
		t.Errorf("final response = %q, want the second round's content", exec.AgentResponse)
	}
	if len(exec.FunctionCalls) != 1 {
		t.Fatalf("function calls = %d, want 1", len(exec.FunctionCalls))
	}
	if exec.FunctionCalls[0].Error != "" {
		t.Errorf("call error = %q", exec.FunctionCalls[0].Error)
	}

	if len(scripted.requests) != 2 {
		t.Fatalf("provider rounds = %d, want 2", len(scripted.requests))
	}
	followUp := scripted.requests[1]
	if followUp.SystemPrompt != "You are the Widgets assistant." {
		t.Errorf("follow-up system prompt = %q", followUp.SystemPrompt)
	}
	if !strings.Contains(followUp.UserMessage, "Function get_widgets_id succeeded:") {
		t.Errorf("follow-up message missing success line: %q", followUp.UserMessage)
	}
	if !strings.Contains(followUp.UserMessage, `"how many w-1 left?"`) {
		t.Errorf("follow-up message should quote the original message: %q", followUp.UserMessage)
	}
}

func TestExecuteAgentSecondRoundCallsIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	scripted := &scriptedProvider{responses: []*provider.ChatResponse{
		{FunctionCalls: []schema.FunctionCall{{Name: "get_widgets_id", Parameters: map[string]any{"id": "w-1"}}}},
		{Content: "done", FunctionCalls: []schema.FunctionCall{{Name: "get_widgets_id", Parameters: map[string]any{"id": "w-2"}}}},
	}}

	r := New(scripted)
	exec := r.ExecuteAgent(context.Background(), testPlan(), "go", testAPI(server.URL), nil)

	if !exec.Success {
		t.Fatalf("success = false, error = %q", exec.Error)
	}
	if len(scripted.requests) != 2 {
		t.Errorf("provider rounds = %d, want exactly 2", len(scripted.requests))
	}
	if len(exec.FunctionCalls) != 1 {
		t.Errorf("function calls = %d, want 1 (second-round calls dropped)", len(exec.FunctionCalls))
	}
	if exec.AgentResponse != "done" {
		t.Errorf("response = %q", exec.AgentResponse)
	}
}

func TestExecuteAgentPartialFailure(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		if hits == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"n": hits})
	}))
	defer server.Close()

	scripted := &scriptedProvider{responses: []*provider.ChatResponse{
		{FunctionCalls: []schema.FunctionCall{
			{Name: "get_widgets_id", Parameters: map[string]any{"id": "a"}},
			{Name: "get_widgets_id", Parameters: map[string]any{"id": "b"}},
			{Name: "get_widgets_id", Parameters: map[string]any{"id": "c"}},
		}},
		{Content: "mixed results"},
	}}

	r := New(scripted)
	exec := r.ExecuteAgent(context.Background(), testPlan(), "check a b c", testAPI(server.URL), nil)

	if !exec.Success {
		t.Fatalf("a per-call failure must not fail the turn, error = %q", exec.Error)
	}
	if len(exec.FunctionCalls) != 3 {
		t.Fatalf("function calls = %d, want 3", len(exec.FunctionCalls))
	}
	if exec.FunctionCalls[0].Error != "" || exec.FunctionCalls[2].Error != "" {
		t.Error("first and third calls should succeed")
	}
	if exec.FunctionCalls[1].Error != "API call failed: 500 Internal Server Error" {
		t.Errorf("second call error = %q", exec.FunctionCalls[1].Error)
	}
	if exec.FunctionCalls[1].Result != nil {
		t.Error("a failed call must not carry a result")
	}

	followUp := scripted.requests[1].UserMessage
	if !strings.Contains(followUp, "Function get_widgets_id failed: API call failed: 500 Internal Server Error") {
		t.Errorf("follow-up missing failure line: %q", followUp)
	}
}

func TestExecuteAgentProviderErrorFirstRound(t *testing.T) {
	scripted := &scriptedProvider{errs: []error{errors.New("Scripted API error: 503 Service Unavailable")}}

	r := New(scripted)
	exec := r.ExecuteAgent(context.Background(), testPlan(), "hi", testAPI("http://unused.invalid"), nil)

	if exec.Success {
		t.Fatal("success = true, want false")
	}
	if exec.Error != "Scripted API error: 503 Service Unavailable" {
		t.Errorf("error = %q", exec.Error)
	}
	if !strings.Contains(exec.AgentResponse, "I apologize") {
		t.Errorf("response = %q, want apology", exec.AgentResponse)
	}
	if !strings.Contains(exec.AgentResponse, exec.Error) {
		t.Errorf("apology should carry the error message: %q", exec.AgentResponse)
	}
}

func TestExecuteAgentProviderErrorSecondRound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	scripted := &scriptedProvider{
		responses: []*provider.ChatResponse{
			{FunctionCalls: []schema.FunctionCall{{Name: "get_widgets_id", Parameters: map[string]any{"id": "w-1"}}}},
		},
		errs: []error{nil, errors.New("Scripted API error: 429 Too Many Requests")},
	}

	r := New(scripted)
	exec := r.ExecuteAgent(context.Background(), testPlan(), "go", testAPI(server.URL), nil)

	if exec.Success {
		t.Fatal("success = true, want false")
	}
	if len(exec.FunctionCalls) != 1 {
		t.Errorf("executed calls should still be recorded, got %d", len(exec.FunctionCalls))
	}
	if !strings.Contains(exec.AgentResponse, "I apologize") {
		t.Errorf("response = %q", exec.AgentResponse)
	}
}

func TestExecuteAgentUnknownFunction(t *testing.T) {
	scripted := &scriptedProvider{responses: []*provider.ChatResponse{
		{FunctionCalls: []schema.FunctionCall{{Name: "summon_dragon", Parameters: map[string]any{}}}},
		{Content: "sorry, no dragons"},
	}}

	r := New(scripted)
	exec := r.ExecuteAgent(context.Background(), testPlan(), "dragon please", testAPI("http://unused.invalid"), nil)

	if !exec.Success {
		t.Fatalf("an unresolvable name is a per-call failure, not a turn failure: %q", exec.Error)
	}
	if len(exec.FunctionCalls) != 1 {
		t.Fatalf("function calls = %d", len(exec.FunctionCalls))
	}
	if exec.FunctionCalls[0].Error != "Unknown function: summon_dragon" {
		t.Errorf("error = %q", exec.FunctionCalls[0].Error)
	}
}

func TestExecuteAgentTimestampAndID(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := New(provider.NewStubProvider(""),
		WithNow(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "exec-1" }),
	)
	exec := r.ExecuteAgent(context.Background(), testPlan(), "hi", testAPI("http://unused.invalid"), nil)

	if exec.ID != "exec-1" {
		t.Errorf("id = %q", exec.ID)
	}
	if !exec.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v", exec.Timestamp)
	}
}

func TestExecuteAgentCountsProviderRounds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	m := metrics.New(prometheus.NewRegistry())
	scripted := &scriptedProvider{responses: []*provider.ChatResponse{
		{Content: "Checking.", FunctionCalls: []schema.FunctionCall{
			{Name: "get_widgets_id", Parameters: map[string]any{"id": "w-1"}},
		}},
		{Content: "Done."},
	}}

	r := New(scripted, WithMetrics(m))
	r.ExecuteAgent(context.Background(), testPlan(), "check w-1", testAPI(server.URL), nil)

	if got := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("Scripted", "success")); got != 2 {
		t.Errorf("successful provider rounds = %v, want 2", got)
	}

	failing := &scriptedProvider{errs: []error{errors.New("Scripted API error: 503 Service Unavailable")}}
	r = New(failing, WithMetrics(m))
	r.ExecuteAgent(context.Background(), testPlan(), "check w-1", testAPI(server.URL), nil)

	if got := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("Scripted", "error")); got != 1 {
		t.Errorf("failed provider rounds = %v, want 1", got)
	}
}
