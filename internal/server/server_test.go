package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opentalon/agentsmith/internal/analyzer"
	"github.com/opentalon/agentsmith/internal/metrics"
	"github.com/opentalon/agentsmith/internal/planner"
	"github.com/opentalon/agentsmith/internal/provider"
	"github.com/opentalon/agentsmith/internal/registry"
	"github.com/opentalon/agentsmith/internal/runtime"
	"github.com/opentalon/agentsmith/internal/schema"
	"github.com/opentalon/agentsmith/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	rt := runtime.New(provider.NewStubProvider(""), runtime.WithMetrics(m))

	s := New(Deps{
		Analyzer:   analyzer.New(),
		Planner:    planner.New(),
		Runtime:    rt,
		Registry:   registry.New(rt),
		Agents:     store.NewAgentStore(db),
		Executions: store.NewExecutionStore(db),
		Metrics:    m,
		Gatherer:   reg,
	})

	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func getJSON(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func createAgent(t *testing.T, base string) *store.Agent {
	t.Helper()
	resp, data := postJSON(t, base+"/v1/agents", map[string]string{
		"input": "shopify",
		"goal":  "send the lowest stock items to my mail",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}
	var agent store.Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		t.Fatal(err)
	}
	return &agent
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)
	resp, _ := getJSON(t, server.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestAnalyzeKnownService(t *testing.T) {
	server := newTestServer(t)

	resp, data := postJSON(t, server.URL+"/v1/analyze", map[string]string{"input": "shopify"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}
	var api schema.ParsedAPI
	if err := json.Unmarshal(data, &api); err != nil {
		t.Fatal(err)
	}
	if api.Name != "Shopify" || len(api.Endpoints) != 4 {
		t.Errorf("api = %s with %d endpoints", api.Name, len(api.Endpoints))
	}
}

func TestAnalyzeRejectsGarbage(t *testing.T) {
	server := newTestServer(t)

	resp, data := postJSON(t, server.URL+"/v1/analyze", map[string]string{"input": "not an api at all"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}
	var body errorResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.Error, "Unable to analyze API") {
		t.Errorf("error = %q", body.Error)
	}
}

func TestAgentLifecycle(t *testing.T) {
	server := newTestServer(t)
	agent := createAgent(t, server.URL)

	if agent.ID == "" {
		t.Fatal("agent id not set")
	}
	if len(agent.Plan.FunctionDefinitions) == 0 {
		t.Error("plan should carry function definitions")
	}

	resp, data := getJSON(t, server.URL+"/v1/agents/"+agent.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", resp.StatusCode, data)
	}

	resp, data = getJSON(t, server.URL+"/v1/agents")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var agents []store.Agent
	if err := json.Unmarshal(data, &agents); err != nil {
		t.Fatal(err)
	}
	if len(agents) != 1 {
		t.Errorf("agents = %d", len(agents))
	}

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/v1/agents/"+agent.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", delResp.StatusCode)
	}

	resp, _ = getJSON(t, server.URL+"/v1/agents/"+agent.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.StatusCode)
	}
}

func TestExecuteTurn(t *testing.T) {
	server := newTestServer(t)
	agent := createAgent(t, server.URL)

	resp, data := postJSON(t, server.URL+"/v1/agents/"+agent.ID+"/execute", map[string]any{
		"message": "how is my stock?",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}
	var exec schema.AgentExecution
	if err := json.Unmarshal(data, &exec); err != nil {
		t.Fatal(err)
	}
	if !exec.Success {
		t.Errorf("success = false, error = %q", exec.Error)
	}
	if exec.AgentResponse != provider.DefaultStubReply {
		t.Errorf("response = %q", exec.AgentResponse)
	}
	if len(exec.FunctionCalls) != 0 {
		t.Errorf("function calls = %d", len(exec.FunctionCalls))
	}

	resp, data = getJSON(t, server.URL+"/v1/agents/"+agent.ID+"/executions")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("executions status = %d", resp.StatusCode)
	}
	var execs []schema.AgentExecution
	if err := json.Unmarshal(data, &execs); err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 || execs[0].ID != exec.ID {
		t.Errorf("executions = %+v", execs)
	}
}

func TestExecuteRequiresMessage(t *testing.T) {
	server := newTestServer(t)
	agent := createAgent(t, server.URL)

	resp, _ := postJSON(t, server.URL+"/v1/agents/"+agent.ID+"/execute", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestExecuteUnknownAgent(t *testing.T) {
	server := newTestServer(t)

	resp, _ := postJSON(t, server.URL+"/v1/agents/nope/execute", map[string]any{"message": "hi"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestFunctionCallsEndpoint(t *testing.T) {
	server := newTestServer(t)
	agent := createAgent(t, server.URL)

	resp, data := postJSON(t, server.URL+"/v1/agents/"+agent.ID+"/calls", map[string]any{
		"calls": []map[string]any{
			{"name": "send_email", "parameters": map[string]any{"to": "me@example.com"}},
			{"name": "teleport"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}
	var calls []schema.FunctionCall
	if err := json.Unmarshal(data, &calls); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %d", len(calls))
	}
	if calls[0].Error != "" {
		t.Errorf("send_email error = %q", calls[0].Error)
	}
	if calls[1].Error != "Unknown function: teleport" {
		t.Errorf("teleport error = %q", calls[1].Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)
	agent := createAgent(t, server.URL)

	// One execution so a counter has a value.
	postJSON(t, server.URL+"/v1/agents/"+agent.ID+"/execute", map[string]any{"message": "hi"})

	resp, data := getJSON(t, server.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(data), "agentsmith_executions_total") {
		t.Error("metrics output missing execution counter")
	}
}

func TestChatWebsocket(t *testing.T) {
	server := newTestServer(t)
	agent := createAgent(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/agents/" + agent.ID + "/chat"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	payload, _ := json.Marshal(map[string]any{"message": "hello there"})
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		t.Fatal(err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var exec schema.AgentExecution
	if err := json.Unmarshal(data, &exec); err != nil {
		t.Fatal(err)
	}
	if !exec.Success || exec.AgentResponse != provider.DefaultStubReply {
		t.Errorf("execution = %+v", exec)
	}
	if exec.UserMessage != "hello there" {
		t.Errorf("user message = %q", exec.UserMessage)
	}
}
