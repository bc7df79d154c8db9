// Package runtime executes agent turns: it drives the two-round LLM
// protocol and maps declared function calls onto real HTTP requests
// against the target API.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opentalon/agentsmith/internal/metrics"
	"github.com/opentalon/agentsmith/internal/provider"
	"github.com/opentalon/agentsmith/internal/schema"
)

const apologyTemplate = "I apologize, but something went wrong while handling your request: %s. Please try again."

// Runtime drives agent executions. It holds no per-execution state, so
// one Runtime is safe for concurrent turns.
type Runtime struct {
	provider provider.Provider
	client   *http.Client
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithHTTPClient overrides the client used for target-API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runtime) { r.client = c }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithMetrics attaches execution instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

// WithNow overrides the execution timestamp source.
func WithNow(now func() time.Time) Option {
	return func(r *Runtime) { r.now = now }
}

// WithIDGenerator overrides the execution id source.
func WithIDGenerator(gen func() string) Option {
	return func(r *Runtime) { r.newID = gen }
}

// New creates a Runtime backed by the given LLM provider.
func New(p provider.Provider, opts ...Option) *Runtime {
	r := &Runtime{
		provider: p,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ExecuteAgent runs one user turn against the plan. It never returns an
// error: turn-level failures are recorded on the execution and rendered
// as an apology response. At most two LLM rounds happen per turn; any
// function calls the second round declares are dropped.
func (r *Runtime) ExecuteAgent(ctx context.Context, plan *schema.AgentPlan, userMessage string, api *schema.ParsedAPI, credentials map[string]string) *schema.AgentExecution {
	start := r.now()
	exec := &schema.AgentExecution{
		ID:            r.newID(),
		UserMessage:   userMessage,
		FunctionCalls: []schema.FunctionCall{},
		Timestamp:     start,
	}

	resp, err := r.chat(ctx, &provider.ChatRequest{
		SystemPrompt: plan.SystemPrompt,
		UserMessage:  userMessage,
		Functions:    plan.FunctionDefinitions,
	})
	if err != nil {
		return r.fail(exec, err)
	}
	exec.AgentResponse = resp.Content

	if len(resp.FunctionCalls) > 0 {
		// Strictly sequential, in the order the model declared them.
		// A failed call stays local to that call and the turn goes on.
		for _, call := range resp.FunctionCalls {
			done := r.ExecuteFunctionCall(ctx, call, api, credentials)
			if r.metrics != nil {
				r.metrics.ObserveFunctionCall(done.Error != "")
			}
			exec.FunctionCalls = append(exec.FunctionCalls, done)
		}

		followUp, err := r.chat(ctx, &provider.ChatRequest{
			SystemPrompt: plan.SystemPrompt,
			UserMessage:  followUpMessage(exec.FunctionCalls, userMessage),
		})
		if err != nil {
			return r.fail(exec, err)
		}
		exec.AgentResponse = followUp.Content
	}

	exec.Success = true
	if r.metrics != nil {
		r.metrics.ObserveExecution(true, r.now().Sub(start))
	}
	r.logger.Debug("agent turn complete",
		zap.String("execution_id", exec.ID),
		zap.Int("function_calls", len(exec.FunctionCalls)))
	return exec
}

// chat forwards one round to the provider, counting the round trip.
func (r *Runtime) chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	resp, err := r.provider.Chat(ctx, req)
	if r.metrics != nil {
		r.metrics.ObserveProviderRequest(r.provider.Name(), err)
	}
	return resp, err
}

func (r *Runtime) fail(exec *schema.AgentExecution, err error) *schema.AgentExecution {
	exec.Success = false
	exec.Error = err.Error()
	exec.AgentResponse = fmt.Sprintf(apologyTemplate, err.Error())
	if r.metrics != nil {
		r.metrics.ObserveExecution(false, r.now().Sub(exec.Timestamp))
	}
	r.logger.Warn("agent turn failed",
		zap.String("execution_id", exec.ID),
		zap.Error(err))
	return exec
}

// followUpMessage serializes every call outcome for the second LLM
// round, then quotes the original user message back.
func followUpMessage(calls []schema.FunctionCall, userMessage string) string {
	lines := make([]string, 0, len(calls))
	for _, call := range calls {
		if call.Error != "" {
			lines = append(lines, fmt.Sprintf("Function %s failed: %s", call.Name, call.Error))
			continue
		}
		lines = append(lines, fmt.Sprintf("Function %s succeeded: %s", call.Name, marshalResult(call.Result)))
	}
	return fmt.Sprintf("%s\n\nThe user originally asked: %q", strings.Join(lines, "\n"), userMessage)
}
