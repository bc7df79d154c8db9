// Package planner turns a normalized API description plus a free-text
// goal into a deterministic agent plan: workflow graph, system prompt,
// function schemas, and conversation flow.
package planner

import (
	"time"

	"github.com/opentalon/agentsmith/internal/metrics"
	"github.com/opentalon/agentsmith/internal/schema"
)

// Planner builds agent plans. Planning never fails: an empty or
// nonsensical goal degrades to a plan with zero api_call steps.
type Planner struct {
	now     func() time.Time
	metrics *metrics.Metrics
}

// Option configures a Planner.
type Option func(*Planner)

// WithNow injects the clock used for workflow ids, so plans are
// reproducible under test.
func WithNow(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// WithMetrics attaches planning instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Planner) { p.metrics = m }
}

// New creates a Planner.
func New(opts ...Option) *Planner {
	p := &Planner{now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Plan is deterministic in (api, goal) and the injected clock. The
// returned plan is immutable: the runtime only reads it.
func (p *Planner) Plan(api *schema.ParsedAPI, goal string) *schema.AgentPlan {
	relevant := RelevantEndpoints(api, goal)
	wf := p.createWorkflow(api, goal, relevant)

	if p.metrics != nil {
		p.metrics.ObservePlan()
	}
	return &schema.AgentPlan{
		Workflow:            wf,
		SystemPrompt:        generateSystemPrompt(api, wf),
		FunctionDefinitions: generateFunctionDefinitions(api),
		ConversationFlow:    generateConversationFlow(wf),
	}
}
