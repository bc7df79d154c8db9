package scheduler

import (
	"context"
	"fmt"

	"github.com/opentalon/agentsmith/internal/analyzer"
	"github.com/opentalon/agentsmith/internal/planner"
	"github.com/opentalon/agentsmith/internal/runtime"
	"github.com/opentalon/agentsmith/internal/schema"
)

// Pipeline is the production Runner: analyze, plan, execute. Runtimes
// is keyed by provider name from the config; jobs with no provider use
// the default.
type Pipeline struct {
	Analyzer       *analyzer.Analyzer
	Planner        *planner.Planner
	Runtimes       map[string]*runtime.Runtime
	DefaultRuntime *runtime.Runtime
	Credentials    map[string]string
}

// RunScheduled builds a fresh agent for the job and runs its message.
// The plan is rebuilt every firing so upstream API changes are picked
// up without restarting.
func (p *Pipeline) RunScheduled(ctx context.Context, job Job) (*schema.AgentExecution, error) {
	api, err := p.Analyzer.Analyze(ctx, job.APIInput)
	if err != nil {
		return nil, fmt.Errorf("analyze %q: %w", job.APIInput, err)
	}

	plan := p.Planner.Plan(api, job.Goal)

	rt := p.DefaultRuntime
	if job.Provider != "" {
		named, ok := p.Runtimes[job.Provider]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", job.Provider)
		}
		rt = named
	}
	if rt == nil {
		return nil, fmt.Errorf("no runtime configured")
	}

	return rt.ExecuteAgent(ctx, plan, job.Message, api, p.Credentials), nil
}
