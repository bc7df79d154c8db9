// Package registry holds the dynamic function table: name-keyed
// handlers invoked directly from a pre-staged list of function calls,
// bypassing generic HTTP-request synthesis. It exists for scripted
// multi-step executions where the calls are decided up front rather
// than by the model turn-by-turn.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/opentalon/agentsmith/internal/runtime"
	"github.com/opentalon/agentsmith/internal/schema"
)

// HandlerContext carries batch-scoped state into a handler. Results
// holds the output of every call already executed in this batch, keyed
// by function name, so a later handler can build on an earlier one.
type HandlerContext struct {
	API         *schema.ParsedAPI
	Credentials map[string]string
	Results     map[string]any
}

// Handler executes one registered function call.
type Handler func(ctx context.Context, params map[string]any, hctx *HandlerContext) (any, error)

// Registry is a concurrency-safe name-to-handler table.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	runtime  *runtime.Runtime
	logger   *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New creates a Registry with the built-in handlers registered. The
// runtime is used by handlers that delegate to the generic per-call
// HTTP path.
func New(rt *runtime.Runtime, opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		runtime:  rt,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	r.Register("fetch_inventory", r.fetchInventory)
	r.Register("send_email", sendEmail)
	return r
}

// Register adds or replaces a handler.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Names returns every registered function name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

func (r *Registry) lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// ExecuteAgentFunctionCalls runs a pre-staged batch sequentially. An
// unregistered name or a handler error stays local to its call; the
// rest of the batch still runs. Each returned call carries Result or
// Error, never both.
func (r *Registry) ExecuteAgentFunctionCalls(ctx context.Context, calls []schema.FunctionCall, api *schema.ParsedAPI, credentials map[string]string) []schema.FunctionCall {
	hctx := &HandlerContext{
		API:         api,
		Credentials: credentials,
		Results:     make(map[string]any),
	}

	out := make([]schema.FunctionCall, 0, len(calls))
	for _, call := range calls {
		handler, ok := r.lookup(call.Name)
		if !ok {
			call.Error = fmt.Sprintf("Unknown function: %s", call.Name)
			out = append(out, call)
			continue
		}

		result, err := handler(ctx, call.Parameters, hctx)
		if err != nil {
			call.Error = err.Error()
			r.logger.Warn("registry handler failed",
				zap.String("function", call.Name),
				zap.Error(err))
		} else {
			call.Result = result
			hctx.Results[call.Name] = result
		}
		out = append(out, call)
	}
	return out
}

// fetchInventory locates a plausible inventory-listing endpoint and
// delegates to the generic per-call routine: the first GET whose
// summary mentions inventory, else the first endpoint overall.
func (r *Registry) fetchInventory(ctx context.Context, params map[string]any, hctx *HandlerContext) (any, error) {
	if hctx.API == nil || len(hctx.API.Endpoints) == 0 {
		return nil, errors.New("no endpoints available")
	}

	endpoint := hctx.API.Endpoints[0]
	for _, candidate := range hctx.API.Endpoints {
		if candidate.Method == schema.MethodGet && strings.Contains(strings.ToLower(candidate.Summary), "inventory") {
			endpoint = candidate
			break
		}
	}

	call := r.runtime.ExecuteFunctionCall(ctx, schema.FunctionCall{
		Name:       schema.FunctionName(endpoint),
		Parameters: params,
	}, hctx.API, hctx.Credentials)
	if call.Error != "" {
		return nil, errors.New(call.Error)
	}
	return call.Result, nil
}

// sendEmail is a side-effect stand-in: it echoes its arguments tagged
// as sent. When a fetch_inventory result exists earlier in the batch it
// is attached as the payload, which is what makes the
// fetch-then-email pipeline work without generic plumbing.
func sendEmail(_ context.Context, params map[string]any, hctx *HandlerContext) (any, error) {
	result := map[string]any{"status": "sent"}
	for key, value := range params {
		result[key] = value
	}
	if items, ok := hctx.Results["fetch_inventory"]; ok {
		result["items"] = items
	}
	return result, nil
}
