// Package analyzer turns a free-form API description (known service
// name, OpenAPI/Swagger JSON, or bare URL) into a normalized ParsedAPI.
package analyzer

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/opentalon/agentsmith/internal/metrics"
	"github.com/opentalon/agentsmith/internal/schema"
	"go.uber.org/zap"
)

const analysisErrorMessage = "Unable to analyze API. Please provide a valid URL or OpenAPI specification."

// AnalysisError is returned when the input matches none of the
// detection strategies. The message is surfaced verbatim to callers.
type AnalysisError struct {
	Input string
}

func (e *AnalysisError) Error() string { return analysisErrorMessage }

// Cache stores analysis results keyed by the raw input. Implementations
// must treat misses and backend failures identically (return ok=false).
type Cache interface {
	Get(ctx context.Context, input string) (*schema.ParsedAPI, bool)
	Set(ctx context.Context, input string, api *schema.ParsedAPI)
}

// Analyzer resolves API descriptions. The zero value is not usable;
// call New.
type Analyzer struct {
	cache   Cache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache makes analysis results pass through the given cache.
func WithCache(c Cache) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithMetrics attaches analysis instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{logger: zap.NewNop()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze resolves input into a ParsedAPI. Detection is strictly
// ordered and short-circuiting: known-service match, OpenAPI/Swagger
// document, bare URL stub. Anything else fails with *AnalysisError.
//
// The bare-URL strategy performs no network calls: it acknowledges the
// API's existence with a single synthetic root endpoint. True dynamic
// discovery belongs in a separate introspection layer, not here.
func (a *Analyzer) Analyze(ctx context.Context, input string) (*schema.ParsedAPI, error) {
	if a.cache != nil {
		api, hit := a.cache.Get(ctx, input)
		if a.metrics != nil {
			a.metrics.ObserveCacheLookup(hit)
		}
		if hit {
			a.logger.Debug("analysis cache hit", zap.String("name", api.Name))
			return api, nil
		}
	}

	api, source, err := a.analyze(input)
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.ObserveAnalysis(source)
	}

	if a.cache != nil {
		a.cache.Set(ctx, input, api)
	}
	a.logger.Info("API analyzed",
		zap.String("name", api.Name),
		zap.String("source", source),
		zap.Int("endpoints", len(api.Endpoints)))
	return api, nil
}

func (a *Analyzer) analyze(input string) (*schema.ParsedAPI, string, error) {
	if api, ok := matchKnownService(input); ok {
		return api, "known_service", nil
	}

	if doc, ok := probeOpenAPIDocument(input); ok {
		api, err := convertOpenAPIDocument(doc)
		return api, "openapi", err
	}

	if looksLikeURL(input) {
		return stubFromURL(input), "url", nil
	}

	return nil, "", &AnalysisError{Input: input}
}

// probeOpenAPIDocument reports whether input is a JSON object carrying
// an "openapi" or "swagger" top-level key.
func probeOpenAPIDocument(input string) (*openAPIDocument, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return nil, false
	}
	if _, ok := probe["openapi"]; !ok {
		if _, ok := probe["swagger"]; !ok {
			return nil, false
		}
	}
	var doc openAPIDocument
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

func looksLikeURL(input string) bool {
	trimmed := strings.TrimSpace(input)
	u, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// stubFromURL models "API existence acknowledged, introspection not
// yet performed": one synthetic root GET endpoint, permissive apiKey
// auth, nothing more.
func stubFromURL(input string) *schema.ParsedAPI {
	trimmed := strings.TrimSpace(input)
	u, _ := url.Parse(trimmed)
	return &schema.ParsedAPI{
		Name:        u.Host,
		BaseURL:     strings.TrimRight(trimmed, "/"),
		Description: "API discovered from URL",
		Endpoints: []schema.APIEndpoint{
			{
				Path:    "/",
				Method:  schema.MethodGet,
				Summary: "Root endpoint",
				Responses: []schema.APIResponse{
					{StatusCode: "200", Description: "Successful response"},
				},
			},
		},
		Authentication: schema.APIAuth{Type: schema.AuthAPIKey},
		Capabilities:   []string{"Retrieve data"},
	}
}
