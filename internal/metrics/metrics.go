// Package metrics exposes Prometheus instrumentation for the agent
// pipeline: analyses, plans, executions, and target-API calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the service registers. All fields are
// safe for concurrent use.
type Metrics struct {
	AnalysesTotal      *prometheus.CounterVec
	PlansTotal         prometheus.Counter
	ExecutionsTotal    *prometheus.CounterVec
	ExecutionDuration  prometheus.Histogram
	FunctionCallsTotal *prometheus.CounterVec
	ProviderRequests   *prometheus.CounterVec
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
}

// New registers all collectors on reg and returns the bundle. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh
// prometheus.NewRegistry to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentsmith",
			Name:      "analyses_total",
			Help:      "API analyses performed, by input kind.",
		}, []string{"source"}),
		PlansTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "agentsmith",
			Name:      "plans_total",
			Help:      "Agent plans generated.",
		}),
		ExecutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentsmith",
			Name:      "executions_total",
			Help:      "Agent turns executed, by outcome.",
		}, []string{"status"}),
		ExecutionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agentsmith",
			Name:      "execution_duration_seconds",
			Help:      "Wall time of one agent turn, including target-API calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		FunctionCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentsmith",
			Name:      "function_calls_total",
			Help:      "Target-API function calls executed, by outcome.",
		}, []string{"outcome"}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentsmith",
			Name:      "provider_requests_total",
			Help:      "LLM backend requests, by provider and outcome.",
		}, []string{"provider", "status"}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "agentsmith",
			Name:      "analysis_cache_hits_total",
			Help:      "Analyzer cache hits.",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "agentsmith",
			Name:      "analysis_cache_misses_total",
			Help:      "Analyzer cache misses.",
		}),
	}
}

// ObserveAnalysis records one freshly performed analysis. Cache-served
// results go through ObserveCacheLookup instead.
func (m *Metrics) ObserveAnalysis(source string) {
	m.AnalysesTotal.WithLabelValues(source).Inc()
}

// ObservePlan records one generated agent plan.
func (m *Metrics) ObservePlan() {
	m.PlansTotal.Inc()
}

// ObserveCacheLookup records the outcome of one analyzer cache probe.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if hit {
		m.CacheHitsTotal.Inc()
		return
	}
	m.CacheMissesTotal.Inc()
}

// ObserveProviderRequest records one LLM backend round trip.
func (m *Metrics) ObserveProviderRequest(name string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ProviderRequests.WithLabelValues(name, status).Inc()
}

// ObserveExecution records one completed agent turn.
func (m *Metrics) ObserveExecution(success bool, elapsed time.Duration) {
	status := "error"
	if success {
		status = "success"
	}
	m.ExecutionsTotal.WithLabelValues(status).Inc()
	m.ExecutionDuration.Observe(elapsed.Seconds())
}

// ObserveFunctionCall records one per-call outcome.
func (m *Metrics) ObserveFunctionCall(failed bool) {
	outcome := "success"
	if failed {
		outcome = "error"
	}
	m.FunctionCallsTotal.WithLabelValues(outcome).Inc()
}
