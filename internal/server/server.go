// Package server exposes the agent pipeline over HTTP: analyze an API,
// build an agent, execute turns against it, and chat over a websocket.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/opentalon/agentsmith/internal/analyzer"
	"github.com/opentalon/agentsmith/internal/metrics"
	"github.com/opentalon/agentsmith/internal/planner"
	"github.com/opentalon/agentsmith/internal/registry"
	"github.com/opentalon/agentsmith/internal/runtime"
	"github.com/opentalon/agentsmith/internal/store"
)

// Deps carries everything the server needs. Metrics and Gatherer are
// optional; without them /metrics serves the default registry.
type Deps struct {
	Analyzer   *analyzer.Analyzer
	Planner    *planner.Planner
	Runtime    *runtime.Runtime
	Registry   *registry.Registry
	Agents     *store.AgentStore
	Executions *store.ExecutionStore
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

// Server is the HTTP front end.
type Server struct {
	echo       *echo.Echo
	analyzer   *analyzer.Analyzer
	planner    *planner.Planner
	runtime    *runtime.Runtime
	registry   *registry.Registry
	agents     *store.AgentStore
	executions *store.ExecutionStore
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// New builds the server and registers all routes.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:       e,
		analyzer:   deps.Analyzer,
		planner:    deps.Planner,
		runtime:    deps.Runtime,
		registry:   deps.Registry,
		agents:     deps.Agents,
		executions: deps.Executions,
		metrics:    deps.Metrics,
		logger:     logger,
	}

	e.GET("/healthz", s.handleHealth)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := e.Group("/v1")
	v1.POST("/analyze", s.handleAnalyze)
	v1.POST("/agents", s.handleCreateAgent)
	v1.GET("/agents", s.handleListAgents)
	v1.GET("/agents/:id", s.handleGetAgent)
	v1.DELETE("/agents/:id", s.handleDeleteAgent)
	v1.POST("/agents/:id/execute", s.handleExecute)
	v1.POST("/agents/:id/calls", s.handleFunctionCalls)
	v1.GET("/agents/:id/executions", s.handleListExecutions)
	v1.GET("/agents/:id/chat", s.handleChat)

	return s
}

// Handler exposes the routing tree, mostly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
