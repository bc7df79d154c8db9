package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/opentalon/agentsmith/internal/analyzer"
	"github.com/opentalon/agentsmith/internal/schema"
	"github.com/opentalon/agentsmith/internal/store"
)

type analyzeRequest struct {
	Input string `json:"input"`
}

type createAgentRequest struct {
	Input string `json:"input"`
	Goal  string `json:"goal"`
	Name  string `json:"name"`
}

type executeRequest struct {
	Message     string            `json:"message"`
	Credentials map[string]string `json:"credentials"`
}

type functionCallsRequest struct {
	Calls       []schema.FunctionCall `json:"calls"`
	Credentials map[string]string     `json:"credentials"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	api, err := s.analyzer.Analyze(c.Request().Context(), req.Input)
	if err != nil {
		var analysisErr *analyzer.AnalysisError
		if errors.As(err, &analysisErr) {
			return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, api)
}

func (s *Server) handleCreateAgent(c echo.Context) error {
	var req createAgentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	api, err := s.analyzer.Analyze(c.Request().Context(), req.Input)
	if err != nil {
		var analysisErr *analyzer.AnalysisError
		if errors.As(err, &analysisErr) {
			return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	plan := s.planner.Plan(api, req.Goal)

	name := req.Name
	if name == "" {
		name = plan.Workflow.Name
	}
	agent := &store.Agent{
		ID:   uuid.NewString(),
		Name: name,
		Goal: req.Goal,
		API:  *api,
		Plan: *plan,
	}
	if err := s.agents.Create(agent); err != nil {
		s.logger.Error("create agent failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to persist agent"})
	}
	return c.JSON(http.StatusCreated, agent)
}

func (s *Server) handleListAgents(c echo.Context) error {
	agents, err := s.agents.List()
	if err != nil {
		s.logger.Error("list agents failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list agents"})
	}
	if agents == nil {
		agents = []*store.Agent{}
	}
	return c.JSON(http.StatusOK, agents)
}

func (s *Server) handleGetAgent(c echo.Context) error {
	agent, err := s.agents.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		s.logger.Error("get agent failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load agent"})
	}
	return c.JSON(http.StatusOK, agent)
}

func (s *Server) handleDeleteAgent(c echo.Context) error {
	if err := s.agents.Delete(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		s.logger.Error("delete agent failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to delete agent"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleExecute(c echo.Context) error {
	agent, err := s.agents.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load agent"})
	}

	var req executeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "message is required"})
	}

	exec := s.runtime.ExecuteAgent(c.Request().Context(), &agent.Plan, req.Message, &agent.API, req.Credentials)
	if err := s.executions.Record(agent.ID, exec); err != nil {
		// The turn already ran; losing the record is not worth failing
		// the response over.
		s.logger.Error("record execution failed", zap.Error(err))
	}
	return c.JSON(http.StatusOK, exec)
}

func (s *Server) handleFunctionCalls(c echo.Context) error {
	agent, err := s.agents.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load agent"})
	}

	var req functionCallsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if len(req.Calls) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "calls must not be empty"})
	}

	out := s.registry.ExecuteAgentFunctionCalls(c.Request().Context(), req.Calls, &agent.API, req.Credentials)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleListExecutions(c echo.Context) error {
	if _, err := s.agents.Get(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load agent"})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
		}
		limit = parsed
	}

	execs, err := s.executions.ListByAgent(c.Param("id"), limit)
	if err != nil {
		s.logger.Error("list executions failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list executions"})
	}
	if execs == nil {
		execs = []*schema.AgentExecution{}
	}
	return c.JSON(http.StatusOK, execs)
}
