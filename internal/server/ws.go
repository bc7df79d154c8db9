package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/opentalon/agentsmith/internal/store"
)

// chatMessage is one inbound websocket frame.
type chatMessage struct {
	Message     string            `json:"message"`
	Credentials map[string]string `json:"credentials"`
}

// handleChat upgrades to a websocket and runs one agent turn per
// inbound message, replying with the full execution record. The
// connection lives until the client closes or a turn cannot be
// delivered.
func (s *Server) handleChat(c echo.Context) error {
	agent, err := s.agents.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load agent"})
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return nil // Accept already wrote the handshake failure
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := c.Request().Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Normal closure or client gone either way.
			return nil
		}

		var msg chatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			payload, _ := json.Marshal(errorResponse{Error: "invalid message"})
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return nil
			}
			continue
		}

		exec := s.runtime.ExecuteAgent(ctx, &agent.Plan, msg.Message, &agent.API, msg.Credentials)
		if err := s.executions.Record(agent.ID, exec); err != nil {
			s.logger.Error("record execution failed", zap.Error(err))
		}

		payload, err := json.Marshal(exec)
		if err != nil {
			s.logger.Error("encode execution failed", zap.Error(err))
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			return nil
		}
	}
}
