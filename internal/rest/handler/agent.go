package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/rest/convert"
	restTypes "github.com/clawtake/clawtake/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// AgentService is implemented by service.AgentService.
type AgentService interface {
	GetLeaderboard(ctx context.Context, limit, offset int) ([]*types.Agent, error)
	GetByName(ctx context.Context, name string) (*types.Agent, error)
}

// AgentHandler handles agent endpoints.
type AgentHandler struct {
	agents    AgentService
	responder *Responder
	logger    *zap.Logger
}

// NewAgentHandler creates a new agent handler.
func NewAgentHandler(agents AgentService, responder *Responder, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		agents:    agents,
		responder: responder,
		logger:    logger.Named("agent_handler"),
	}
}

// GetLeaderboard handles GET /api/agents/leaderboard.
func (h *AgentHandler) GetLeaderboard(w http.ResponseWriter, req bunrouter.Request) error {
	query := req.URL.Query()

	limit, err := queryInt(query.Get("limit"), "limit")
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	offset, err := queryInt(query.Get("offset"), "offset")
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	agents, err := h.agents.GetLeaderboard(req.Context(), limit, offset)
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	return h.responder.JSON(w, http.StatusOK, restTypes.LeaderboardResponse{
		Agents: convert.Agents(agents),
	})
}

// GetAgent handles GET /api/agents/:name.
func (h *AgentHandler) GetAgent(w http.ResponseWriter, req bunrouter.Request) error {
	agent, err := h.agents.GetByName(req.Context(), req.Param("name"))
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	return h.responder.JSON(w, http.StatusOK, restTypes.AgentResponse{
		Agent: convert.Agent(agent),
	})
}

// queryInt parses an optional integer query parameter. Missing values are 0.
func queryInt(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}
