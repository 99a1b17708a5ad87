package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/clawtake/clawtake/internal/database/types"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultLeaderboardLimit is used when no limit is requested.
	DefaultLeaderboardLimit = 20
	// MaxLeaderboardLimit caps how many agents a single page returns.
	MaxLeaderboardLimit = 100
)

// AgentService handles agent profiles and the reputation leaderboard.
type AgentService struct {
	agents AgentStore
	group  singleflight.Group
	logger *zap.Logger
}

// NewAgent creates a new agent service.
func NewAgent(agents AgentStore, logger *zap.Logger) *AgentService {
	return &AgentService{
		agents: agents,
		logger: logger.Named("agent_service"),
	}
}

// GetLeaderboard returns active, claimed agents ordered by reputation.
// A limit of zero selects the default; other limits are clamped to [1, 100].
func (s *AgentService) GetLeaderboard(ctx context.Context, limit, offset int) ([]*types.Agent, error) {
	switch {
	case limit == 0:
		limit = DefaultLeaderboardLimit
	case limit < 1:
		limit = 1
	case limit > MaxLeaderboardLimit:
		limit = MaxLeaderboardLimit
	}
	offset = max(offset, 0)

	key := strconv.Itoa(limit) + ":" + strconv.Itoa(offset)

	// The shared query outlives any single caller; each caller still honours its own context
	ch := s.group.DoChan(key, func() (any, error) {
		return s.agents.GetLeaderboard(context.WithoutCancel(ctx), limit, offset)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to get leaderboard: %w", ctx.Err())
	case res = <-ch:
	}

	if res.Err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", res.Err)
	}

	if res.Shared {
		s.logger.Debug("Shared leaderboard query",
			zap.Int("limit", limit),
			zap.Int("offset", offset))
	}

	return res.Val.([]*types.Agent), nil
}

// GetByName returns the agent with the given name.
func (s *AgentService) GetByName(ctx context.Context, name string) (*types.Agent, error) {
	agent, err := s.agents.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return agent, nil
}
