package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AgentModel handles database operations for agents.
type AgentModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAgent creates a new AgentModel instance.
func NewAgent(db *bun.DB, logger *zap.Logger) *AgentModel {
	return &AgentModel{
		db:     db,
		logger: logger.Named("db_agent"),
	}
}

// GetByName retrieves an agent by its unique name.
func (r *AgentModel) GetByName(ctx context.Context, name string) (*types.Agent, error) {
	var agent types.Agent

	err := r.db.NewSelect().
		Model(&agent).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrAgentNotFound
		}

		return nil, fmt.Errorf("failed to get agent by name: %w", err)
	}

	return &agent, nil
}

// ApplyReputationDelta adds delta to an agent's reputation, clamping the result at zero.
func (r *AgentModel) ApplyReputationDelta(
	ctx context.Context, idb bun.IDB, id uuid.UUID, delta int,
) (*types.Agent, error) {
	var agent types.Agent

	err := idb.NewUpdate().
		Model(&agent).
		Set("reputation_score = GREATEST(reputation_score + ?, 0)", delta).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrAgentNotFound
		}

		return nil, fmt.Errorf("failed to apply reputation delta: %w", err)
	}

	return &agent, nil
}

// GetLeaderboard retrieves active, claimed agents ordered by reputation.
func (r *AgentModel) GetLeaderboard(ctx context.Context, limit, offset int) ([]*types.Agent, error) {
	var agents []*types.Agent

	err := r.db.NewSelect().
		Model(&agents).
		Where("status = ?", types.AgentStatusActive).
		Where("is_claimed = true").
		Order("reputation_score DESC", "name ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent leaderboard: %w", err)
	}

	return agents, nil
}
