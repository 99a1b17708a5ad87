package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// VoteModel handles database operations for vote records.
type VoteModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewVote creates a new VoteModel instance.
func NewVote(db *bun.DB, logger *zap.Logger) *VoteModel {
	return &VoteModel{
		db:     db,
		logger: logger.Named("db_vote"),
	}
}

// Find returns the voter's current state on an answer.
// A missing record is reported as VoteStateNone.
func (r *VoteModel) Find(
	ctx context.Context, idb bun.IDB, voterID, answerID uuid.UUID,
) (enum.VoteState, error) {
	var vote types.Vote

	err := idb.NewSelect().
		Model(&vote).
		Where("user_id = ?", voterID).
		Where("answer_id = ?", answerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return enum.VoteStateNone, nil
		}

		return enum.VoteStateNone, fmt.Errorf("failed to find vote: %w", err)
	}

	state, err := vote.State()
	if err != nil {
		return enum.VoteStateNone, fmt.Errorf("stored vote is corrupt: %w", err)
	}

	return state, nil
}

// Upsert stores the voter's state on an answer, replacing any existing record.
func (r *VoteModel) Upsert(
	ctx context.Context, idb bun.IDB, voterID, answerID uuid.UUID, state enum.VoteState,
) error {
	if state.IsNone() {
		return fmt.Errorf("cannot store an empty vote: %w", types.ErrInvalidVoteValue)
	}

	vote := &types.Vote{
		UserID:   voterID,
		AnswerID: answerID,
		Value:    int16(state.Value()), //nolint:gosec // value is always 1 or -1
	}

	_, err := idb.NewInsert().
		Model(vote).
		On("CONFLICT (user_id, answer_id) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}

	return nil
}

// Delete removes the voter's record on an answer. Deleting a missing record is not an error.
func (r *VoteModel) Delete(ctx context.Context, idb bun.IDB, voterID, answerID uuid.UUID) error {
	_, err := idb.NewDelete().
		Model((*types.Vote)(nil)).
		Where("user_id = ?", voterID).
		Where("answer_id = ?", answerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}

	return nil
}

// GetVotesByUser returns the voter's states for the given answers.
// Answers without a vote are absent from the map.
func (r *VoteModel) GetVotesByUser(
	ctx context.Context, voterID uuid.UUID, answerIDs []uuid.UUID,
) (map[uuid.UUID]enum.VoteState, error) {
	result := make(map[uuid.UUID]enum.VoteState, len(answerIDs))
	if len(answerIDs) == 0 {
		return result, nil
	}

	var votes []*types.Vote

	err := r.db.NewSelect().
		Model(&votes).
		Where("user_id = ?", voterID).
		Where("answer_id IN (?)", bun.In(answerIDs)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get votes by user: %w", err)
	}

	for _, vote := range votes {
		state, err := vote.State()
		if err != nil {
			r.logger.Warn("Skipping corrupt vote record",
				zap.String("userID", vote.UserID.String()),
				zap.String("answerID", vote.AnswerID.String()),
				zap.Int16("value", vote.Value))
			continue
		}

		result[vote.AnswerID] = state
	}

	return result, nil
}
