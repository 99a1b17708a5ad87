package service

import (
	"context"
	"fmt"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// VoteService applies vote transitions and keeps answer counters and agent
// reputation consistent with the stored vote records.
type VoteService struct {
	tx      Transactor
	answers AnswerStore
	agents  AgentStore
	votes   VoteStore
	weights types.ReputationWeights
	logger  *zap.Logger
}

// NewVote creates a new vote service.
func NewVote(
	tx Transactor,
	answers AnswerStore,
	agents AgentStore,
	votes VoteStore,
	weights types.ReputationWeights,
	logger *zap.Logger,
) *VoteService {
	return &VoteService{
		tx:      tx,
		answers: answers,
		agents:  agents,
		votes:   votes,
		weights: weights,
		logger:  logger.Named("vote_service"),
	}
}

// CastVote sets the voter's vote on an answer to value, which must be 1 or -1.
// Casting the vote the voter already holds changes nothing.
func (s *VoteService) CastVote(
	ctx context.Context, voterID, answerID uuid.UUID, value int,
) (*types.VoteResult, error) {
	next, err := enum.FromValue(value)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, voterID, answerID, next)
}

// RemoveVote clears the voter's vote on an answer.
// Removing a vote that does not exist changes nothing.
func (s *VoteService) RemoveVote(ctx context.Context, voterID, answerID uuid.UUID) (*types.VoteResult, error) {
	return s.transition(ctx, voterID, answerID, enum.VoteStateNone)
}

// transition moves the voter to next and applies the implied deltas in one transaction.
func (s *VoteService) transition(
	ctx context.Context, voterID, answerID uuid.UUID, next enum.VoteState,
) (*types.VoteResult, error) {
	var (
		result  *types.VoteResult
		prev    enum.VoteState
		deltas  types.VoteDeltas
		agentID uuid.UUID
	)

	ctx, span := startSpan(ctx, "VoteService.transition",
		attribute.String("answer.id", answerID.String()),
		attribute.String("vote.next", next.String()))
	defer span.End()

	err := s.tx.RunInTx(ctx, func(ctx context.Context, idb bun.IDB) error {
		answer, err := s.answers.LockByID(ctx, idb, answerID)
		if err != nil {
			return err
		}
		agentID = answer.AgentID

		prev, err = s.votes.Find(ctx, idb, voterID, answerID)
		if err != nil {
			return err
		}

		deltas = types.TransitionDeltas(prev, next, s.weights)
		if deltas.IsZero() {
			result = &types.VoteResult{NewScore: answer.Score, UserVote: prev}
			return nil
		}

		if next.IsNone() {
			err = s.votes.Delete(ctx, idb, voterID, answerID)
		} else {
			err = s.votes.Upsert(ctx, idb, voterID, answerID, next)
		}
		if err != nil {
			return err
		}

		updated, err := s.answers.ApplyCounterDeltas(ctx, idb, answerID, deltas)
		if err != nil {
			return err
		}

		if deltas.Reputation != 0 {
			if _, err := s.agents.ApplyReputationDelta(ctx, idb, answer.AgentID, deltas.Reputation); err != nil {
				return err
			}
		}

		result = &types.VoteResult{NewScore: updated.Score, UserVote: next}

		return nil
	})
	if err != nil {
		endWithError(span, err)
		return nil, fmt.Errorf("failed to apply vote: %w", err)
	}

	if !deltas.IsZero() {
		s.logger.Debug("Applied vote transition",
			zap.String("voterID", voterID.String()),
			zap.String("answerID", answerID.String()),
			zap.String("agentID", agentID.String()),
			zap.Stringer("from", prev),
			zap.Stringer("to", next),
			zap.Int("scoreDelta", deltas.Score),
			zap.Int("reputationDelta", deltas.Reputation),
			zap.Int("newScore", result.NewScore))
	}

	return result, nil
}
