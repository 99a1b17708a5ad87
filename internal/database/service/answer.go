package service

import (
	"context"
	"fmt"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AnswerService handles answer listing and best answer selection.
type AnswerService struct {
	tx        Transactor
	answers   AnswerStore
	questions QuestionStore
	agents    AgentStore
	votes     VoteStore
	weights   types.ReputationWeights
	logger    *zap.Logger
}

// NewAnswer creates a new answer service.
func NewAnswer(
	tx Transactor,
	answers AnswerStore,
	questions QuestionStore,
	agents AgentStore,
	votes VoteStore,
	weights types.ReputationWeights,
	logger *zap.Logger,
) *AnswerService {
	return &AnswerService{
		tx:        tx,
		answers:   answers,
		questions: questions,
		agents:    agents,
		votes:     votes,
		weights:   weights,
		logger:    logger.Named("answer_service"),
	}
}

// ListByQuestion lists the answers of a question in the requested order.
// When viewer is set, each answer carries the viewer's current vote.
func (s *AnswerService) ListByQuestion(
	ctx context.Context, questionID uuid.UUID, sort types.AnswerSort, viewer *uuid.UUID,
) ([]*types.AnswerWithAgent, error) {
	sort, err := types.ParseAnswerSort(string(sort))
	if err != nil {
		return nil, err
	}

	var (
		p       = pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
		answers []*types.AnswerWithAgent
	)

	p.Go(func(ctx context.Context) error {
		_, err := s.questions.GetByID(ctx, questionID)
		return err
	})

	p.Go(func(ctx context.Context) error {
		var err error
		answers, err = s.answers.GetByQuestion(ctx, questionID, sort)
		return err
	})

	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	if viewer == nil || len(answers) == 0 {
		return answers, nil
	}

	answerIDs := make([]uuid.UUID, len(answers))
	for i, answer := range answers {
		answerIDs[i] = answer.ID
	}

	votes, err := s.votes.GetVotesByUser(ctx, *viewer, answerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get viewer votes: %w", err)
	}

	for _, answer := range answers {
		answer.UserVote = votes[answer.ID]
	}

	return answers, nil
}

// MarkBestAnswer marks an answer as the best answer of its question.
// Only the question author may do this. The previous best answer, if any,
// is unmarked and its agent loses the bonus again.
func (s *AnswerService) MarkBestAnswer(
	ctx context.Context, authorID, questionID, answerID uuid.UUID,
) (*types.Answer, error) {
	var (
		marked   *types.Answer
		previous *types.Answer
	)

	ctx, span := startSpan(ctx, "AnswerService.MarkBestAnswer",
		attribute.String("question.id", questionID.String()),
		attribute.String("answer.id", answerID.String()))
	defer span.End()

	err := s.tx.RunInTx(ctx, func(ctx context.Context, idb bun.IDB) error {
		previous = nil

		question, err := s.questions.LockByID(ctx, idb, questionID)
		if err != nil {
			return err
		}

		if question.AuthorID != authorID {
			return types.ErrNotQuestionAuthor
		}

		answer, err := s.answers.LockByID(ctx, idb, answerID)
		if err != nil {
			return err
		}

		if answer.QuestionID != questionID || answer.IsDeleted {
			return types.ErrAnswerNotForQuestion
		}

		if answer.IsBestAnswer {
			marked = answer
			return nil
		}

		previous, err = s.answers.GetBestForQuestion(ctx, idb, questionID)
		if err != nil {
			return err
		}

		if previous != nil {
			if err := s.answers.SetBestAnswer(ctx, idb, previous.ID, false); err != nil {
				return err
			}

			if _, err := s.agents.ApplyReputationDelta(ctx, idb, previous.AgentID, -s.weights.BestAnswer); err != nil {
				return err
			}
		}

		if err := s.answers.SetBestAnswer(ctx, idb, answer.ID, true); err != nil {
			return err
		}

		if _, err := s.agents.ApplyReputationDelta(ctx, idb, answer.AgentID, s.weights.BestAnswer); err != nil {
			return err
		}

		answer.IsBestAnswer = true
		marked = answer

		return nil
	})
	if err != nil {
		endWithError(span, err)
		return nil, fmt.Errorf("failed to mark best answer: %w", err)
	}

	fields := []zap.Field{
		zap.String("questionID", questionID.String()),
		zap.String("answerID", answerID.String()),
	}
	if previous != nil {
		fields = append(fields, zap.String("previousAnswerID", previous.ID.String()))
	}
	s.logger.Info("Marked best answer", fields...)

	return marked, nil
}
