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

// ReconcileTxOptions is the isolation ReconcileCounters must run under. A vote committed
// after the snapshot then fails the rewrite with a serialization error instead of being
// overwritten by stale tallies.
var ReconcileTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}

// AnswerModel handles database operations for answers.
type AnswerModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAnswer creates a new AnswerModel instance.
func NewAnswer(db *bun.DB, logger *zap.Logger) *AnswerModel {
	return &AnswerModel{
		db:     db,
		logger: logger.Named("db_answer"),
	}
}

// GetByID retrieves an answer by its ID.
// Soft-deleted answers are still returned.
func (r *AnswerModel) GetByID(ctx context.Context, id uuid.UUID) (*types.Answer, error) {
	var answer types.Answer

	err := r.db.NewSelect().
		Model(&answer).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrAnswerNotFound
		}

		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	return &answer, nil
}

// LockByID retrieves an answer and locks its row until the transaction ends.
// Every vote transition on the same answer is serialized behind this lock.
func (r *AnswerModel) LockByID(ctx context.Context, idb bun.IDB, id uuid.UUID) (*types.Answer, error) {
	var answer types.Answer

	err := idb.NewSelect().
		Model(&answer).
		Where("id = ?", id).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrAnswerNotFound
		}

		return nil, fmt.Errorf("failed to lock answer: %w", err)
	}

	return &answer, nil
}

// ApplyCounterDeltas adds the vote deltas to an answer's counters and returns the updated row.
// Upvotes and downvotes are clamped at zero; the score is not.
func (r *AnswerModel) ApplyCounterDeltas(
	ctx context.Context, idb bun.IDB, id uuid.UUID, deltas types.VoteDeltas,
) (*types.Answer, error) {
	var answer types.Answer

	err := idb.NewUpdate().
		Model(&answer).
		Set("score = score + ?", deltas.Score).
		Set("upvotes = GREATEST(upvotes + ?, 0)", deltas.Upvotes).
		Set("downvotes = GREATEST(downvotes + ?, 0)", deltas.Downvotes).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrAnswerNotFound
		}

		return nil, fmt.Errorf("failed to apply counter deltas: %w", err)
	}

	return &answer, nil
}

// GetByQuestion lists the non-deleted answers of a question with their agents.
func (r *AnswerModel) GetByQuestion(
	ctx context.Context, questionID uuid.UUID, sort types.AnswerSort,
) ([]*types.AnswerWithAgent, error) {
	var answers []*types.AnswerWithAgent

	query := r.db.NewSelect().
		Model(&answers).
		ColumnExpr("answer.*").
		ColumnExpr("ag.name AS agent_name").
		ColumnExpr("ag.display_name AS agent_display_name").
		ColumnExpr("ag.avatar_url AS agent_avatar_url").
		ColumnExpr("ag.reputation_score AS agent_reputation").
		Join("JOIN agents AS ag ON ag.id = answer.agent_id").
		Where("answer.question_id = ?", questionID).
		Where("answer.is_deleted = false")

	switch sort {
	case types.AnswerSortNew:
		query = query.Order("answer.created_at DESC")
	case types.AnswerSortVotes:
		query = query.Order("answer.is_best_answer DESC", "answer.score DESC", "answer.created_at DESC")
	default:
		return nil, types.ErrInvalidSort
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	return answers, nil
}

// GetBestForQuestion returns the current best answer of a question, or nil if none is marked.
func (r *AnswerModel) GetBestForQuestion(
	ctx context.Context, idb bun.IDB, questionID uuid.UUID,
) (*types.Answer, error) {
	var answer types.Answer

	err := idb.NewSelect().
		Model(&answer).
		Where("question_id = ?", questionID).
		Where("is_best_answer = true").
		For("UPDATE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // no best answer yet
		}

		return nil, fmt.Errorf("failed to get best answer: %w", err)
	}

	return &answer, nil
}

// SetBestAnswer updates the best answer flag of an answer.
func (r *AnswerModel) SetBestAnswer(ctx context.Context, idb bun.IDB, id uuid.UUID, best bool) error {
	_, err := idb.NewUpdate().
		Model((*types.Answer)(nil)).
		Set("is_best_answer = ?", best).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set best answer flag: %w", err)
	}

	r.logger.Debug("Updated best answer flag",
		zap.String("answerID", id.String()),
		zap.Bool("best", best))

	return nil
}

// voteTallies counts the stored votes of every answer.
const voteTallies = `
WITH tallies AS (
	SELECT a.id,
		COUNT(v.answer_id) FILTER (WHERE v.value = 1) AS up,
		COUNT(v.answer_id) FILTER (WHERE v.value = -1) AS down
	FROM answers AS a
	LEFT JOIN votes AS v ON v.answer_id = a.id
	GROUP BY a.id
)`

// CountCounterDrift returns how many answers have counters that disagree with their vote records.
func (r *AnswerModel) CountCounterDrift(ctx context.Context) (int, error) {
	var count int

	err := r.db.NewRaw(voteTallies + `
		SELECT COUNT(*) FROM answers AS a
		JOIN tallies AS t ON t.id = a.id
		WHERE a.upvotes <> t.up OR a.downvotes <> t.down OR a.score <> t.up - t.down`).
		Scan(ctx, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count counter drift: %w", err)
	}

	return count, nil
}

// ReconcileCounters rewrites the counters of every drifted answer from its vote records.
// Agent reputation is left alone because its floor makes it path dependent.
// idb must be a transaction opened with ReconcileTxOptions.
func (r *AnswerModel) ReconcileCounters(ctx context.Context, idb bun.IDB) (int64, error) {
	result, err := idb.NewRaw(voteTallies + `
		UPDATE answers AS a
		SET upvotes = t.up, downvotes = t.down, score = t.up - t.down, updated_at = now()
		FROM tallies AS t
		WHERE t.id = a.id
			AND (a.upvotes <> t.up OR a.downvotes <> t.down OR a.score <> t.up - t.down)`).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile counters: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read reconciled rows: %w", err)
	}

	if affected > 0 {
		r.logger.Warn("Reconciled drifted answer counters", zap.Int64("answers", affected))
	}

	return affected, nil
}
