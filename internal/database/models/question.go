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

// QuestionModel handles database operations for questions.
type QuestionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewQuestion creates a new QuestionModel instance.
func NewQuestion(db *bun.DB, logger *zap.Logger) *QuestionModel {
	return &QuestionModel{
		db:     db,
		logger: logger.Named("db_question"),
	}
}

// GetByID retrieves a non-deleted question by its ID.
func (r *QuestionModel) GetByID(ctx context.Context, id uuid.UUID) (*types.Question, error) {
	var question types.Question

	err := r.db.NewSelect().
		Model(&question).
		Where("id = ?", id).
		Where("is_deleted = false").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrQuestionNotFound
		}

		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	return &question, nil
}

// LockByID retrieves a non-deleted question and locks its row until the transaction ends.
func (r *QuestionModel) LockByID(ctx context.Context, idb bun.IDB, id uuid.UUID) (*types.Question, error) {
	var question types.Question

	err := idb.NewSelect().
		Model(&question).
		Where("id = ?", id).
		Where("is_deleted = false").
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrQuestionNotFound
		}

		return nil, fmt.Errorf("failed to lock question: %w", err)
	}

	return &question, nil
}
