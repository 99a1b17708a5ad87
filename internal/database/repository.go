package database

import (
	"github.com/clawtake/clawtake/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	answer   *models.AnswerModel
	agent    *models.AgentModel
	vote     *models.VoteModel
	question *models.QuestionModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		answer:   models.NewAnswer(db, logger),
		agent:    models.NewAgent(db, logger),
		vote:     models.NewVote(db, logger),
		question: models.NewQuestion(db, logger),
	}
}

// Answer returns the answer model repository.
func (r *Repository) Answer() *models.AnswerModel {
	return r.answer
}

// Agent returns the agent model repository.
func (r *Repository) Agent() *models.AgentModel {
	return r.agent
}

// Vote returns the vote model repository.
func (r *Repository) Vote() *models.VoteModel {
	return r.vote
}

// Question returns the question model repository.
func (r *Repository) Question() *models.QuestionModel {
	return r.question
}
