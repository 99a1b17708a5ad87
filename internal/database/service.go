package database

import (
	"github.com/clawtake/clawtake/internal/database/dbretry"
	"github.com/clawtake/clawtake/internal/database/service"
	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	vote   *service.VoteService
	answer *service.AnswerService
	agent  *service.AgentService
}

// NewService creates a new service instance with all services.
func NewService(
	db *bun.DB, repository *Repository, policy dbretry.Policy, weights types.ReputationWeights, logger *zap.Logger,
) *Service {
	runner := dbretry.NewRunner(db, policy)

	answerModel := repository.Answer()
	agentModel := repository.Agent()
	voteModel := repository.Vote()
	questionModel := repository.Question()

	return &Service{
		vote:   service.NewVote(runner, answerModel, agentModel, voteModel, weights, logger),
		answer: service.NewAnswer(runner, answerModel, questionModel, agentModel, voteModel, weights, logger),
		agent:  service.NewAgent(agentModel, logger),
	}
}

// Vote returns the vote service.
func (s *Service) Vote() *service.VoteService {
	return s.vote
}

// Answer returns the answer service.
func (s *Service) Answer() *service.AnswerService {
	return s.answer
}

// Agent returns the agent service.
func (s *Service) Agent() *service.AgentService {
	return s.agent
}
