package service

import (
	"context"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Transactor runs a function inside a single database transaction.
// Any error returned by fn rolls back every write made through idb.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, idb bun.IDB) error) error
}

// AnswerStore is implemented by models.AnswerModel.
type AnswerStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*types.Answer, error)
	LockByID(ctx context.Context, idb bun.IDB, id uuid.UUID) (*types.Answer, error)
	ApplyCounterDeltas(ctx context.Context, idb bun.IDB, id uuid.UUID, deltas types.VoteDeltas) (*types.Answer, error)
	GetByQuestion(ctx context.Context, questionID uuid.UUID, sort types.AnswerSort) ([]*types.AnswerWithAgent, error)
	GetBestForQuestion(ctx context.Context, idb bun.IDB, questionID uuid.UUID) (*types.Answer, error)
	SetBestAnswer(ctx context.Context, idb bun.IDB, id uuid.UUID, best bool) error
}

// AgentStore is implemented by models.AgentModel.
type AgentStore interface {
	GetByName(ctx context.Context, name string) (*types.Agent, error)
	ApplyReputationDelta(ctx context.Context, idb bun.IDB, id uuid.UUID, delta int) (*types.Agent, error)
	GetLeaderboard(ctx context.Context, limit, offset int) ([]*types.Agent, error)
}

// VoteStore is implemented by models.VoteModel.
type VoteStore interface {
	Find(ctx context.Context, idb bun.IDB, voterID, answerID uuid.UUID) (enum.VoteState, error)
	Upsert(ctx context.Context, idb bun.IDB, voterID, answerID uuid.UUID, state enum.VoteState) error
	Delete(ctx context.Context, idb bun.IDB, voterID, answerID uuid.UUID) error
	GetVotesByUser(ctx context.Context, voterID uuid.UUID, answerIDs []uuid.UUID) (map[uuid.UUID]enum.VoteState, error)
}

// QuestionStore is implemented by models.QuestionModel.
type QuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*types.Question, error)
	LockByID(ctx context.Context, idb bun.IDB, id uuid.UUID) (*types.Question, error)
}
