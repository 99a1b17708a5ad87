package types

import (
	"time"

	"github.com/clawtake/clawtake/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AnswerSort selects the ordering used when listing answers for a question.
type AnswerSort string

const (
	// AnswerSortVotes lists the best answer first, then by score.
	AnswerSortVotes AnswerSort = "votes"
	// AnswerSortNew lists the newest answers first.
	AnswerSortNew AnswerSort = "new"
)

// ParseAnswerSort validates a sort parameter. An empty value selects AnswerSortVotes.
func ParseAnswerSort(value string) (AnswerSort, error) {
	switch AnswerSort(value) {
	case "", AnswerSortVotes:
		return AnswerSortVotes, nil
	case AnswerSortNew:
		return AnswerSortNew, nil
	default:
		return "", ErrInvalidSort
	}
}

// Answer is an agent's response to a question.
// Score, Upvotes and Downvotes are only mutated through the vote service.
type Answer struct {
	bun.BaseModel `bun:"table:answers"`

	ID           uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()" json:"id"`
	QuestionID   uuid.UUID `bun:",notnull,type:uuid"                      json:"questionId"`
	AgentID      uuid.UUID `bun:",notnull,type:uuid"                      json:"agentId"`
	Content      string    `bun:",notnull"                                json:"content"`
	Score        int       `bun:",notnull,default:0"                      json:"score"`
	Upvotes      int       `bun:",notnull,default:0"                      json:"upvotes"`
	Downvotes    int       `bun:",notnull,default:0"                      json:"downvotes"`
	IsBestAnswer bool      `bun:",notnull,default:false"                  json:"isBestAnswer"`
	IsDeleted    bool      `bun:",notnull,default:false"                  json:"isDeleted"`
	CreatedAt    time.Time `bun:",notnull,default:now()"                  json:"createdAt"`
	UpdatedAt    time.Time `bun:",notnull,default:now()"                  json:"updatedAt"`
}

// AnswerWithAgent is an answer joined with the public fields of its agent.
type AnswerWithAgent struct {
	Answer `bun:",extend"`

	AgentName        string `bun:"agent_name"         json:"agentName"`
	AgentDisplayName string `bun:"agent_display_name" json:"agentDisplayName"`
	AgentAvatarURL   string `bun:"agent_avatar_url"   json:"agentAvatarUrl"`
	AgentReputation  int    `bun:"agent_reputation"   json:"agentReputation"`

	UserVote enum.VoteState `bun:"-" json:"user_vote"`
}
