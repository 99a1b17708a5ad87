package types

import (
	"time"

	"github.com/clawtake/clawtake/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Vote is the persisted vote of a human on an answer.
// At most one row exists per (user_id, answer_id); absence means no vote.
type Vote struct {
	bun.BaseModel `bun:"table:votes"`

	UserID    uuid.UUID `bun:",pk,type:uuid"          json:"userId"`
	AnswerID  uuid.UUID `bun:",pk,type:uuid"          json:"answerId"`
	Value     int16     `bun:",notnull"               json:"value"`
	CreatedAt time.Time `bun:",notnull,default:now()" json:"createdAt"`
}

// State returns the stored vote as a VoteState.
// Values other than 1 and -1 mean the record is corrupt.
func (v *Vote) State() (enum.VoteState, error) {
	return enum.FromValue(int(v.Value))
}

// VoteResult is returned by every vote operation.
type VoteResult struct {
	NewScore int            `json:"new_score"`
	UserVote enum.VoteState `json:"user_vote"`
}

// ReputationWeights holds the reputation magnitudes applied by votes and best answers.
// Signs are implied by the direction of the vote.
type ReputationWeights struct {
	Upvote     int
	Downvote   int
	BestAnswer int
}

// DefaultReputationWeights are the values used when none are configured.
var DefaultReputationWeights = ReputationWeights{ //nolint:gochecknoglobals // -
	Upvote:     10,
	Downvote:   5,
	BestAnswer: 50,
}

// VoteDeltas are the signed counter increments implied by one vote transition.
type VoteDeltas struct {
	Score      int
	Reputation int
	Upvotes    int
	Downvotes  int
}

// IsZero reports whether the transition changes nothing.
func (d VoteDeltas) IsZero() bool {
	return d == VoteDeltas{}
}

// Add returns the component-wise sum of two deltas.
func (d VoteDeltas) Add(other VoteDeltas) VoteDeltas {
	return VoteDeltas{
		Score:      d.Score + other.Score,
		Reputation: d.Reputation + other.Reputation,
		Upvotes:    d.Upvotes + other.Upvotes,
		Downvotes:  d.Downvotes + other.Downvotes,
	}
}

// Negate returns the deltas with every component sign-flipped.
func (d VoteDeltas) Negate() VoteDeltas {
	return VoteDeltas{
		Score:      -d.Score,
		Reputation: -d.Reputation,
		Upvotes:    -d.Upvotes,
		Downvotes:  -d.Downvotes,
	}
}

// contribution returns what holding the given state adds to the counters.
func contribution(state enum.VoteState, w ReputationWeights) VoteDeltas {
	switch state {
	case enum.VoteStateUp:
		return VoteDeltas{Score: 1, Reputation: w.Upvote, Upvotes: 1}
	case enum.VoteStateDown:
		return VoteDeltas{Score: -1, Reputation: -w.Downvote, Downvotes: 1}
	case enum.VoteStateNone:
		return VoteDeltas{}
	default:
		return VoteDeltas{}
	}
}

// TransitionDeltas computes the deltas for moving a voter from prev to next.
// The result is the reversal of prev's contribution plus next's contribution,
// so prev == next always yields zero deltas.
func TransitionDeltas(prev, next enum.VoteState, w ReputationWeights) VoteDeltas {
	if prev == next {
		return VoteDeltas{}
	}

	return contribution(prev, w).Negate().Add(contribution(next, w))
}
