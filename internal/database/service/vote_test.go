package service_test

import (
	"sync"
	"testing"

	"github.com/clawtake/clawtake/internal/database/service"
	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type voteFixture struct {
	db      *memDB
	service *service.VoteService
	agentID uuid.UUID
	answer  uuid.UUID
}

func newVoteFixture(reputation int) *voteFixture {
	db := newMemDB()
	agentID := db.addAgent(reputation)
	questionID := db.addQuestion(uuid.New())
	answerID := db.addAnswer(questionID, agentID)

	return &voteFixture{
		db: db,
		service: service.NewVote(
			db, answerStore{db}, agentStore{db}, voteStore{db},
			types.DefaultReputationWeights, zap.NewNop(),
		),
		agentID: agentID,
		answer:  answerID,
	}
}

func TestCastVoteTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		prev          int // 0 means no prior vote
		value         int
		wantScore     int
		wantRep       int
		wantUpvotes   int
		wantDownvotes int
		wantVote      enum.VoteState
	}{
		{"none to up", 0, 1, 1, 110, 1, 0, enum.VoteStateUp},
		{"none to down", 0, -1, -1, 95, 0, 1, enum.VoteStateDown},
		{"up to up", 1, 1, 1, 110, 1, 0, enum.VoteStateUp},
		{"down to down", -1, -1, -1, 95, 0, 1, enum.VoteStateDown},
		{"up to down", 1, -1, -1, 95, 0, 1, enum.VoteStateDown},
		{"down to up", -1, 1, 1, 110, 1, 0, enum.VoteStateUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newVoteFixture(100)
			voter := uuid.New()

			if tt.prev != 0 {
				_, err := f.service.CastVote(t.Context(), voter, f.answer, tt.prev)
				require.NoError(t, err)
			}

			result, err := f.service.CastVote(t.Context(), voter, f.answer, tt.value)
			require.NoError(t, err)

			assert.Equal(t, tt.wantScore, result.NewScore)
			assert.Equal(t, tt.wantVote, result.UserVote)

			answer := f.db.answer(f.answer)
			assert.Equal(t, tt.wantScore, answer.Score)
			assert.Equal(t, tt.wantUpvotes, answer.Upvotes)
			assert.Equal(t, tt.wantDownvotes, answer.Downvotes)
			assert.Equal(t, tt.wantRep, f.db.reputation(f.agentID))

			state, ok := f.db.vote(voter, f.answer)
			assert.True(t, ok)
			assert.Equal(t, tt.wantVote, state)
		})
	}
}

func TestCastVoteRepeatedIsNoOp(t *testing.T) {
	t.Parallel()

	f := newVoteFixture(0)
	voter := uuid.New()

	first, err := f.service.CastVote(t.Context(), voter, f.answer, 1)
	require.NoError(t, err)
	writes := f.db.calls["UpsertVote"]

	second, err := f.service.CastVote(t.Context(), voter, f.answer, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, writes, f.db.calls["UpsertVote"], "no-op must not write")
	assert.Equal(t, 1, f.db.answer(f.answer).Upvotes)
	assert.Equal(t, 10, f.db.reputation(f.agentID))
}

func TestCastThenRemoveRestoresState(t *testing.T) {
	t.Parallel()

	for _, value := range []int{1, -1} {
		f := newVoteFixture(40)
		voter := uuid.New()
		before := f.db.answer(f.answer)

		_, err := f.service.CastVote(t.Context(), voter, f.answer, value)
		require.NoError(t, err)

		result, err := f.service.RemoveVote(t.Context(), voter, f.answer)
		require.NoError(t, err)

		assert.Equal(t, before.Score, result.NewScore)
		assert.Equal(t, enum.VoteStateNone, result.UserVote)
		assert.Equal(t, before, f.db.answer(f.answer))
		assert.Equal(t, 40, f.db.reputation(f.agentID))

		_, ok := f.db.vote(voter, f.answer)
		assert.False(t, ok)
	}
}

func TestFlipFloorsReputation(t *testing.T) {
	t.Parallel()

	f := newVoteFixture(10)
	voter := uuid.New()

	// Seed a prior upvote that already accounts for the agent's 10 reputation
	f.db.votes[voteKey{voter, f.answer}] = enum.VoteStateUp
	answer := f.db.answers[f.answer]
	answer.Upvotes = 1
	f.db.answers[f.answer] = answer

	result, err := f.service.CastVote(t.Context(), voter, f.answer, -1)
	require.NoError(t, err)

	assert.Equal(t, -2, result.NewScore)
	assert.Equal(t, 0, f.db.reputation(f.agentID))
}

func TestDownvoteAtZeroReputation(t *testing.T) {
	t.Parallel()

	f := newVoteFixture(0)

	_, err := f.service.CastVote(t.Context(), uuid.New(), f.answer, -1)
	require.NoError(t, err)

	assert.Equal(t, 0, f.db.reputation(f.agentID))
}

func TestRemoveVoteWithoutRecord(t *testing.T) {
	t.Parallel()

	f := newVoteFixture(0)

	result, err := f.service.RemoveVote(t.Context(), uuid.New(), f.answer)
	require.NoError(t, err)

	assert.Equal(t, 0, result.NewScore)
	assert.Equal(t, enum.VoteStateNone, result.UserVote)

	answer := f.db.answer(f.answer)
	assert.Equal(t, 0, answer.Upvotes)
	assert.Equal(t, 0, answer.Downvotes)
	assert.Zero(t, f.db.calls["ApplyCounterDeltas"])
	assert.Zero(t, f.db.calls["DeleteVote"])
}

func TestCastVoteInvalidValue(t *testing.T) {
	t.Parallel()

	f := newVoteFixture(0)

	for _, value := range []int{0, 2, -2, 10} {
		_, err := f.service.CastVote(t.Context(), uuid.New(), f.answer, value)
		require.ErrorIs(t, err, types.ErrInvalidVoteValue)
	}

	assert.Zero(t, f.db.calls["LockAnswer"], "invalid values must not reach the store")
}

func TestVoteOnMissingAnswer(t *testing.T) {
	t.Parallel()

	f := newVoteFixture(0)

	_, err := f.service.CastVote(t.Context(), uuid.New(), uuid.New(), 1)
	require.ErrorIs(t, err, types.ErrAnswerNotFound)

	_, err = f.service.RemoveVote(t.Context(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, types.ErrAnswerNotFound)
}

func TestVoteRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"UpsertVote", "ApplyCounterDeltas", "ApplyReputationDelta"} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			f := newVoteFixture(20)
			voter := uuid.New()
			before := f.db.answer(f.answer)

			f.db.failOn = method

			_, err := f.service.CastVote(t.Context(), voter, f.answer, 1)
			require.ErrorIs(t, err, errInjected)

			assert.Equal(t, before, f.db.answer(f.answer))
			assert.Equal(t, 20, f.db.reputation(f.agentID))

			_, ok := f.db.vote(voter, f.answer)
			assert.False(t, ok)
		})
	}
}

func TestVoteEndToEndScenario(t *testing.T) {
	t.Parallel()

	f := newVoteFixture(0)
	voterA, voterB := uuid.New(), uuid.New()

	steps := []struct {
		name      string
		run       func() (*types.VoteResult, error)
		score     int
		upvotes   int
		downvotes int
		rep       int
	}{
		{"A upvotes", func() (*types.VoteResult, error) {
			return f.service.CastVote(t.Context(), voterA, f.answer, 1)
		}, 1, 1, 0, 10},
		{"B upvotes", func() (*types.VoteResult, error) {
			return f.service.CastVote(t.Context(), voterB, f.answer, 1)
		}, 2, 2, 0, 20},
		{"A flips to downvote", func() (*types.VoteResult, error) {
			return f.service.CastVote(t.Context(), voterA, f.answer, -1)
		}, 0, 1, 1, 5},
		{"A removes vote", func() (*types.VoteResult, error) {
			return f.service.RemoveVote(t.Context(), voterA, f.answer)
		}, 1, 1, 0, 10},
	}

	for _, step := range steps {
		result, err := step.run()
		require.NoError(t, err, step.name)

		answer := f.db.answer(f.answer)
		assert.Equal(t, step.score, result.NewScore, step.name)
		assert.Equal(t, step.score, answer.Score, step.name)
		assert.Equal(t, step.upvotes, answer.Upvotes, step.name)
		assert.Equal(t, step.downvotes, answer.Downvotes, step.name)
		assert.Equal(t, step.rep, f.db.reputation(f.agentID), step.name)
	}
}

func TestConcurrentVoters(t *testing.T) {
	t.Parallel()

	f := newVoteFixture(0)

	const voters = 50

	var wg sync.WaitGroup
	for i := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()

			voter := uuid.New()
			_, err := f.service.CastVote(t.Context(), voter, f.answer, -1)
			assert.NoError(t, err)

			// Even voters end on an upvote, odd voters withdraw
			if i%2 == 0 {
				_, err = f.service.CastVote(t.Context(), voter, f.answer, 1)
			} else {
				_, err = f.service.RemoveVote(t.Context(), voter, f.answer)
			}
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	answer := f.db.answer(f.answer)
	assert.Equal(t, voters/2, answer.Score)
	assert.Equal(t, voters/2, answer.Upvotes)
	assert.Equal(t, 0, answer.Downvotes)
	assert.GreaterOrEqual(t, f.db.reputation(f.agentID), 0)
}
