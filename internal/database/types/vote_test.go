package types_test

import (
	"testing"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionDeltas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		prev enum.VoteState
		next enum.VoteState
		want types.VoteDeltas
	}{
		{"none to up", enum.VoteStateNone, enum.VoteStateUp, types.VoteDeltas{Score: 1, Reputation: 10, Upvotes: 1}},
		{"none to down", enum.VoteStateNone, enum.VoteStateDown, types.VoteDeltas{Score: -1, Reputation: -5, Downvotes: 1}},
		{"up to up", enum.VoteStateUp, enum.VoteStateUp, types.VoteDeltas{}},
		{"down to down", enum.VoteStateDown, enum.VoteStateDown, types.VoteDeltas{}},
		{"up to down", enum.VoteStateUp, enum.VoteStateDown, types.VoteDeltas{Score: -2, Reputation: -15, Upvotes: -1, Downvotes: 1}},
		{"down to up", enum.VoteStateDown, enum.VoteStateUp, types.VoteDeltas{Score: 2, Reputation: 15, Upvotes: 1, Downvotes: -1}},
		{"up to none", enum.VoteStateUp, enum.VoteStateNone, types.VoteDeltas{Score: -1, Reputation: -10, Upvotes: -1}},
		{"down to none", enum.VoteStateDown, enum.VoteStateNone, types.VoteDeltas{Score: 1, Reputation: 5, Downvotes: -1}},
		{"none to none", enum.VoteStateNone, enum.VoteStateNone, types.VoteDeltas{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := types.TransitionDeltas(tt.prev, tt.next, types.DefaultReputationWeights)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.prev == tt.next, got.IsZero())
		})
	}
}

func TestTransitionDeltasRoundTrip(t *testing.T) {
	t.Parallel()

	states := []enum.VoteState{enum.VoteStateNone, enum.VoteStateUp, enum.VoteStateDown}
	weights := types.ReputationWeights{Upvote: 7, Downvote: 3, BestAnswer: 25}

	// Going a -> b -> a must net out to nothing for every pair of states
	for _, a := range states {
		for _, b := range states {
			there := types.TransitionDeltas(a, b, weights)
			back := types.TransitionDeltas(b, a, weights)
			assert.True(t, there.Add(back).IsZero(), "%s -> %s -> %s", a, b, a)
			assert.Equal(t, there, back.Negate())
		}
	}
}

func TestTransitionDeltasUsesWeights(t *testing.T) {
	t.Parallel()

	weights := types.ReputationWeights{Upvote: 2, Downvote: 1}

	assert.Equal(t, 2, types.TransitionDeltas(enum.VoteStateNone, enum.VoteStateUp, weights).Reputation)
	assert.Equal(t, -1, types.TransitionDeltas(enum.VoteStateNone, enum.VoteStateDown, weights).Reputation)
	assert.Equal(t, -3, types.TransitionDeltas(enum.VoteStateUp, enum.VoteStateDown, weights).Reputation)
}

func TestParseAnswerSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    types.AnswerSort
		wantErr bool
	}{
		{input: "", want: types.AnswerSortVotes},
		{input: "votes", want: types.AnswerSortVotes},
		{input: "new", want: types.AnswerSortNew},
		{input: "oldest", wantErr: true},
		{input: "VOTES", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := types.ParseAnswerSort(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidSort)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVoteState(t *testing.T) {
	t.Parallel()

	state, err := (&types.Vote{Value: 1}).State()
	require.NoError(t, err)
	assert.Equal(t, enum.VoteStateUp, state)

	state, err = (&types.Vote{Value: -1}).State()
	require.NoError(t, err)
	assert.Equal(t, enum.VoteStateDown, state)

	_, err = (&types.Vote{Value: 0}).State()
	require.ErrorIs(t, err, enum.ErrInvalidVoteValue)
}
