package voting

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

func TestNext_Table(t *testing.T) {
	tests := []struct {
		from      State
		requested models.VoteType
		to        State
		delta     Delta
		action    Action
	}{
		{StateNone, models.Upvote, StateUpvoted, Delta{Upvotes: 1}, ActionRecorded},
		{StateNone, models.Downvote, StateDownvoted, Delta{Downvotes: 1}, ActionRecorded},
		{StateUpvoted, models.Upvote, StateNone, Delta{Upvotes: -1}, ActionRemoved},
		{StateDownvoted, models.Downvote, StateNone, Delta{Downvotes: -1}, ActionRemoved},
		{StateUpvoted, models.Downvote, StateDownvoted, Delta{Upvotes: -1, Downvotes: 1}, ActionUpdated},
		{StateDownvoted, models.Upvote, StateUpvoted, Delta{Upvotes: 1, Downvotes: -1}, ActionUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"+"+string(tt.requested), func(t *testing.T) {
			got, err := Next(tt.from, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.from, got.From)
			assert.Equal(t, tt.to, got.To)
			assert.Equal(t, tt.delta, got.Delta)
			assert.Equal(t, tt.action, got.Action)
		})
	}
}

func TestNext_InvalidVoteType(t *testing.T) {
	_, err := Next(StateNone, models.VoteType("sideways"))
	require.ErrorIs(t, err, models.ErrInvalidVoteType)
}

func TestNext_RepeatRetracts(t *testing.T) {
	for _, v := range []models.VoteType{models.Upvote, models.Downvote} {
		first, err := Next(StateNone, v)
		require.NoError(t, err)
		second, err := Next(first.To, v)
		require.NoError(t, err)

		assert.Equal(t, StateNone, second.To)
		c := Counts{}.Apply(first.Delta).Apply(second.Delta)
		assert.Equal(t, Counts{}, c)
	}
}

func TestNext_SwitchKeepsTotal(t *testing.T) {
	start := Counts{Upvotes: 4, Downvotes: 4}
	for _, from := range []State{StateUpvoted, StateDownvoted} {
		requested := models.Upvote
		if from == StateUpvoted {
			requested = models.Downvote
		}
		tr, err := Next(from, requested)
		require.NoError(t, err)

		after := start.Apply(tr.Delta)
		assert.Equal(t, start.Total(), after.Total())
		assert.Equal(t, 1, abs(after.Upvotes-start.Upvotes))
		assert.Equal(t, 1, abs(after.Downvotes-start.Downvotes))
	}
}

func TestCounts_ApplyClampsAtZero(t *testing.T) {
	c := Counts{}.Apply(Delta{Upvotes: -1, Downvotes: -3})
	assert.Equal(t, Counts{}, c)
}

// Random vote sequences from many voters must keep counters equal to the number
// of voters in each state and never negative.
func TestNext_RandomSequencesMatchStates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	states := make([]State, 12)
	var counts Counts

	for i := 0; i < 5000; i++ {
		voter := rng.Intn(len(states))
		requested := models.Upvote
		if rng.Intn(2) == 0 {
			requested = models.Downvote
		}

		tr, err := Next(states[voter], requested)
		require.NoError(t, err)
		states[voter] = tr.To
		counts = counts.Apply(tr.Delta)

		var want Counts
		for _, s := range states {
			switch s {
			case StateUpvoted:
				want.Upvotes++
			case StateDownvoted:
				want.Downvotes++
			}
		}
		require.Equal(t, want, counts)
		require.GreaterOrEqual(t, counts.Upvotes, 0)
		require.GreaterOrEqual(t, counts.Downvotes, 0)
	}
}

func TestState_VoteTypeRoundTrip(t *testing.T) {
	for _, v := range []models.VoteType{models.Upvote, models.Downvote} {
		got, ok := StateOf(v).VoteType()
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}
	_, ok := StateNone.VoteType()
	assert.False(t, ok)
	assert.Equal(t, StateNone, StateOf("garbage"))
}

func TestTransition_Message(t *testing.T) {
	tr, err := Next(StateNone, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, "Vote recorded", tr.Message())

	tr, err = Next(StateUpvoted, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, "Vote removed", tr.Message())

	tr, err = Next(StateUpvoted, models.Downvote)
	require.NoError(t, err)
	assert.Equal(t, "Vote updated", tr.Message())
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
