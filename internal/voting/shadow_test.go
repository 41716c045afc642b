package voting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

func TestShadow_OptimisticThenReconcile(t *testing.T) {
	s := Shadow{Counts: Counts{Upvotes: 5, Downvotes: 2}}

	_, err := s.Apply(models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, Counts{Upvotes: 6, Downvotes: 2}, s.Counts)
	assert.Equal(t, StateUpvoted, s.State)
	assert.True(t, s.Stale())

	_, err = s.Apply(models.Downvote)
	require.NoError(t, err)
	assert.Equal(t, Counts{Upvotes: 5, Downvotes: 3}, s.Counts)

	// another viewer voted meanwhile; the server wins
	s.Reconcile(Counts{Upvotes: 9, Downvotes: 3}, StateDownvoted)
	assert.Equal(t, Counts{Upvotes: 9, Downvotes: 3}, s.Counts)
	assert.Equal(t, StateDownvoted, s.State)
	assert.False(t, s.Stale())
}

func TestShadow_RejectsInvalidVote(t *testing.T) {
	s := Shadow{Counts: Counts{Upvotes: 1}}
	_, err := s.Apply("meh")
	require.ErrorIs(t, err, models.ErrInvalidVoteType)
	assert.Equal(t, Counts{Upvotes: 1}, s.Counts)
	assert.False(t, s.Stale())
}
