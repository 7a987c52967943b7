package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicsync/models"
)

func TestVotable(t *testing.T) {
	assert.True(t, Votable(models.StatusRecent))
	assert.True(t, Votable(models.StatusQueue))
	assert.True(t, Votable(models.StatusInProgress))
	assert.False(t, Votable(models.StatusCompleted))
}

func TestCheckVote(t *testing.T) {
	iv := testIssue("pothole", models.StatusQueue, models.PriorityLow, 1, time.Now())
	iv.VotedBy = []string{"v1"}

	already, err := CheckVote(iv, "v2")
	require.NoError(t, err)
	assert.False(t, already)

	already, err = CheckVote(iv, "v1")
	require.NoError(t, err)
	assert.True(t, already, "existing voter reports alreadyVoted, not an error")

	iv.Status = models.StatusCompleted
	_, err = CheckVote(iv, "v2")
	assert.ErrorIs(t, err, ErrVotingClosed)
}
