package engine

import "civicsync/models"

// Votable reports whether an issue in the given status still accepts votes.
// Completed issues are closed to voting.
func Votable(status models.IssueStatus) bool {
	switch status {
	case models.StatusRecent, models.StatusQueue, models.StatusInProgress:
		return true
	}
	return false
}

// CheckVote gates a vote attempt against the current snapshot view of the
// issue. A voter already present in the voter set is not an error; the
// caller reports alreadyVoted and moves on. Counts are never incremented
// here: they are recomputed from the ledger on the next reconciliation.
func CheckVote(issue models.IssueWithVotes, voterID string) (alreadyVoted bool, err error) {
	if !Votable(issue.Status) {
		return false, ErrVotingClosed
	}
	return issue.HasVoted(voterID), nil
}
