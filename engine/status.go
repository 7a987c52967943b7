package engine

import "civicsync/models"

// Advance returns the next status in the lifecycle. Completed issues cannot
// move; the move is single-step only, so skipping straight to completed
// takes repeated, separately auditable calls.
func Advance(status models.IssueStatus) (models.IssueStatus, error) {
	idx := models.StatusIndex(status)
	if idx < 0 || idx >= len(models.StatusOrder)-1 {
		return status, ErrInvalidTransition
	}
	return models.StatusOrder[idx+1], nil
}

// Revert returns the previous status in the lifecycle. Recent has nothing to
// revert to and completed is terminal, so both fail.
func Revert(status models.IssueStatus) (models.IssueStatus, error) {
	idx := models.StatusIndex(status)
	if idx <= 0 || status == models.StatusCompleted {
		return status, ErrInvalidTransition
	}
	return models.StatusOrder[idx-1], nil
}

// Mutable reports whether administrative fields (priority, department,
// expense) may still change. Completed freezes the record.
func Mutable(status models.IssueStatus) bool {
	return status != models.StatusCompleted
}
