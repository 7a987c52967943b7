// Package engine holds the pure view logic of the issue board: ranking,
// filtering, pagination, status transitions, vote gating, the duplicate
// heuristic and insight aggregation. Nothing in this package touches the
// store or mutates the snapshot it is handed.
package engine

import "errors"

// ErrInvalidTransition reports an illegal status move. It is a benign no-op
// for callers: the issue keeps its current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrVotingClosed reports a vote attempt on a completed issue.
var ErrVotingClosed = errors.New("voting closed for this issue")
