// Package store defines the authoritative-store boundary the engine talks
// to, plus its MongoDB and in-memory implementations. The engine never sees
// a raw collection: everything crosses this interface.
package store

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

import (
	"context"
	"errors"

	"civicsync/models"
)

// ErrNotFound reports an operation on an issue that no longer exists.
var ErrNotFound = errors.New("issue not found")

// ErrUnavailable reports a transient store/network failure. Local state is
// left unchanged and no retry is scheduled here; periodic and push triggers
// retry on their own schedule.
var ErrUnavailable = errors.New("store unavailable")

// CreateIssueInput carries everything a citizen submission provides plus the
// policy-assigned fields (priority, status, department, expense).
type CreateIssueInput struct {
	Type        string
	Description string
	Location    string
	Latitude    float64
	Longitude   float64
	PhotoURL    string
	Priority    models.IssuePriority
	Status      models.IssueStatus
	Department  string
	Expense     float64
	ReportedBy  string
}

// UpdateFields is a partial update; nil fields are left untouched.
type UpdateFields struct {
	Priority   *models.IssuePriority
	Status     *models.IssueStatus
	Department *string
	Expense    *float64
}

// Validation is the authenticity verdict the validation worker persists.
type Validation struct {
	IsAuthentic bool
	Confidence  float64
	Category    string
}

// IssueStore is the authoritative store contract. FetchAll resolves the full
// voter set per issue so any user's membership can be derived from one
// snapshot.
type IssueStore interface {
	FetchAll(ctx context.Context) ([]models.IssueWithVotes, error)
	Create(ctx context.Context, input CreateIssueInput) (*models.Issue, error)
	Update(ctx context.Context, issueID string, fields UpdateFields) error
	Delete(ctx context.Context, issueID string) error
	AddVote(ctx context.Context, issueID, voterID string) (alreadyVoted bool, err error)
	Subscribe(ctx context.Context, onChange func()) (unsubscribe func(), err error)

	ListUnvalidated(ctx context.Context) ([]models.Issue, error)
	SetValidation(ctx context.Context, issueID string, v Validation) error
}

// AuditSink receives best-effort audit records. Implementations must be safe
// to call from request paths; callers log and ignore errors.
type AuditSink interface {
	Record(ctx context.Context, entry models.AuditEntry) error
}
