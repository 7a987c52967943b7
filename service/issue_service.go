// Package service wires the engine, the reconciler and the store into the
// operations the HTTP layer exposes. Mutations go to the store and then
// await the triggered refresh; reads come straight from the snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/sirupsen/logrus"

	"civicsync/engine"
	"civicsync/export"
	"civicsync/models"
	"civicsync/reconciler"
	"civicsync/store"
)

// ErrIssueCompleted reports an attempt to modify a completed issue.
// Completed is terminal: no status, priority, department or expense change.
var ErrIssueCompleted = errors.New("completed issues cannot be modified")

// ErrInvalidInput reports a rejected field value in a request.
var ErrInvalidInput = errors.New("invalid input")

type IssueService struct {
	store              store.IssueStore
	audit              store.AuditSink
	rec                *reconciler.Reconciler
	logger             *logrus.Logger
	duplicateThreshold float64
}

func NewIssueService(st store.IssueStore, audit store.AuditSink, rec *reconciler.Reconciler, logger *logrus.Logger) *IssueService {
	return &IssueService{
		store:              st,
		audit:              audit,
		rec:                rec,
		logger:             logger,
		duplicateThreshold: engine.DefaultDuplicateThreshold,
	}
}

// SubmitInput is what a citizen submission provides. Priority, status,
// department and expense are assigned by policy, not by the reporter.
type SubmitInput struct {
	Type        string
	Description string
	Location    string
	Latitude    float64
	Longitude   float64
	PhotoURL    string
}

// SubmitResult carries the created issue and the advisory duplicate flag.
type SubmitResult struct {
	Issue           *models.Issue
	DuplicateLikely bool
}

// Submit runs the duplicate heuristic against the current snapshot, creates
// the issue and awaits the reconciliation pass. The duplicate flag never
// blocks the submission.
func (s *IssueService) Submit(ctx context.Context, input SubmitInput, reporterID string) (*SubmitResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "issue",
		"method":  "Submit",
		"type":    input.Type,
	})

	if input.Type == "" || input.Description == "" || input.Location == "" {
		return nil, fmt.Errorf("%w: type, description and location are required", ErrInvalidInput)
	}

	snap := s.rec.Snapshot()
	dup := engine.IsDuplicateNearby(snap.Issues, input.Type, input.Latitude, input.Longitude, s.duplicateThreshold)
	if dup {
		log.Info("Submission flagged as likely duplicate")
	}

	issue, err := s.store.Create(ctx, store.CreateIssueInput{
		Type:        input.Type,
		Description: input.Description,
		Location:    input.Location,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		PhotoURL:    input.PhotoURL,
		Priority:    models.PriorityLow,
		Status:      models.StatusRecent,
		Department:  models.Departments[rand.Intn(len(models.Departments))],
		Expense:     float64(rand.Intn(1000) + 100),
		ReportedBy:  reporterID,
	})
	if err != nil {
		log.WithError(err).Error("Failed to create issue")
		return nil, err
	}

	s.recordAudit(ctx, reporterID, models.AuditIssueCreated, issue.ID.Hex(), "")
	if _, err := s.rec.Refresh(ctx); err != nil {
		return nil, err
	}

	log.WithField("issue_id", issue.ID.Hex()).Info("Issue submitted")
	return &SubmitResult{Issue: issue, DuplicateLikely: dup}, nil
}

// Vote casts a vote for voterID. A repeat vote is a benign no-op reporting
// alreadyVoted; a vote on a completed issue fails with ErrVotingClosed. The
// returned count comes from the post-refresh snapshot, never from a local
// increment.
func (s *IssueService) Vote(ctx context.Context, issueID, voterID string) (alreadyVoted bool, votes int64, err error) {
	iv, ok := s.findIssue(issueID)
	if !ok {
		return false, 0, store.ErrNotFound
	}

	already, err := engine.CheckVote(iv, voterID)
	if err != nil {
		return false, iv.Votes, err
	}
	if already {
		return true, iv.Votes, nil
	}

	already, err = s.store.AddVote(ctx, issueID, voterID)
	if err != nil {
		return false, iv.Votes, err
	}

	s.recordAudit(ctx, voterID, models.AuditVoteCast, issueID, "")
	snap, err := s.rec.Refresh(ctx)
	if err != nil {
		return already, iv.Votes, err
	}

	for _, fresh := range snap.Issues {
		if fresh.ID.Hex() == issueID {
			return already, fresh.Votes, nil
		}
	}
	// Deleted between vote and refresh; the vote cascaded away with it.
	return already, 0, nil
}

// AdvanceStatus moves the issue one step forward in the lifecycle.
func (s *IssueService) AdvanceStatus(ctx context.Context, issueID, actor string) (models.IssueStatus, error) {
	return s.transition(ctx, issueID, actor, engine.Advance, models.AuditStatusAdvanced)
}

// RevertStatus moves the issue one step backward in the lifecycle.
func (s *IssueService) RevertStatus(ctx context.Context, issueID, actor string) (models.IssueStatus, error) {
	return s.transition(ctx, issueID, actor, engine.Revert, models.AuditStatusReverted)
}

func (s *IssueService) transition(ctx context.Context, issueID, actor string, step func(models.IssueStatus) (models.IssueStatus, error), action string) (models.IssueStatus, error) {
	iv, ok := s.findIssue(issueID)
	if !ok {
		return "", store.ErrNotFound
	}

	next, err := step(iv.Status)
	if err != nil {
		return iv.Status, err
	}

	if err := s.store.Update(ctx, issueID, store.UpdateFields{Status: &next}); err != nil {
		return iv.Status, err
	}

	s.recordAudit(ctx, actor, action, issueID, fmt.Sprintf("%s -> %s", iv.Status, next))

	// The local view only changes once reconciliation lands; status reads
	// before the refresh completes still show the previous value.
	if _, err := s.rec.Refresh(ctx); err != nil {
		return next, err
	}
	return next, nil
}

// UpdateRequest is a partial administrative update.
type UpdateRequest struct {
	Priority   *models.IssuePriority
	Department *string
	Expense    *float64
}

// UpdateIssue changes administrative fields on a not-yet-completed issue.
func (s *IssueService) UpdateIssue(ctx context.Context, issueID string, req UpdateRequest, actor string) error {
	iv, ok := s.findIssue(issueID)
	if !ok {
		return store.ErrNotFound
	}
	if !engine.Mutable(iv.Status) {
		return ErrIssueCompleted
	}
	if req.Expense != nil && *req.Expense < 0 {
		return fmt.Errorf("%w: expense must be non-negative", ErrInvalidInput)
	}

	if err := s.store.Update(ctx, issueID, store.UpdateFields{
		Priority:   req.Priority,
		Department: req.Department,
		Expense:    req.Expense,
	}); err != nil {
		return err
	}

	s.recordAudit(ctx, actor, models.AuditIssueUpdated, issueID, "")
	_, err := s.rec.Refresh(ctx)
	return err
}

// DeleteIssue removes the issue and its votes. Deletion is final.
func (s *IssueService) DeleteIssue(ctx context.Context, issueID, actor string) error {
	if _, ok := s.findIssue(issueID); !ok {
		return store.ErrNotFound
	}
	if err := s.store.Delete(ctx, issueID); err != nil {
		return err
	}

	s.recordAudit(ctx, actor, models.AuditIssueDeleted, issueID, "")
	_, err := s.rec.Refresh(ctx)
	return err
}

// GetIssue resolves one issue from the snapshot.
func (s *IssueService) GetIssue(issueID string) (models.IssueWithVotes, error) {
	iv, ok := s.findIssue(issueID)
	if !ok {
		return models.IssueWithVotes{}, store.ErrNotFound
	}
	return iv, nil
}

// Board renders every column in canonical order from the snapshot.
func (s *IssueService) Board() map[models.IssueStatus][]models.IssueWithVotes {
	snap := s.rec.Snapshot()
	board := make(map[models.IssueStatus][]models.IssueWithVotes, len(models.StatusOrder))
	for _, status := range models.StatusOrder {
		board[status] = engine.SortForColumn(snap.Issues, status)
	}
	return board
}

// ListResult is one page of a filtered, sorted list.
type ListResult struct {
	Items      []models.IssueWithVotes `json:"issues"`
	TotalItems int                     `json:"totalIssues"`
	TotalPages int                     `json:"totalPages"`
	Page       int                     `json:"currentPage"`
}

// List filters, sorts and paginates the snapshot. Page and pageSize are
// clamped to sane bounds; out-of-range pages return an empty page.
func (s *IssueService) List(filters engine.Filters, key engine.SortKey, page, pageSize int) ListResult {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	ordered := engine.FilterAndSort(s.rec.Snapshot().Issues, filters, key)
	return ListResult{
		Items:      engine.Paginate(ordered, pageSize, page),
		TotalItems: len(ordered),
		TotalPages: engine.TotalPages(len(ordered), pageSize),
		Page:       page,
	}
}

// Insights aggregates completed work from the snapshot.
func (s *IssueService) Insights() engine.Insights {
	return engine.ComputeInsights(s.rec.Snapshot().Issues)
}

// RecentGeotagged returns the newest issues for the map view.
func (s *IssueService) RecentGeotagged(limit int) []models.IssueWithVotes {
	ordered := engine.FilterAndSort(s.rec.Snapshot().Issues, engine.Filters{}, engine.SortCreatedAtDesc)
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

// ExportCSV writes the filtered, sorted list as CSV.
func (s *IssueService) ExportCSV(w io.Writer, filters engine.Filters, key engine.SortKey) error {
	ordered := engine.FilterAndSort(s.rec.Snapshot().Issues, filters, key)
	return export.WriteCSV(w, ordered)
}

// LogLogin records a login audit entry, best-effort.
func (s *IssueService) LogLogin(ctx context.Context, userID string) {
	s.recordAudit(ctx, userID, models.AuditLogin, "", "")
}

// LogLogout records a logout audit entry, best-effort.
func (s *IssueService) LogLogout(ctx context.Context, userID string) {
	s.recordAudit(ctx, userID, models.AuditLogout, "", "")
}

func (s *IssueService) findIssue(issueID string) (models.IssueWithVotes, bool) {
	for _, iv := range s.rec.Snapshot().Issues {
		if iv.ID.Hex() == issueID {
			return iv, true
		}
	}
	return models.IssueWithVotes{}, false
}

// recordAudit must never fail the primary operation.
func (s *IssueService) recordAudit(ctx context.Context, actor, action, issueID, detail string) {
	if err := s.audit.Record(ctx, models.AuditEntry{
		Actor:   actor,
		Action:  action,
		IssueID: issueID,
		Detail:  detail,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record audit entry")
	}
}
