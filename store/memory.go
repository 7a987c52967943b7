package store

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"civicsync/models"
)

// Memory is an in-process IssueStore with the same contract as Mongo. It
// backs tests and the standalone dev mode; the original system ran the same
// engine against a browser-local store in exactly this role.
type Memory struct {
	mu          sync.Mutex
	issues      map[string]models.Issue
	votes       map[string]map[string]struct{} // issueID -> voter set
	audits      []models.AuditEntry
	subscribers []func()
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		issues: make(map[string]models.Issue),
		votes:  make(map[string]map[string]struct{}),
	}
}

func (m *Memory) FetchAll(ctx context.Context) ([]models.IssueWithVotes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.IssueWithVotes, 0, len(m.issues))
	for id, issue := range m.issues {
		voters := make([]string, 0, len(m.votes[id]))
		for v := range m.votes[id] {
			voters = append(voters, v)
		}
		out = append(out, models.IssueWithVotes{
			Issue:   issue,
			Votes:   int64(len(voters)),
			VotedBy: voters,
		})
	}
	return out, nil
}

func (m *Memory) Create(ctx context.Context, input CreateIssueInput) (*models.Issue, error) {
	now := time.Now()
	issue := models.Issue{
		ID:          primitive.NewObjectID(),
		Type:        input.Type,
		Description: input.Description,
		Location:    input.Location,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		PhotoURL:    input.PhotoURL,
		Priority:    input.Priority,
		Status:      input.Status,
		Department:  input.Department,
		Expense:     input.Expense,
		ReportedBy:  input.ReportedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	m.issues[issue.ID.Hex()] = issue
	m.mu.Unlock()

	m.notify()
	return &issue, nil
}

func (m *Memory) Update(ctx context.Context, issueID string, fields UpdateFields) error {
	m.mu.Lock()
	issue, ok := m.issues[issueID]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if fields.Priority != nil {
		issue.Priority = *fields.Priority
	}
	if fields.Status != nil {
		issue.Status = *fields.Status
	}
	if fields.Department != nil {
		issue.Department = *fields.Department
	}
	if fields.Expense != nil {
		issue.Expense = *fields.Expense
	}
	issue.UpdatedAt = time.Now()
	m.issues[issueID] = issue
	m.mu.Unlock()

	m.notify()
	return nil
}

func (m *Memory) Delete(ctx context.Context, issueID string) error {
	m.mu.Lock()
	if _, ok := m.issues[issueID]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.issues, issueID)
	delete(m.votes, issueID)
	m.mu.Unlock()

	m.notify()
	return nil
}

func (m *Memory) AddVote(ctx context.Context, issueID, voterID string) (bool, error) {
	m.mu.Lock()
	if _, ok := m.issues[issueID]; !ok {
		m.mu.Unlock()
		return false, ErrNotFound
	}
	voters, ok := m.votes[issueID]
	if !ok {
		voters = make(map[string]struct{})
		m.votes[issueID] = voters
	}
	if _, voted := voters[voterID]; voted {
		m.mu.Unlock()
		return true, nil
	}
	voters[voterID] = struct{}{}
	m.mu.Unlock()

	m.notify()
	return false, nil
}

func (m *Memory) Subscribe(ctx context.Context, onChange func()) (func(), error) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, onChange)
	idx := len(m.subscribers) - 1
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		m.subscribers[idx] = nil
		m.mu.Unlock()
	}, nil
}

func (m *Memory) ListUnvalidated(ctx context.Context) ([]models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Issue
	for _, issue := range m.issues {
		if issue.IsAuthentic == nil {
			out = append(out, issue)
		}
	}
	return out, nil
}

func (m *Memory) SetValidation(ctx context.Context, issueID string, v Validation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	issue, ok := m.issues[issueID]
	if !ok {
		return ErrNotFound
	}
	authentic := v.IsAuthentic
	issue.IsAuthentic = &authentic
	issue.Confidence = v.Confidence
	issue.Category = v.Category
	m.issues[issueID] = issue
	return nil
}

func (m *Memory) Record(ctx context.Context, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.audits = append(m.audits, entry)
	return nil
}

// AuditEntries returns a copy of recorded audit entries, oldest first.
func (m *Memory) AuditEntries() []models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditEntry, len(m.audits))
	copy(out, m.audits)
	return out
}

// notify runs outside the lock: a subscriber reacting with FetchAll must not
// deadlock.
func (m *Memory) notify() {
	m.mu.Lock()
	subs := make([]func(), 0, len(m.subscribers))
	for _, s := range m.subscribers {
		if s != nil {
			subs = append(subs, s)
		}
	}
	m.mu.Unlock()

	for _, s := range subs {
		s()
	}
}
