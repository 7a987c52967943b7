package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum. The order recent -> queue -> inprogress -> completed is
// the issue lifecycle; completed is terminal.
type IssueStatus string

const (
	StatusRecent     IssueStatus = "recent"
	StatusQueue      IssueStatus = "queue"
	StatusInProgress IssueStatus = "inprogress"
	StatusCompleted  IssueStatus = "completed"
)

// StatusOrder lists every status in lifecycle order.
var StatusOrder = []IssueStatus{StatusRecent, StatusQueue, StatusInProgress, StatusCompleted}

// ParseStatus rejects values outside the closed enum at the store boundary.
func ParseStatus(s string) (IssueStatus, error) {
	switch IssueStatus(s) {
	case StatusRecent, StatusQueue, StatusInProgress, StatusCompleted:
		return IssueStatus(s), nil
	}
	return "", fmt.Errorf("invalid issue status %q", s)
}

// StatusIndex returns the position of st in the lifecycle, or -1.
func StatusIndex(st IssueStatus) int {
	for i, s := range StatusOrder {
		if s == st {
			return i
		}
	}
	return -1
}

// IssuePriority enum used as the primary ranking key.
type IssuePriority string

const (
	PriorityLow       IssuePriority = "low"
	PriorityMedium    IssuePriority = "medium"
	PriorityImmediate IssuePriority = "immediate"
	PriorityUrgent    IssuePriority = "urgent"
)

// ParsePriority rejects values outside the closed enum at the store boundary.
func ParsePriority(s string) (IssuePriority, error) {
	switch IssuePriority(s) {
	case PriorityLow, PriorityMedium, PriorityImmediate, PriorityUrgent:
		return IssuePriority(s), nil
	}
	return "", fmt.Errorf("invalid issue priority %q", s)
}

// PriorityRank maps priorities to their ordering weight. Unknown values rank
// lowest rather than failing so a stale record cannot break the board sort.
func PriorityRank(p IssuePriority) int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityImmediate:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Departments is the fixed roster an issue can be routed to.
var Departments = []string{
	"Housing & Urban Development Department",
	"Directorate of Municipal Administration",
	"Orissa Water Supply & Sewerage Board (OWSSB)",
	"Public Health Engineering Organization (PHEO)",
	"Public Works / Works Department (PWD)",
	"Water Resources Department",
	"Revenue & Disaster Management",
	"Panchayati Raj & Drinking Water",
	"Forest, Environment & Climate Change",
	"Health & Family Welfare",
	"Energy Department Utilities",
	"Transport / Commerce & Transport",
	"Home / Police / Traffic Police",
	"Development Authorities (BDA/CDA etc.)",
	"Odisha Urban Housing Mission / State Housing Board",
	"ULB Solid Waste / Sanitation Cells",
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type        string             `bson:"type" json:"type"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location" json:"location"`
	Latitude    float64            `bson:"latitude" json:"latitude"`
	Longitude   float64            `bson:"longitude" json:"longitude"`
	PhotoURL    string             `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	Priority    IssuePriority      `bson:"priority" json:"priority"`
	Status      IssueStatus        `bson:"status" json:"status"`
	Department  string             `bson:"department" json:"department"`
	Expense     float64            `bson:"expense" json:"expense"`
	ReportedBy  string             `bson:"reportedBy" json:"reportedBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Authenticity verdict filled in by the validation worker.
	IsAuthentic *bool   `bson:"isAuthentic,omitempty" json:"isAuthentic,omitempty"`
	Confidence  float64 `bson:"confidence,omitempty" json:"confidence,omitempty"`
	Category    string  `bson:"category,omitempty" json:"category,omitempty"`
}

// IssueWithVotes is the denormalized shape the reconciler publishes: the
// issue plus its resolved voter set. The voter set is the source of truth;
// Votes always equals len(VotedBy).
type IssueWithVotes struct {
	Issue
	Votes   int64    `json:"votes"`
	VotedBy []string `json:"votedBy"`
}

// HasVoted reports whether voterID is in the resolved voter set.
func (iv IssueWithVotes) HasVoted(voterID string) bool {
	for _, v := range iv.VotedBy {
		if v == voterID {
			return true
		}
	}
	return false
}
