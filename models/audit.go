package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEntry is a best-effort record of a user or worker action. Audit
// writes must never block or fail the primary operation.
type AuditEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Actor     string             `bson:"actor" json:"actor"`
	Action    string             `bson:"action" json:"action"`
	IssueID   string             `bson:"issueId,omitempty" json:"issueId,omitempty"`
	Detail    string             `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Audit actions recorded by the service and the validation worker.
const (
	AuditLogin          = "login"
	AuditLogout         = "logout"
	AuditIssueCreated   = "issue_created"
	AuditIssueUpdated   = "issue_updated"
	AuditIssueDeleted   = "issue_deleted"
	AuditStatusAdvanced = "status_advanced"
	AuditStatusReverted = "status_reverted"
	AuditVoteCast       = "vote_cast"
	AuditAIValidated    = "ai_validated"
)
