package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"civicsync/models"
)

const opTimeout = 10 * time.Second

// Mongo is the production IssueStore: issues, votes and audit entries live
// in MongoDB; change notifications fan out over a Redis pub/sub channel so
// every running instance refreshes after any mutation.
type Mongo struct {
	issues  *mongo.Collection
	votes   *mongo.Collection
	audits  *mongo.Collection
	redis   *redis.Client
	channel string
	logger  *logrus.Logger
}

// NewMongo wires the collections and ensures the unique (issue, user) vote
// index. redisClient may be nil; Subscribe then degrades to a no-op and
// mutations skip publishing.
func NewMongo(db *mongo.Database, redisClient *redis.Client, channel string, logger *logrus.Logger) (*Mongo, error) {
	m := &Mongo{
		issues:  db.Collection("issues"),
		votes:   db.Collection("votes"),
		audits:  db.Collection("audit_logs"),
		redis:   redisClient,
		channel: channel,
		logger:  logger,
	}
	if err := models.EnsureVoteIndex(m.votes); err != nil {
		return nil, fmt.Errorf("ensure vote index: %w", err)
	}
	return m, nil
}

// FetchAll returns every issue with its voter set resolved in two round
// trips: one find over issues, one aggregation over votes.
func (m *Mongo) FetchAll(ctx context.Context) ([]models.IssueWithVotes, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := m.issues.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: find issues: %v", ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("%w: decode issues: %v", ErrUnavailable, err)
	}

	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":    "$issue",
			"voters": bson.M{"$push": "$user"},
		}},
	}
	voteCursor, err := m.votes.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate votes: %v", ErrUnavailable, err)
	}
	defer voteCursor.Close(ctx)

	type voteGroup struct {
		Issue  primitive.ObjectID `bson:"_id"`
		Voters []string           `bson:"voters"`
	}
	var groups []voteGroup
	if err := voteCursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("%w: decode votes: %v", ErrUnavailable, err)
	}

	votersByIssue := make(map[primitive.ObjectID][]string, len(groups))
	for _, g := range groups {
		votersByIssue[g.Issue] = g.Voters
	}

	out := make([]models.IssueWithVotes, 0, len(issues))
	for _, issue := range issues {
		voters := votersByIssue[issue.ID]
		out = append(out, models.IssueWithVotes{
			Issue:   issue,
			Votes:   int64(len(voters)),
			VotedBy: voters,
		})
	}
	return out, nil
}

func (m *Mongo) Create(ctx context.Context, input CreateIssueInput) (*models.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

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

	if _, err := m.issues.InsertOne(ctx, issue); err != nil {
		return nil, fmt.Errorf("%w: insert issue: %v", ErrUnavailable, err)
	}
	m.publish(ctx)
	return &issue, nil
}

func (m *Mongo) Update(ctx context.Context, issueID string, fields UpdateFields) error {
	objID, err := primitive.ObjectIDFromHex(issueID)
	if err != nil {
		return ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{"updatedAt": time.Now()}
	if fields.Priority != nil {
		update["priority"] = *fields.Priority
	}
	if fields.Status != nil {
		update["status"] = *fields.Status
	}
	if fields.Department != nil {
		update["department"] = *fields.Department
	}
	if fields.Expense != nil {
		update["expense"] = *fields.Expense
	}

	res, err := m.issues.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("%w: update issue: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	m.publish(ctx)
	return nil
}

// Delete removes the issue and cascades its votes. Deletion is final.
func (m *Mongo) Delete(ctx context.Context, issueID string) error {
	objID, err := primitive.ObjectIDFromHex(issueID)
	if err != nil {
		return ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := m.issues.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("%w: delete issue: %v", ErrUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	if _, err := m.votes.DeleteMany(ctx, bson.M{"issue": objID}); err != nil {
		m.logger.WithError(err).Warn("Failed to cascade vote deletion")
	}
	m.publish(ctx)
	return nil
}

// AddVote inserts the (issue, voter) pair; the unique index turns a retry or
// a concurrent duplicate into alreadyVoted=true rather than an error.
func (m *Mongo) AddVote(ctx context.Context, issueID, voterID string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(issueID)
	if err != nil {
		return false, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := m.issues.FindOne(ctx, bson.M{"_id": objID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("%w: lookup issue: %v", ErrUnavailable, err)
	}

	vote := models.Vote{
		ID:        primitive.NewObjectID(),
		Issue:     objID,
		User:      voterID,
		CreatedAt: time.Now(),
	}
	if _, err := m.votes.InsertOne(ctx, vote); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, fmt.Errorf("%w: insert vote: %v", ErrUnavailable, err)
	}
	m.publish(ctx)
	return false, nil
}

// Subscribe listens on the Redis change channel and invokes onChange with no
// payload: the signal only means "refresh now".
func (m *Mongo) Subscribe(ctx context.Context, onChange func()) (func(), error) {
	if m.redis == nil {
		return func() {}, nil
	}
	pubsub := m.redis.Subscribe(ctx, m.channel)
	go func() {
		for range pubsub.Channel() {
			onChange()
		}
	}()
	return func() {
		if err := pubsub.Close(); err != nil {
			m.logger.WithError(err).Warn("Failed to close change subscription")
		}
	}, nil
}

func (m *Mongo) ListUnvalidated(ctx context.Context) ([]models.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := m.issues.Find(ctx, bson.M{"isAuthentic": bson.M{"$exists": false}})
	if err != nil {
		return nil, fmt.Errorf("%w: find unvalidated: %v", ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("%w: decode unvalidated: %v", ErrUnavailable, err)
	}
	return issues, nil
}

func (m *Mongo) SetValidation(ctx context.Context, issueID string, v Validation) error {
	objID, err := primitive.ObjectIDFromHex(issueID)
	if err != nil {
		return ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := m.issues.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{
		"isAuthentic": v.IsAuthentic,
		"confidence":  v.Confidence,
		"category":    v.Category,
	}})
	if err != nil {
		return fmt.Errorf("%w: set validation: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Record writes an audit entry. Callers treat failures as log-only.
func (m *Mongo) Record(ctx context.Context, entry models.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := m.audits.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("%w: insert audit entry: %v", ErrUnavailable, err)
	}
	return nil
}

// publish signals every subscriber to refresh. A missed publish is repaired
// by the next periodic poll.
func (m *Mongo) publish(ctx context.Context) {
	if m.redis == nil {
		return
	}
	if err := m.redis.Publish(ctx, m.channel, "refresh").Err(); err != nil {
		m.logger.WithError(err).Warn("Failed to publish change notification")
	}
}
