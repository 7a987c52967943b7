package validation

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicsync/models"
	"civicsync/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		description    string
		photoURL       string
		wantCategory   string
		wantConfidence float64
		wantDecision   string
	}{
		{"keyword with photo", "huge pothole on the main road", "https://img/1.jpg", "pothole", 0.9, DecisionAuthentic},
		{"keyword without photo is uncertain", "huge pothole on the main road", "", "other", 0.2, DecisionSpam},
		{"garbage keyword", "garbage piling up for days", "https://img/2.jpg", "garbage", 0.9, DecisionAuthentic},
		{"trash maps to garbage", "trash everywhere near the park", "https://img/3.jpg", "garbage", 0.9, DecisionAuthentic},
		{"light keyword", "street light broken since monday", "https://img/4.jpg", "streetlight", 0.9, DecisionAuthentic},
		{"water keyword", "water pipe burst flooding lane", "https://img/5.jpg", "water leakage", 0.9, DecisionAuthentic},
		{"no keyword with photo", "something odd happening here", "https://img/6.jpg", "other", 0.5, DecisionUncertain},
		{"too short is spam", "bad", "https://img/7.jpg", "other", 0.2, DecisionSpam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Classify(tt.description, tt.photoURL)
			assert.Equal(t, tt.wantCategory, res.Category)
			assert.InDelta(t, tt.wantConfidence, res.Confidence, 1e-9)
			assert.Equal(t, tt.wantDecision, res.Decision)
			assert.Equal(t, tt.wantDecision == DecisionAuthentic, res.Authentic)
		})
	}
}

func TestWorker_RunOnce(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	authenticIssue, err := mem.Create(ctx, store.CreateIssueInput{
		Type:        "pothole",
		Description: "large pothole blocking the cycle lane",
		PhotoURL:    "https://img/a.jpg",
		Priority:    models.PriorityLow,
		Status:      models.StatusRecent,
	})
	require.NoError(t, err)

	spamIssue, err := mem.Create(ctx, store.CreateIssueInput{
		Type:        "other",
		Description: "bad",
		Priority:    models.PriorityLow,
		Status:      models.StatusRecent,
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	w := NewWorker(mem, mem, logger, 0)
	require.NoError(t, w.RunOnce(ctx))

	pending, err := mem.ListUnvalidated(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "every issue gets a verdict")

	all, err := mem.FetchAll(ctx)
	require.NoError(t, err)
	verdicts := make(map[string]models.Issue, len(all))
	for _, iv := range all {
		verdicts[iv.ID.Hex()] = iv.Issue
	}

	require.NotNil(t, verdicts[authenticIssue.ID.Hex()].IsAuthentic)
	assert.True(t, *verdicts[authenticIssue.ID.Hex()].IsAuthentic)
	assert.Equal(t, "pothole", verdicts[authenticIssue.ID.Hex()].Category)

	require.NotNil(t, verdicts[spamIssue.ID.Hex()].IsAuthentic)
	assert.False(t, *verdicts[spamIssue.ID.Hex()].IsAuthentic)

	entries := mem.AuditEntries()
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, models.AuditAIValidated, e.Action)
	}
}
