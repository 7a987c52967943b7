// Package validation screens new reports for authenticity with a cheap
// keyword heuristic and records the verdict. It is advisory: nothing in the
// lifecycle depends on the verdict, administrators just see it.
package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"civicsync/models"
	"civicsync/store"
)

// Decision labels for the audit trail.
const (
	DecisionAuthentic = "authentic"
	DecisionSpam      = "spam"
	DecisionUncertain = "uncertain"
)

// Result is a classification verdict for one issue.
type Result struct {
	Category   string
	Confidence float64
	Spam       bool
	Authentic  bool
	Decision   string
}

// Classify scores a report from its description and photo presence. Reports
// shorter than 10 characters or without a photo are treated as spam; a
// recognized keyword plus a photo yields high confidence.
func Classify(description, photoURL string) Result {
	res := Result{Category: "other", Confidence: 0.2}

	if len(description) < 10 || photoURL == "" {
		res.Spam = true
		res.Decision = DecisionSpam
		return res
	}

	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "pothole"):
		res.Category = "pothole"
	case strings.Contains(desc, "garbage"), strings.Contains(desc, "trash"):
		res.Category = "garbage"
	case strings.Contains(desc, "light"):
		res.Category = "streetlight"
	case strings.Contains(desc, "water"), strings.Contains(desc, "leak"):
		res.Category = "water leakage"
	}

	hasKeyword := res.Category != "other"
	switch {
	case hasKeyword && photoURL != "":
		res.Confidence = 0.9
	case hasKeyword:
		res.Confidence = 0.7
	case photoURL != "":
		res.Confidence = 0.5
	}

	if res.Confidence > 0.75 {
		res.Authentic = true
		res.Decision = DecisionAuthentic
	} else {
		res.Decision = DecisionUncertain
	}
	return res
}

// Worker periodically classifies issues that have no verdict yet.
type Worker struct {
	store    store.IssueStore
	audit    store.AuditSink
	logger   *logrus.Logger
	interval time.Duration
}

func NewWorker(st store.IssueStore, audit store.AuditSink, logger *logrus.Logger, interval time.Duration) *Worker {
	return &Worker{store: st, audit: audit, logger: logger, interval: interval}
}

// Start runs the worker until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Starting validation worker")
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping validation worker")
				return
			case <-ticker.C:
				if err := w.RunOnce(ctx); err != nil {
					w.logger.WithError(err).Warn("Validation pass failed")
				}
			}
		}
	}()
}

// RunOnce classifies every unvalidated issue. A failure on one issue is
// logged and skipped; the pass continues.
func (w *Worker) RunOnce(ctx context.Context) error {
	pending, err := w.store.ListUnvalidated(ctx)
	if err != nil {
		return fmt.Errorf("list unvalidated issues: %w", err)
	}

	for _, issue := range pending {
		id := issue.ID.Hex()
		res := Classify(issue.Description, issue.PhotoURL)

		log := w.logger.WithFields(logrus.Fields{
			"issue_id": id,
			"decision": res.Decision,
			"category": res.Category,
		})

		if err := w.store.SetValidation(ctx, id, store.Validation{
			IsAuthentic: res.Authentic,
			Confidence:  res.Confidence,
			Category:    res.Category,
		}); err != nil {
			log.WithError(err).Warn("Failed to persist validation verdict")
			continue
		}

		if err := w.audit.Record(ctx, models.AuditEntry{
			Actor:   "validation-worker",
			Action:  models.AuditAIValidated,
			IssueID: id,
			Detail:  fmt.Sprintf("%s (%s, confidence %.2f)", res.Decision, res.Category, res.Confidence),
		}); err != nil {
			log.WithError(err).Warn("Failed to record validation audit entry")
		}

		log.Info("Issue validated")
	}
	return nil
}
