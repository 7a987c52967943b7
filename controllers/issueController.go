package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civicsync/engine"
	"civicsync/models"
	"civicsync/service"
	"civicsync/store"
)

// IssueController exposes the issue lifecycle over HTTP. All reads come from
// the service's local snapshot; mutations go through the service so the
// snapshot is refreshed before the response is written.
type IssueController struct {
	svc    *service.IssueService
	logger *logrus.Logger
}

func NewIssueController(svc *service.IssueService, logger *logrus.Logger) *IssueController {
	return &IssueController{svc: svc, logger: logger}
}

// CreateIssue handles a citizen submission. The duplicate flag in the
// response is advisory; a flagged submission is still created.
func (ic *IssueController) CreateIssue(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		Type        string  `json:"type" binding:"required,max=100"`
		Description string  `json:"description" binding:"required,max=1000"`
		Location    string  `json:"location" binding:"required,max=200"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		PhotoURL    string  `json:"photoUrl"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := ic.svc.Submit(c.Request.Context(), service.SubmitInput{
		Type:        input.Type,
		Description: input.Description,
		Location:    input.Location,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		PhotoURL:    input.PhotoURL,
	}, userID)
	if err != nil {
		ic.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"issue":           res.Issue,
		"duplicateLikely": res.DuplicateLikely,
	})
}

// GetBoard returns every status column in canonical order.
func (ic *IssueController) GetBoard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"board": ic.svc.Board()})
}

// GetAllIssues returns a filtered, sorted, paginated issue list.
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	filters, key, ok := ic.listParams(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	c.JSON(http.StatusOK, ic.svc.List(filters, key, page, limit))
}

// ExportIssues streams the filtered, sorted list as a CSV download.
func (ic *IssueController) ExportIssues(c *gin.Context) {
	filters, key, ok := ic.listParams(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("issues-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := ic.svc.ExportCSV(c.Writer, filters, key); err != nil {
		ic.logger.WithError(err).Error("CSV export failed mid-stream")
	}
}

// GetInsights returns aggregates over completed issues.
func (ic *IssueController) GetInsights(c *gin.Context) {
	c.JSON(http.StatusOK, ic.svc.Insights())
}

// RecentIssues returns the most recent issues for the map view.
func (ic *IssueController) RecentIssues(c *gin.Context) {
	limit := 19
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "19")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	c.JSON(http.StatusOK, ic.svc.RecentGeotagged(limit))
}

// GetIssue returns one issue with the caller's vote membership resolved.
func (ic *IssueController) GetIssue(c *gin.Context) {
	iv, err := ic.svc.GetIssue(c.Param("id"))
	if err != nil {
		ic.writeError(c, err)
		return
	}

	userHasVoted := false
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			userHasVoted = iv.HasVoted(id)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"issue":        iv,
		"userHasVoted": userHasVoted,
	})
}

// VoteOnIssue casts the caller's vote. Voting again is a no-op, not an error.
func (ic *IssueController) VoteOnIssue(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	already, votes, err := ic.svc.Vote(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		ic.writeError(c, err)
		return
	}

	message := "Vote cast successfully"
	if already {
		message = "Already voted"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      message,
		"votes":        votes,
		"userHasVoted": true,
	})
}

// AdvanceStatus moves an issue one step forward. An illegal step reports the
// unchanged status rather than failing.
func (ic *IssueController) AdvanceStatus(c *gin.Context) {
	ic.transition(c, ic.svc.AdvanceStatus)
}

// RevertStatus moves an issue one step backward.
func (ic *IssueController) RevertStatus(c *gin.Context) {
	ic.transition(c, ic.svc.RevertStatus)
}

func (ic *IssueController) transition(c *gin.Context, step func(ctx context.Context, issueID, actor string) (models.IssueStatus, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := step(c.Request.Context(), c.Param("id"), userID)
	if errors.Is(err, engine.ErrInvalidTransition) {
		c.JSON(http.StatusOK, gin.H{"status": status, "changed": false})
		return
	}
	if err != nil {
		ic.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "changed": true})
}

// UpdateIssue applies administrative field changes.
func (ic *IssueController) UpdateIssue(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		Priority   *string  `json:"priority,omitempty"`
		Department *string  `json:"department,omitempty"`
		Expense    *float64 `json:"expense,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := service.UpdateRequest{
		Department: input.Department,
		Expense:    input.Expense,
	}
	if input.Priority != nil {
		p, err := models.ParsePriority(*input.Priority)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.Priority = &p
	}

	if err := ic.svc.UpdateIssue(c.Request.Context(), c.Param("id"), req, userID); err != nil {
		ic.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue updated successfully"})
}

// DeleteIssue removes an issue and its votes.
func (ic *IssueController) DeleteIssue(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := ic.svc.DeleteIssue(c.Request.Context(), c.Param("id"), userID); err != nil {
		ic.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// listParams parses the shared filter and sort query parameters. "all" is
// accepted as an empty filter for both status and priority.
func (ic *IssueController) listParams(c *gin.Context) (engine.Filters, engine.SortKey, bool) {
	var filters engine.Filters

	if s := c.Query("status"); s != "" && s != "all" {
		status, err := models.ParseStatus(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return filters, "", false
		}
		filters.Status = status
	}
	if p := c.Query("priority"); p != "" && p != "all" {
		priority, err := models.ParsePriority(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return filters, "", false
		}
		filters.Priority = priority
	}
	filters.Department = c.Query("department")

	key := engine.SortKey(c.DefaultQuery("sort", string(engine.SortCreatedAtDesc)))
	return filters, key, true
}

func (ic *IssueController) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrIssueCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrVotingClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "Voting is closed for completed issues"})
	case errors.Is(err, store.ErrUnavailable):
		ic.logger.WithError(err).Error("Store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
	default:
		ic.logger.WithError(err).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

// currentUser extracts the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return "", false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return "", false
	}
	return id, true
}
