package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicsync/reconciler"
	"civicsync/service"
	"civicsync/store"
)

type testEnv struct {
	router *gin.Engine
	mem    *store.Memory
	svc    *service.IssueService
}

// newTestEnv wires the controller against the in-memory store with a primed
// reconciler. The stub middleware stands in for JWT auth.
func newTestEnv(t *testing.T, userID, role string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	mem := store.NewMemory()
	rec := reconciler.New(mem, logger, time.Minute)
	_, err := rec.Refresh(context.Background())
	require.NoError(t, err)

	svc := service.NewIssueService(mem, mem, rec, logger)
	ic := NewIssueController(svc, logger)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
	})

	issue := r.Group("/api/issue")
	{
		issue.POST("/create", ic.CreateIssue)
		issue.GET("/board", ic.GetBoard)
		issue.GET("/list", ic.GetAllIssues)
		issue.GET("/export", ic.ExportIssues)
		issue.GET("/insights", ic.GetInsights)
		issue.GET("/recent", ic.RecentIssues)
		issue.GET("/:id", ic.GetIssue)
		issue.POST("/:id/vote", ic.VoteOnIssue)
		issue.POST("/:id/advance", ic.AdvanceStatus)
		issue.POST("/:id/revert", ic.RevertStatus)
		issue.PUT("/:id", ic.UpdateIssue)
		issue.DELETE("/:id", ic.DeleteIssue)
	}

	return &testEnv{router: r, mem: mem, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func createIssue(t *testing.T, e *testEnv, lat, lng float64) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/issue/create", gin.H{
		"type":        "pothole",
		"description": "deep pothole near the market gate",
		"location":    "Unit-1 Market",
		"latitude":    lat,
		"longitude":   lng,
		"photoUrl":    "https://img/1.jpg",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Issue struct {
			ID string `json:"id"`
		} `json:"issue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Issue.ID
}

func TestCreateIssue_FlagsDuplicate(t *testing.T) {
	e := newTestEnv(t, "user-1", "citizen")

	w := e.do(t, http.MethodPost, "/api/issue/create", gin.H{
		"type":        "pothole",
		"description": "deep pothole near the market gate",
		"location":    "Unit-1 Market",
		"latitude":    20.2686,
		"longitude":   85.8430,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"duplicateLikely":false`)

	w = e.do(t, http.MethodPost, "/api/issue/create", gin.H{
		"type":        "pothole",
		"description": "same pothole reported again",
		"location":    "Unit-1 Market",
		"latitude":    20.26861,
		"longitude":   85.8430,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"duplicateLikely":true`, "second nearby same-type report is flagged but still created")
}

func TestCreateIssue_MissingFields(t *testing.T) {
	e := newTestEnv(t, "user-1", "citizen")
	w := e.do(t, http.MethodPost, "/api/issue/create", gin.H{"type": "pothole"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteOnIssue_RepeatIsBenign(t *testing.T) {
	e := newTestEnv(t, "user-1", "citizen")
	id := createIssue(t, e, 20.30, 85.90)

	w := e.do(t, http.MethodPost, "/api/issue/"+id+"/vote", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"votes":1`)

	w = e.do(t, http.MethodPost, "/api/issue/"+id+"/vote", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Already voted")
	assert.Contains(t, w.Body.String(), `"votes":1`)
}

func TestVoteOnIssue_NotFound(t *testing.T) {
	e := newTestEnv(t, "user-1", "citizen")
	w := e.do(t, http.MethodPost, "/api/issue/000000000000000000000000/vote", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdvanceStatus_WalksLifecycle(t *testing.T) {
	e := newTestEnv(t, "admin-1", "admin")
	id := createIssue(t, e, 20.30, 85.90)

	for _, want := range []string{"queue", "inprogress", "completed"} {
		w := e.do(t, http.MethodPost, "/api/issue/"+id+"/advance", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"`+want+`"`)
		assert.Contains(t, w.Body.String(), `"changed":true`)
	}

	// Terminal: the handler reports the unchanged status, not an error.
	w := e.do(t, http.MethodPost, "/api/issue/"+id+"/advance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)
	assert.Contains(t, w.Body.String(), `"changed":false`)
}

func TestVoteOnCompletedIssue_Conflict(t *testing.T) {
	e := newTestEnv(t, "admin-1", "admin")
	id := createIssue(t, e, 20.30, 85.90)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/issue/"+id+"/advance", nil).Code)
	}

	w := e.do(t, http.MethodPost, "/api/issue/"+id+"/vote", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateIssue_CompletedFrozen(t *testing.T) {
	e := newTestEnv(t, "admin-1", "admin")
	id := createIssue(t, e, 20.30, 85.90)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/issue/"+id+"/advance", nil).Code)
	}

	w := e.do(t, http.MethodPut, "/api/issue/"+id, gin.H{"priority": "urgent"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateIssue_InvalidPriority(t *testing.T) {
	e := newTestEnv(t, "admin-1", "admin")
	id := createIssue(t, e, 20.30, 85.90)

	w := e.do(t, http.MethodPut, "/api/issue/"+id, gin.H{"priority": "critical"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAllIssues_PaginationEnvelope(t *testing.T) {
	e := newTestEnv(t, "user-1", "citizen")
	for i := 0; i < 12; i++ {
		createIssue(t, e, 20.0+float64(i), 85.0)
	}

	w := e.do(t, http.MethodGet, "/api/issue/list?page=2&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Issues      []json.RawMessage `json:"issues"`
		TotalIssues int               `json:"totalIssues"`
		TotalPages  int               `json:"totalPages"`
		CurrentPage int               `json:"currentPage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Issues, 2)
	assert.Equal(t, 12, resp.TotalIssues)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 2, resp.CurrentPage)
}

func TestGetAllIssues_InvalidStatusFilter(t *testing.T) {
	e := newTestEnv(t, "user-1", "citizen")
	w := e.do(t, http.MethodGet, "/api/issue/list?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportIssues_CSVDownload(t *testing.T) {
	e := newTestEnv(t, "user-1", "citizen")
	createIssue(t, e, 20.30, 85.90)

	w := e.do(t, http.MethodGet, "/api/issue/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], `"ID","Type"`))
}

func TestGetBoard_AllColumnsPresent(t *testing.T) {
	e := newTestEnv(t, "user-1", "citizen")
	createIssue(t, e, 20.30, 85.90)

	w := e.do(t, http.MethodGet, "/api/issue/board", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Board map[string][]json.RawMessage `json:"board"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Board, 4)
	assert.Len(t, resp.Board["recent"], 1)
	assert.Empty(t, resp.Board["completed"])
}

func TestDeleteIssue_RemovesFromSnapshot(t *testing.T) {
	e := newTestEnv(t, "admin-1", "admin")
	id := createIssue(t, e, 20.30, 85.90)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodDelete, "/api/issue/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/issue/"+id, nil).Code)
}
