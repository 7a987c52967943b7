package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"civicsync/models"
)

var rankingBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testIssue(typ string, status models.IssueStatus, priority models.IssuePriority, votes int64, createdAt time.Time) models.IssueWithVotes {
	return models.IssueWithVotes{
		Issue: models.Issue{
			ID:        primitive.NewObjectID(),
			Type:      typ,
			Status:    status,
			Priority:  priority,
			CreatedAt: createdAt,
		},
		Votes: votes,
	}
}

func TestSortForColumn_VotesBreakPriorityTie(t *testing.T) {
	a := testIssue("pothole", models.StatusQueue, models.PriorityUrgent, 2, rankingBase.Add(time.Hour))
	b := testIssue("pothole", models.StatusQueue, models.PriorityUrgent, 5, rankingBase)

	got := SortForColumn([]models.IssueWithVotes{a, b}, models.StatusQueue)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID, "higher votes must win inside equal priority")
	assert.Equal(t, a.ID, got[1].ID)
}

func TestSortForColumn_ThreeKeyOrdering(t *testing.T) {
	issues := []models.IssueWithVotes{
		testIssue("a", models.StatusRecent, models.PriorityLow, 9, rankingBase.Add(3*time.Hour)),
		testIssue("b", models.StatusRecent, models.PriorityUrgent, 0, rankingBase),
		testIssue("c", models.StatusRecent, models.PriorityMedium, 4, rankingBase.Add(time.Hour)),
		testIssue("d", models.StatusRecent, models.PriorityMedium, 4, rankingBase.Add(2*time.Hour)),
		testIssue("e", models.StatusQueue, models.PriorityUrgent, 100, rankingBase),
	}

	got := SortForColumn(issues, models.StatusRecent)
	require.Len(t, got, 4, "other statuses must be filtered out")

	for i := 0; i < len(got)-1; i++ {
		cur, next := got[i], got[i+1]
		curRank, nextRank := models.PriorityRank(cur.Priority), models.PriorityRank(next.Priority)
		assert.GreaterOrEqual(t, curRank, nextRank)
		if curRank == nextRank {
			assert.GreaterOrEqual(t, cur.Votes, next.Votes)
			if cur.Votes == next.Votes {
				assert.False(t, cur.CreatedAt.Before(next.CreatedAt))
			}
		}
	}
}

func TestSortForColumn_Deterministic(t *testing.T) {
	issues := []models.IssueWithVotes{
		testIssue("a", models.StatusQueue, models.PriorityLow, 1, rankingBase),
		testIssue("b", models.StatusQueue, models.PriorityUrgent, 3, rankingBase.Add(time.Minute)),
		testIssue("c", models.StatusQueue, models.PriorityMedium, 3, rankingBase.Add(2*time.Minute)),
	}

	first := SortForColumn(issues, models.StatusQueue)
	second := SortForColumn(issues, models.StatusQueue)
	assert.Equal(t, first, second)
}

func TestSortForColumn_DoesNotMutateInput(t *testing.T) {
	a := testIssue("a", models.StatusQueue, models.PriorityLow, 0, rankingBase)
	b := testIssue("b", models.StatusQueue, models.PriorityUrgent, 0, rankingBase)
	issues := []models.IssueWithVotes{a, b}

	_ = SortForColumn(issues, models.StatusQueue)
	assert.Equal(t, a.ID, issues[0].ID)
	assert.Equal(t, b.ID, issues[1].ID)
}

func TestFilterAndSort(t *testing.T) {
	pwd := "Public Works / Works Department (PWD)"
	water := "Water Resources Department"

	a := testIssue("a", models.StatusCompleted, models.PriorityLow, 1, rankingBase)
	a.Department = pwd
	b := testIssue("b", models.StatusCompleted, models.PriorityUrgent, 5, rankingBase.Add(time.Hour))
	b.Department = water
	c := testIssue("c", models.StatusInProgress, models.PriorityMedium, 3, rankingBase.Add(2*time.Hour))
	c.Department = pwd

	all := []models.IssueWithVotes{a, b, c}

	t.Run("no filters passes everything through", func(t *testing.T) {
		got := FilterAndSort(all, Filters{}, SortCreatedAtAsc)
		require.Len(t, got, 3)
		assert.Equal(t, a.ID, got[0].ID)
		assert.Equal(t, c.ID, got[2].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		got := FilterAndSort(all, Filters{Status: models.StatusCompleted}, SortCreatedAtDesc)
		require.Len(t, got, 2)
		assert.Equal(t, b.ID, got[0].ID)
	})

	t.Run("department and priority filters combine", func(t *testing.T) {
		got := FilterAndSort(all, Filters{Department: pwd, Priority: models.PriorityMedium}, SortCreatedAtDesc)
		require.Len(t, got, 1)
		assert.Equal(t, c.ID, got[0].ID)
	})

	t.Run("votes descending", func(t *testing.T) {
		got := FilterAndSort(all, Filters{}, SortVotesDesc)
		assert.Equal(t, b.ID, got[0].ID)
		assert.Equal(t, a.ID, got[2].ID)
	})

	t.Run("priority ascending", func(t *testing.T) {
		got := FilterAndSort(all, Filters{}, SortPriorityAsc)
		assert.Equal(t, a.ID, got[0].ID)
		assert.Equal(t, b.ID, got[2].ID)
	})

	t.Run("status lexical", func(t *testing.T) {
		got := FilterAndSort(all, Filters{}, SortStatusAsc)
		// "completed" < "inprogress" lexically
		assert.Equal(t, models.StatusCompleted, got[0].Status)
		assert.Equal(t, models.StatusInProgress, got[2].Status)
	})
}

func TestPaginate(t *testing.T) {
	issues := make([]models.IssueWithVotes, 23)
	for i := range issues {
		issues[i] = testIssue("a", models.StatusCompleted, models.PriorityLow, int64(i), rankingBase.Add(time.Duration(i)*time.Minute))
	}

	page1 := Paginate(issues, 10, 1)
	require.Len(t, page1, 10)
	assert.Equal(t, issues[0].ID, page1[0].ID)

	page3 := Paginate(issues, 10, 3)
	require.Len(t, page3, 3)
	assert.Equal(t, issues[20].ID, page3[0].ID)

	assert.Empty(t, Paginate(issues, 10, 4))
	assert.Empty(t, Paginate(issues, 10, 0))
	assert.Equal(t, 3, TotalPages(23, 10))
	assert.Equal(t, 0, TotalPages(10, 0))
}

func TestPaginate_CoversListExactlyOnce(t *testing.T) {
	for _, pageSize := range []int{1, 3, 10, 23, 50} {
		issues := make([]models.IssueWithVotes, 23)
		for i := range issues {
			issues[i] = testIssue("a", models.StatusRecent, models.PriorityLow, int64(i), rankingBase.Add(time.Duration(i)*time.Minute))
		}

		var joined []models.IssueWithVotes
		for page := 1; page <= TotalPages(len(issues), pageSize); page++ {
			joined = append(joined, Paginate(issues, pageSize, page)...)
		}
		require.Equal(t, issues, joined, "pageSize=%d", pageSize)
	}
}
