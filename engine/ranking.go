package engine

import (
	"sort"
	"strings"

	"civicsync/models"
)

// SortKey selects the ordering for filtered lists. The zero value falls back
// to newest-first.
type SortKey string

const (
	SortCreatedAtAsc  SortKey = "createdAt_asc"
	SortCreatedAtDesc SortKey = "createdAt_desc"
	SortPriorityAsc   SortKey = "priority_asc"
	SortPriorityDesc  SortKey = "priority_desc"
	SortVotesAsc      SortKey = "votes_asc"
	SortVotesDesc     SortKey = "votes_desc"
	SortStatusAsc     SortKey = "status_asc"
	SortStatusDesc    SortKey = "status_desc"
)

// Filters holds the optional equality filters for list views. Empty fields
// pass everything through.
type Filters struct {
	Status     models.IssueStatus
	Priority   models.IssuePriority
	Department string
}

// SortForColumn returns the issues with the given status in canonical board
// order: priority rank descending, then vote count descending, then creation
// time descending. The input slice is never modified.
func SortForColumn(issues []models.IssueWithVotes, status models.IssueStatus) []models.IssueWithVotes {
	out := make([]models.IssueWithVotes, 0, len(issues))
	for _, iv := range issues {
		if iv.Status == status {
			out = append(out, iv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := models.PriorityRank(a.Priority), models.PriorityRank(b.Priority); ra != rb {
			return ra > rb
		}
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}

// FilterAndSort applies the equality filters, then orders by the single
// active sort key. Unknown keys behave like SortCreatedAtDesc.
func FilterAndSort(issues []models.IssueWithVotes, filters Filters, key SortKey) []models.IssueWithVotes {
	out := make([]models.IssueWithVotes, 0, len(issues))
	for _, iv := range issues {
		if filters.Status != "" && iv.Status != filters.Status {
			continue
		}
		if filters.Priority != "" && iv.Priority != filters.Priority {
			continue
		}
		if filters.Department != "" && iv.Department != filters.Department {
			continue
		}
		out = append(out, iv)
	}

	less := lessFunc(key)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func lessFunc(key SortKey) func(a, b models.IssueWithVotes) bool {
	switch key {
	case SortCreatedAtAsc:
		return func(a, b models.IssueWithVotes) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriorityAsc:
		return func(a, b models.IssueWithVotes) bool {
			return models.PriorityRank(a.Priority) < models.PriorityRank(b.Priority)
		}
	case SortPriorityDesc:
		return func(a, b models.IssueWithVotes) bool {
			return models.PriorityRank(a.Priority) > models.PriorityRank(b.Priority)
		}
	case SortVotesAsc:
		return func(a, b models.IssueWithVotes) bool { return a.Votes < b.Votes }
	case SortVotesDesc:
		return func(a, b models.IssueWithVotes) bool { return a.Votes > b.Votes }
	case SortStatusAsc:
		return func(a, b models.IssueWithVotes) bool {
			return strings.Compare(string(a.Status), string(b.Status)) < 0
		}
	case SortStatusDesc:
		return func(a, b models.IssueWithVotes) bool {
			return strings.Compare(string(a.Status), string(b.Status)) > 0
		}
	case SortCreatedAtDesc:
		fallthrough
	default:
		return func(a, b models.IssueWithVotes) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
}

// Paginate slices out the 1-based page [ (page-1)*size, page*size ). Pages
// past the end return an empty slice.
func Paginate(issues []models.IssueWithVotes, pageSize, pageNumber int) []models.IssueWithVotes {
	if pageSize < 1 || pageNumber < 1 {
		return []models.IssueWithVotes{}
	}
	start := (pageNumber - 1) * pageSize
	if start >= len(issues) {
		return []models.IssueWithVotes{}
	}
	end := start + pageSize
	if end > len(issues) {
		end = len(issues)
	}
	return issues[start:end]
}

// TotalPages is ceil(count/pageSize); callers clamp requested pages into
// [1, TotalPages].
func TotalPages(count, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}
