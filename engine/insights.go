package engine

import "civicsync/models"

// Insights aggregates completed work for the community and admin panels.
type Insights struct {
	CompletedCount int                          `json:"completedCount"`
	TotalSpending  float64                      `json:"totalSpending"`
	TopDepartment  string                       `json:"topDepartment"`
	ByPriority     map[models.IssuePriority]int `json:"byPriority"`
}

// ComputeInsights walks the snapshot once and tallies completed issues.
// TopDepartment is "None" when nothing has completed yet.
func ComputeInsights(issues []models.IssueWithVotes) Insights {
	ins := Insights{
		TopDepartment: "None",
		ByPriority: map[models.IssuePriority]int{
			models.PriorityLow:       0,
			models.PriorityMedium:    0,
			models.PriorityImmediate: 0,
			models.PriorityUrgent:    0,
		},
	}

	deptCounts := make(map[string]int)
	for _, iv := range issues {
		if iv.Status != models.StatusCompleted {
			continue
		}
		ins.CompletedCount++
		ins.TotalSpending += iv.Expense
		ins.ByPriority[iv.Priority]++
		if iv.Department != "" {
			deptCounts[iv.Department]++
		}
	}

	best := 0
	for dept, n := range deptCounts {
		if n > best || (n == best && best > 0 && dept < ins.TopDepartment) {
			best = n
			ins.TopDepartment = dept
		}
	}
	return ins
}
