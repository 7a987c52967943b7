package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"civicsync/models"
)

func TestComputeInsights(t *testing.T) {
	pwd := "Public Works / Works Department (PWD)"
	water := "Water Resources Department"

	done1 := testIssue("a", models.StatusCompleted, models.PriorityUrgent, 0, time.Now())
	done1.Department = pwd
	done1.Expense = 500
	done2 := testIssue("b", models.StatusCompleted, models.PriorityLow, 0, time.Now())
	done2.Department = pwd
	done2.Expense = 250
	done3 := testIssue("c", models.StatusCompleted, models.PriorityLow, 0, time.Now())
	done3.Department = water
	done3.Expense = 100
	open := testIssue("d", models.StatusQueue, models.PriorityUrgent, 0, time.Now())
	open.Expense = 9999

	ins := ComputeInsights([]models.IssueWithVotes{done1, done2, done3, open})
	assert.Equal(t, 3, ins.CompletedCount)
	assert.Equal(t, 850.0, ins.TotalSpending)
	assert.Equal(t, pwd, ins.TopDepartment)
	assert.Equal(t, 2, ins.ByPriority[models.PriorityLow])
	assert.Equal(t, 1, ins.ByPriority[models.PriorityUrgent])
	assert.Equal(t, 0, ins.ByPriority[models.PriorityMedium])
}

func TestComputeInsights_Empty(t *testing.T) {
	ins := ComputeInsights(nil)
	assert.Zero(t, ins.CompletedCount)
	assert.Equal(t, "None", ins.TopDepartment)
}
