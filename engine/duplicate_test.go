package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"civicsync/models"
)

func geoIssue(typ string, lat, lng float64) models.IssueWithVotes {
	iv := testIssue(typ, models.StatusRecent, models.PriorityLow, 0, time.Now())
	iv.Latitude = lat
	iv.Longitude = lng
	return iv
}

func TestIsDuplicateNearby(t *testing.T) {
	existing := []models.IssueWithVotes{
		geoIssue("pothole", 20.26863, 85.84302),
		geoIssue("streetlight", 20.26863, 85.84302),
	}

	t.Run("same type within threshold", func(t *testing.T) {
		assert.True(t, IsDuplicateNearby(existing, "pothole", 20.26860, 85.84300, DefaultDuplicateThreshold))
	})

	t.Run("different type is never a duplicate", func(t *testing.T) {
		assert.False(t, IsDuplicateNearby(existing, "garbage", 20.26863, 85.84302, DefaultDuplicateThreshold))
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		// Tuned threshold with a 3-4-5 triangle keeps the arithmetic exact,
		// so the comparison really exercises d == threshold.
		base := geoIssue("pothole", 0, 0)
		assert.True(t, IsDuplicateNearby([]models.IssueWithVotes{base}, "pothole", 3, 4, 5))
		assert.False(t, IsDuplicateNearby([]models.IssueWithVotes{base}, "pothole", 3, 4.0001, 5))
	})

	t.Run("empty collection", func(t *testing.T) {
		assert.False(t, IsDuplicateNearby(nil, "pothole", 0, 0, DefaultDuplicateThreshold))
	})
}
