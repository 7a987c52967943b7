package engine

import (
	"math"

	"civicsync/models"
)

// DefaultDuplicateThreshold is the degree-space distance under which two
// same-type reports are treated as likely duplicates. Roughly 50m near the
// equator; deployments may tune it.
const DefaultDuplicateThreshold = 0.0005

// distanceApprox is a cheap planar approximation in degree-space, not a
// geodesic distance. The threshold is small enough that the distortion does
// not matter.
func distanceApprox(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := lat1 - lat2
	dLng := lng1 - lng2
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// IsDuplicateNearby flags a candidate (type, coordinates) submission when an
// existing issue of the same type lies within threshold. Distance exactly at
// the threshold counts as a duplicate. The flag is advisory only and never
// blocks submission.
func IsDuplicateNearby(issues []models.IssueWithVotes, issueType string, lat, lng, threshold float64) bool {
	for _, iv := range issues {
		if iv.Type != issueType {
			continue
		}
		if distanceApprox(iv.Latitude, iv.Longitude, lat, lng) <= threshold {
			return true
		}
	}
	return false
}
