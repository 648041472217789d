package matching

import (
	"time"

	"lifeline/internal/donor"
	"lifeline/internal/request"
)

// Scoring weights. The result is a relative ranking value, not a probability;
// only its ordering matters.
const (
	exactTypeBonus        = 10.0
	experiencePerDonation = 0.5
	experienceCap         = 5.0
	restedCriticalBonus   = 3.0

	// restedThresholdDays: for CRITICAL requests, donors whose last donation
	// is comfortably past every gap window get a bonus: they are proven
	// donors who are well rested.
	restedThresholdDays = 120
)

// Score ranks a donor against a specific request. Higher is better. The
// score is additive: exact-type bonus, reliability pass-through, capped
// experience bonus, and a rested-donor bonus on critical requests.
func Score(d *donor.Donor, r *request.BloodRequest, now time.Time) float64 {
	score := 0.0

	if d.BloodType == r.BloodType {
		score += exactTypeBonus
	}

	score += d.ReliabilityScore

	experience := float64(d.DonationCount) * experiencePerDonation
	if experience > experienceCap {
		experience = experienceCap
	}
	score += experience

	if r.UrgencyLevel == urgencyCritical && d.LastDonation != nil {
		daysSince := int(now.Sub(*d.LastDonation).Hours() / 24)
		if daysSince > restedThresholdDays {
			score += restedCriticalBonus
		}
	}

	return score
}
