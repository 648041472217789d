// Package donor exposes the read-side donor projection the matching core
// consumes. Donor records are created and edited by the registration app;
// this service only reads them and, when a match completes, applies the
// donation stat update.
package donor

import (
	"time"

	"lifeline/pkg/domain"
)

// Donor is the projection of a registered donor used for matching.
type Donor struct {
	ID               domain.DonorID   `json:"id"`
	BloodType        domain.BloodType `json:"blood_type"`
	Gender           domain.Gender    `json:"gender"`
	Area             string           `json:"area"`
	IsAvailable      bool             `json:"is_available"`
	IsVerified       bool             `json:"is_verified"`
	LastDonation     *time.Time       `json:"last_donation,omitempty"`
	DonationCount    int              `json:"donation_count"`
	ReliabilityScore float64          `json:"reliability_score"`
}

// ApplyDonation records a completed donation: stamps the donation date,
// bumps the count, and rewards reliability. The reliability bump has no
// ceiling; the score is a relative ranking input, not a bounded rating.
func (d *Donor) ApplyDonation(at time.Time) {
	donated := at
	d.LastDonation = &donated
	d.DonationCount++
	d.ReliabilityScore += ReliabilityBumpPerDonation
}

// ReliabilityBumpPerDonation is added to a donor's reliability score each
// time one of their matches completes.
const ReliabilityBumpPerDonation = 0.1
