package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lifeline/internal/donor"
	"lifeline/internal/request"
	"lifeline/pkg/domain"
)

func TestScore(t *testing.T) {
	now := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
	daysAgo := func(n int) *time.Time {
		ts := now.AddDate(0, 0, -n)
		return &ts
	}

	tests := []struct {
		name  string
		donor donor.Donor
		req   request.BloodRequest
		want  float64
	}{
		{
			name:  "reliability alone",
			donor: donor.Donor{BloodType: domain.ONegative, ReliabilityScore: 4.2},
			req:   request.BloodRequest{BloodType: domain.OPositive, UrgencyLevel: domain.UrgencyNormal},
			want:  4.2,
		},
		{
			name:  "exact type bonus",
			donor: donor.Donor{BloodType: domain.OPositive, ReliabilityScore: 4.2},
			req:   request.BloodRequest{BloodType: domain.OPositive, UrgencyLevel: domain.UrgencyNormal},
			want:  14.2,
		},
		{
			name:  "experience below the cap",
			donor: donor.Donor{BloodType: domain.ABNegative, DonationCount: 4},
			req:   request.BloodRequest{BloodType: domain.ABPositive, UrgencyLevel: domain.UrgencyNormal},
			want:  2.0,
		},
		{
			name:  "experience capped",
			donor: donor.Donor{BloodType: domain.ABNegative, DonationCount: 40},
			req:   request.BloodRequest{BloodType: domain.ABPositive, UrgencyLevel: domain.UrgencyNormal},
			want:  5.0,
		},
		{
			name:  "rested donor on critical request",
			donor: donor.Donor{BloodType: domain.BNegative, LastDonation: daysAgo(150)},
			req:   request.BloodRequest{BloodType: domain.BPositive, UrgencyLevel: domain.UrgencyCritical},
			want:  3.0,
		},
		{
			name:  "recently rested donor misses the critical bonus",
			donor: donor.Donor{BloodType: domain.BNegative, LastDonation: daysAgo(120)},
			req:   request.BloodRequest{BloodType: domain.BPositive, UrgencyLevel: domain.UrgencyCritical},
			want:  0.0,
		},
		{
			name:  "never donated gets no critical bonus",
			donor: donor.Donor{BloodType: domain.BNegative},
			req:   request.BloodRequest{BloodType: domain.BPositive, UrgencyLevel: domain.UrgencyCritical},
			want:  0.0,
		},
		{
			name:  "rested donor on a non-critical request",
			donor: donor.Donor{BloodType: domain.BNegative, LastDonation: daysAgo(150)},
			req:   request.BloodRequest{BloodType: domain.BPositive, UrgencyLevel: domain.UrgencyUrgent},
			want:  0.0,
		},
		{
			name: "all components stack",
			donor: donor.Donor{
				BloodType:        domain.APositive,
				ReliabilityScore: 2.5,
				DonationCount:    6,
				LastDonation:     daysAgo(200),
			},
			req:  request.BloodRequest{BloodType: domain.APositive, UrgencyLevel: domain.UrgencyCritical},
			want: 10.0 + 2.5 + 3.0 + 3.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Score(&tc.donor, &tc.req, now), 1e-9)
		})
	}
}
