package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/pkg/domain"
)

var now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := now.AddDate(0, 0, -n)
	return &t
}

func TestComputeNeverDonated(t *testing.T) {
	for _, gender := range []domain.Gender{domain.GenderMale, domain.GenderFemale, domain.GenderOther} {
		res := Compute(nil, gender, now)
		assert.True(t, res.CanDonate, "gender %s", gender)
		assert.Zero(t, res.DaysRemaining)
		assert.Nil(t, res.DaysSinceDonation)
		assert.Nil(t, res.NextEligibleDate)
	}
}

func TestComputeGapPolicy(t *testing.T) {
	tests := []struct {
		name          string
		gender        domain.Gender
		daysSince     int
		wantCanDonate bool
		wantRemaining int
	}{
		{"male at 91 days is eligible", domain.GenderMale, 91, true, 0},
		{"male at exactly 90 days is eligible", domain.GenderMale, 90, true, 0},
		{"male at 89 days must wait one more day", domain.GenderMale, 89, false, 1},
		{"female at 90 days still waits", domain.GenderFemale, 90, false, 30},
		{"female at 120 days is eligible", domain.GenderFemale, 120, true, 0},
		{"female at 119 days must wait", domain.GenderFemale, 119, false, 1},
		{"other follows the 120-day rule", domain.GenderOther, 100, false, 20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Compute(daysAgo(tc.daysSince), tc.gender, now)
			assert.Equal(t, tc.wantCanDonate, res.CanDonate)
			assert.Equal(t, tc.wantRemaining, res.DaysRemaining)
			require.NotNil(t, res.DaysSinceDonation)
			assert.Equal(t, tc.daysSince, *res.DaysSinceDonation)
		})
	}
}

func TestComputeNextEligibleDate(t *testing.T) {
	last := daysAgo(30)
	res := Compute(last, domain.GenderMale, now)
	require.NotNil(t, res.NextEligibleDate)
	assert.Equal(t, last.AddDate(0, 0, MaleGapDays), *res.NextEligibleDate)

	// Once eligible the next-eligible date clears.
	res = Compute(daysAgo(200), domain.GenderFemale, now)
	assert.True(t, res.CanDonate)
	assert.Nil(t, res.NextEligibleDate)
}

// Monotonicity: as now advances, DaysRemaining never increases and CanDonate
// flips exactly at the gap boundary.
func TestComputeMonotonic(t *testing.T) {
	last := now.AddDate(0, 0, -1)
	prevRemaining := -1
	for day := 0; day <= 130; day++ {
		at := last.AddDate(0, 0, day)
		res := Compute(&last, domain.GenderFemale, at)
		if prevRemaining >= 0 {
			assert.LessOrEqual(t, res.DaysRemaining, prevRemaining, "day %d", day)
		}
		prevRemaining = res.DaysRemaining
		assert.Equal(t, day >= DefaultGapDays, res.CanDonate, "day %d", day)
	}
}

func TestRequiredGapDays(t *testing.T) {
	assert.Equal(t, 90, RequiredGapDays(domain.GenderMale))
	assert.Equal(t, 120, RequiredGapDays(domain.GenderFemale))
	assert.Equal(t, 120, RequiredGapDays(domain.GenderOther))
}
