// Package eligibility computes donation-eligibility windows.
//
// Eligibility is a pure function of (gender, last donation date, now); it must
// never consult mutable state beyond the donor record, so callers pass the
// reference time explicitly (typically requestcontext.Now).
package eligibility

import (
	"time"

	"lifeline/pkg/domain"
)

const (
	// MaleGapDays and DefaultGapDays are the minimum days between consecutive
	// donations. The 90-day rule applies only to donors recorded as MALE;
	// FEMALE and OTHER both get 120 days. Treating OTHER like FEMALE is the
	// current policy default, confirmed with coordination staff; change
	// RequiredGapDays if that policy moves.
	MaleGapDays    = 90
	DefaultGapDays = 120

	// ConservativeCutoffDays is the blanket cutoff the finder's storage-level
	// pre-filter uses regardless of gender. Donors past this cutoff are
	// fetched and then re-checked with the precise gender-aware rule, so
	// female donors between day 90 and 120 still appear in results (marked
	// ineligible and ranked last).
	ConservativeCutoffDays = 90
)

// Result describes a donor's standing against the gap policy at a point in
// time.
type Result struct {
	CanDonate         bool       `json:"can_donate"`
	DaysSinceDonation *int       `json:"days_since_donation,omitempty"`
	DaysRemaining     int        `json:"days_remaining"`
	RequiredGapDays   int        `json:"required_gap_days"`
	NextEligibleDate  *time.Time `json:"next_eligible_date,omitempty"`
}

// RequiredGapDays returns the minimum gap for the given gender.
func RequiredGapDays(gender domain.Gender) int {
	if gender == domain.GenderMale {
		return MaleGapDays
	}
	return DefaultGapDays
}

// Compute evaluates eligibility as of now. A nil lastDonation means the donor
// has never donated and is always eligible. Callers guarantee lastDonation is
// not in the future.
func Compute(lastDonation *time.Time, gender domain.Gender, now time.Time) Result {
	gap := RequiredGapDays(gender)
	if lastDonation == nil {
		return Result{
			CanDonate:       true,
			RequiredGapDays: gap,
		}
	}

	daysSince := int(now.Sub(*lastDonation).Hours() / 24)
	remaining := gap - daysSince
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		CanDonate:         remaining == 0,
		DaysSinceDonation: &daysSince,
		DaysRemaining:     remaining,
		RequiredGapDays:   gap,
	}
	if remaining > 0 {
		next := lastDonation.AddDate(0, 0, gap)
		res.NextEligibleDate = &next
	}
	return res
}
