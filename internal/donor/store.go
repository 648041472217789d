package donor

import (
	"context"
	"time"

	"lifeline/pkg/domain"
)

// CandidateQuery is the coarse storage-level filter for donor searches.
// Precise gender-aware eligibility is re-checked in memory by the finder;
// this query only narrows the pool cheaply (see eligibility.ConservativeCutoffDays).
type CandidateQuery struct {
	// BloodTypes restricts to donors whose type can supply the request.
	BloodTypes []domain.BloodType
	// ExcludedIDs drops donors already associated with the request.
	ExcludedIDs []domain.DonorID
	// DonatedBefore keeps donors whose last donation is nil or at/before
	// this instant (the conservative cutoff applied uniformly to all genders).
	DonatedBefore time.Time
}

// Store reads donor projections and applies donation stat updates.
// Implementations return sentinel.ErrNotFound for missing donors.
type Store interface {
	FindByID(ctx context.Context, donorID domain.DonorID) (*Donor, error)
	// ListCandidates returns available, verified donors passing the coarse
	// filter, in stable id order.
	ListCandidates(ctx context.Context, q CandidateQuery) ([]*Donor, error)
	// ApplyDonationStats atomically records a completed donation
	// (last donation date, donation count, reliability bump).
	ApplyDonationStats(ctx context.Context, donorID domain.DonorID, donatedAt time.Time) (*Donor, error)
}
