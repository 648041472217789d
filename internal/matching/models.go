// Package matching ranks candidate donors for a blood request. It combines
// the compatibility graph, the eligibility calculator, the distance
// estimator, and the candidate scorer into one deterministic search.
package matching

import (
	"lifeline/internal/donor"
	"lifeline/internal/eligibility"
	"lifeline/pkg/domain"
)

const urgencyCritical = domain.UrgencyCritical

// Defaults for search parameters when the caller leaves them unset.
const (
	DefaultMaxDistanceKm = 50.0
	DefaultLimit         = 20
)

// RankedDonor is one search result: the donor plus everything the
// coordinator needs to pick one (distance, precise eligibility, score).
type RankedDonor struct {
	Donor       *donor.Donor       `json:"donor"`
	DistanceKm  float64            `json:"distance_km"`
	Score       float64            `json:"score"`
	Eligibility eligibility.Result `json:"eligibility"`
}

// Params narrows a donor search.
type Params struct {
	MaxDistanceKm float64
	Limit         int
	// ExcludedDonorIDs holds donors already associated with the request.
	ExcludedDonorIDs []domain.DonorID
}

func (p Params) withDefaults() Params {
	if p.MaxDistanceKm <= 0 {
		p.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}
