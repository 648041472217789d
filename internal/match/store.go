package match

import (
	"context"

	"lifeline/pkg/domain"
)

// Store persists matches. Implementations return sentinel.ErrNotFound for
// missing matches and sentinel.ErrConflict for uniqueness or concurrent
// update violations.
type Store interface {
	// Create persists a new match. It fails with sentinel.ErrConflict when
	// the donor already has a match in an active status for the same
	// request; the store owns this check so the guard holds under
	// concurrent creates.
	Create(ctx context.Context, m *Match) error

	FindByID(ctx context.Context, matchID domain.MatchID) (*Match, error)

	ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*Match, error)

	// ActiveDonorIDs returns donors with an active-status match for the
	// request, for search exclusion.
	ActiveDonorIDs(ctx context.Context, requestID domain.RequestID) ([]domain.DonorID, error)

	// CountByRequestWithStatus counts the request's matches in the given
	// statuses.
	CountByRequestWithStatus(ctx context.Context, requestID domain.RequestID, statuses []Status) (int, error)

	// Execute runs validate-then-mutate while holding the per-match
	// exclusion boundary (mutex or row lock), so two concurrent transitions
	// on one match serialize.
	Execute(ctx context.Context, matchID domain.MatchID,
		validate func(*Match) error, mutate func(*Match)) (*Match, error)

	// Delete removes the match after validate passes under the same
	// exclusion boundary.
	Delete(ctx context.Context, matchID domain.MatchID, validate func(*Match) error) error
}
