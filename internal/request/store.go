package request

import (
	"context"
	"time"

	"lifeline/pkg/domain"
)

// Store reads blood request projections and records completion.
// Implementations return sentinel.ErrNotFound for missing requests.
type Store interface {
	FindByID(ctx context.Context, requestID domain.RequestID) (*BloodRequest, error)
	// MarkCompleted sets the request status to COMPLETED with the given
	// completion time. Completing an already-completed request is a no-op so
	// the cascade stays idempotent.
	MarkCompleted(ctx context.Context, requestID domain.RequestID, at time.Time) (*BloodRequest, error)
}
