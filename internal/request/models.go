// Package request exposes the read-side blood request projection. Requests
// are created by requesters through the intake app; the matching core reads
// them and marks them completed when enough matches finish.
package request

import (
	"time"

	"lifeline/pkg/domain"
)

// Status is the request's coarse lifecycle. Only the OPEN -> COMPLETED edge
// is driven from this service (by the match lifecycle's completion cascade);
// everything else belongs to the intake app.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// BloodRequest is the projection of a blood need used for matching.
type BloodRequest struct {
	ID            domain.RequestID    `json:"id"`
	BloodType     domain.BloodType    `json:"blood_type"`
	Location      string              `json:"location"`
	UrgencyLevel  domain.UrgencyLevel `json:"urgency_level"`
	UnitsRequired int                 `json:"units_required"`
	Status        Status              `json:"status"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

// IsOpen reports whether the request can still receive matches.
func (r *BloodRequest) IsOpen() bool {
	return r.Status == StatusOpen
}
