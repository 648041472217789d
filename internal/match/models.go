// Package match owns the donor-request match record and its lifecycle. The
// transition table below is the single authority for status changes; every
// entry point (create, update, delete) goes through it.
package match

import (
	"time"

	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// Status is a match's coordination state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusContacted Status = "CONTACTED"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusContacted: true,
	StatusAccepted:  true,
	StatusRejected:  true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// allowedTransitions is the authoritative edge set. REJECTED, COMPLETED and
// CANCELLED are terminal; transitions never skip or reverse an edge.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusContacted, StatusCancelled},
	StatusContacted: {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:  {StatusCompleted, StatusCancelled},
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := Status(s)
	if !validStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid match status")
	}
	return st, nil
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether the edge s -> next exists.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing edges.
func (s Status) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0 && validStatuses[s]
}

// IsActive reports whether the match still occupies the donor for this
// request (used for duplicate-match exclusion).
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusContacted || s == StatusAccepted
}

// ActiveStatuses lists the non-terminal statuses in a stable order.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusContacted, StatusAccepted}
}

// Match tracks the coordination between one donor and one blood request.
type Match struct {
	ID        domain.MatchID   `json:"id"`
	DonorID   domain.DonorID   `json:"donor_id"`
	RequestID domain.RequestID `json:"request_id"`
	Status    Status           `json:"status"`
	Notes     string           `json:"notes,omitempty"`
	CreatedBy domain.UserID    `json:"created_by"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ContactedAt *time.Time `json:"contacted_at,omitempty"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Version guards concurrent transitions; the postgres store bumps it on
	// every mutation inside the row lock.
	Version int `json:"-"`
}

// NewMatch creates a PENDING match.
func NewMatch(donorID domain.DonorID, requestID domain.RequestID, notes string, createdBy domain.UserID, now time.Time) *Match {
	return &Match{
		ID:        domain.NewMatchID(),
		DonorID:   donorID,
		RequestID: requestID,
		Status:    StatusPending,
		Notes:     notes,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanTransitionTo validates the requested edge. Use with ApplyTransition in
// store Execute callbacks.
func (m *Match) CanTransitionTo(next Status) error {
	if !validStatuses[next] {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid match status")
	}
	if !m.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"cannot transition match from "+m.Status.String()+" to "+next.String())
	}
	return nil
}

// ApplyTransition moves the match along a validated edge, stamping the
// transition's timestamp field. Call CanTransitionTo first.
func (m *Match) ApplyTransition(next Status, notes string, now time.Time) {
	m.Status = next
	m.UpdatedAt = now
	if notes != "" {
		m.Notes = notes
	}
	stamp := now
	switch next {
	case StatusContacted:
		m.ContactedAt = &stamp
	case StatusAccepted:
		m.AcceptedAt = &stamp
	case StatusRejected:
		m.RejectedAt = &stamp
	case StatusCompleted:
		m.CompletedAt = &stamp
	}
}

// CanDelete enforces the deletion rule: only matches that never progressed
// (PENDING) or were called off (CANCELLED) may be removed.
func (m *Match) CanDelete() error {
	if m.Status == StatusPending || m.Status == StatusCancelled {
		return nil
	}
	return dErrors.New(dErrors.CodeConflict,
		"cannot delete match in status "+m.Status.String())
}
