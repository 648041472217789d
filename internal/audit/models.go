// Package audit records match-coordination events for compliance review.
// Matching decisions affect medical outcomes, so every lifecycle mutation
// leaves a trail: who acted, on which match, and what changed.
package audit

import "time"

// EventType names an auditable action.
type EventType string

const (
	EventMatchCreated       EventType = "match.created"
	EventMatchStatusChanged EventType = "match.status_changed"
	EventMatchDeleted       EventType = "match.deleted"
	EventRequestCompleted   EventType = "request.completed"
)

// Event is one audit record. IDs are strings so the event schema stays
// stable for downstream consumers regardless of internal id types.
type Event struct {
	Type       EventType `json:"type"`
	MatchID    string    `json:"match_id,omitempty"`
	DonorID    string    `json:"donor_id,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
