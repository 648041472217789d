package domain

import dErrors "lifeline/pkg/domain-errors"

// UrgencyLevel classifies how quickly a blood request must be fulfilled.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "CRITICAL"
	UrgencyUrgent   UrgencyLevel = "URGENT"
	UrgencyNormal   UrgencyLevel = "NORMAL"
)

var validUrgencies = map[UrgencyLevel]bool{
	UrgencyCritical: true,
	UrgencyUrgent:   true,
	UrgencyNormal:   true,
}

// ParseUrgencyLevel constructs an UrgencyLevel from external input.
func ParseUrgencyLevel(s string) (UrgencyLevel, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "urgency level cannot be empty")
	}
	u := UrgencyLevel(s)
	if !u.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid urgency level")
	}
	return u, nil
}

func (u UrgencyLevel) IsValid() bool {
	return validUrgencies[u]
}

func (u UrgencyLevel) String() string {
	return string(u)
}
