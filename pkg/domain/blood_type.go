package domain

import dErrors "lifeline/pkg/domain-errors"

// BloodType is one of the 8 ABO/Rh combinations.
//
// Usage: construct via ParseBloodType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type BloodType string

const (
	APositive  BloodType = "A_POSITIVE"
	ANegative  BloodType = "A_NEGATIVE"
	BPositive  BloodType = "B_POSITIVE"
	BNegative  BloodType = "B_NEGATIVE"
	ABPositive BloodType = "AB_POSITIVE"
	ABNegative BloodType = "AB_NEGATIVE"
	OPositive  BloodType = "O_POSITIVE"
	ONegative  BloodType = "O_NEGATIVE"
)

// validBloodTypes is the single source of truth for supported blood types.
var validBloodTypes = map[BloodType]bool{
	APositive:  true,
	ANegative:  true,
	BPositive:  true,
	BNegative:  true,
	ABPositive: true,
	ABNegative: true,
	OPositive:  true,
	ONegative:  true,
}

// BloodTypes lists all 8 supported types in a stable order.
func BloodTypes() []BloodType {
	return []BloodType{
		APositive, ANegative,
		BPositive, BNegative,
		ABPositive, ABNegative,
		OPositive, ONegative,
	}
}

// ParseBloodType constructs a BloodType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseBloodType(s string) (BloodType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "blood type cannot be empty")
	}
	t := BloodType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid blood type")
	}
	return t, nil
}

// IsValid checks if the blood type is one of the supported enum values.
func (t BloodType) IsValid() bool {
	return validBloodTypes[t]
}

// String returns the string representation of the blood type.
func (t BloodType) String() string {
	return string(t)
}
