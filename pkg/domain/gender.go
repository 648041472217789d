package domain

import dErrors "lifeline/pkg/domain-errors"

// Gender is the donor's recorded gender. The eligibility policy keys off it
// (see internal/eligibility), so it is an enum rather than free text.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

var validGenders = map[Gender]bool{
	GenderMale:   true,
	GenderFemale: true,
	GenderOther:  true,
}

// ParseGender constructs a Gender from external input.
func ParseGender(s string) (Gender, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "gender cannot be empty")
	}
	g := Gender(s)
	if !g.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid gender")
	}
	return g, nil
}

func (g Gender) IsValid() bool {
	return validGenders[g]
}

func (g Gender) String() string {
	return string(g)
}
