// Package compat encodes ABO/Rh blood type compatibility as a fixed lookup
// table. The table is data, not derived logic, so it stays auditable against
// transfusion guidelines.
package compat

import "lifeline/pkg/domain"

// recipientsByDonor maps a donor's blood type to every recipient type it may
// supply. O- is the universal donor; AB+ the universal recipient; every type
// can at minimum supply itself.
var recipientsByDonor = map[domain.BloodType][]domain.BloodType{
	domain.ONegative: {
		domain.ONegative, domain.OPositive,
		domain.ANegative, domain.APositive,
		domain.BNegative, domain.BPositive,
		domain.ABNegative, domain.ABPositive,
	},
	domain.OPositive: {
		domain.OPositive, domain.APositive,
		domain.BPositive, domain.ABPositive,
	},
	domain.ANegative: {
		domain.ANegative, domain.APositive,
		domain.ABNegative, domain.ABPositive,
	},
	domain.APositive: {
		domain.APositive, domain.ABPositive,
	},
	domain.BNegative: {
		domain.BNegative, domain.BPositive,
		domain.ABNegative, domain.ABPositive,
	},
	domain.BPositive: {
		domain.BPositive, domain.ABPositive,
	},
	domain.ABNegative: {
		domain.ABNegative, domain.ABPositive,
	},
	domain.ABPositive: {
		domain.ABPositive,
	},
}

// compatible is the membership index derived once from recipientsByDonor.
var compatible = func() map[domain.BloodType]map[domain.BloodType]bool {
	idx := make(map[domain.BloodType]map[domain.BloodType]bool, len(recipientsByDonor))
	for donor, recipients := range recipientsByDonor {
		set := make(map[domain.BloodType]bool, len(recipients))
		for _, r := range recipients {
			set[r] = true
		}
		idx[donor] = set
	}
	return idx
}()

// IsCompatible reports whether a donor of the given type may donate to the
// given recipient type. Unknown types are simply not compatible with
// anything; they are not an error here (validation happens at the boundary).
func IsCompatible(donor, recipient domain.BloodType) bool {
	return compatible[donor][recipient]
}

// CompatibleRecipients returns the recipient types a donor may supply, empty
// for unmapped types.
func CompatibleRecipients(donor domain.BloodType) []domain.BloodType {
	recipients := recipientsByDonor[donor]
	out := make([]domain.BloodType, len(recipients))
	copy(out, recipients)
	return out
}

// CompatibleDonors returns the donor types that may supply the given
// recipient type. If the recipient type is unmapped the search degrades to
// exact-match-only rather than failing, keeping matching available for data
// recorded before a type was added to the table.
func CompatibleDonors(recipient domain.BloodType) []domain.BloodType {
	var donors []domain.BloodType
	for _, donor := range domain.BloodTypes() {
		if compatible[donor][recipient] {
			donors = append(donors, donor)
		}
	}
	if len(donors) == 0 {
		return []domain.BloodType{recipient}
	}
	return donors
}
