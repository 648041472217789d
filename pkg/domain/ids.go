// Package domain holds shared domain primitives: typed identifiers and the
// enumerated values (blood type, gender, urgency) the matching core reasons
// about. Construct enums via the Parse* functions at trust boundaries; direct
// casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "lifeline/pkg/domain-errors"
)

// Typed UUIDs prevent accidentally passing a donor id where a request id is
// expected. The zero value means "not set".
type (
	DonorID   uuid.UUID
	RequestID uuid.UUID
	MatchID   uuid.UUID
	UserID    uuid.UUID
)

func (id DonorID) String() string   { return uuid.UUID(id).String() }
func (id RequestID) String() string { return uuid.UUID(id).String() }
func (id MatchID) String() string   { return uuid.UUID(id).String() }
func (id UserID) String() string    { return uuid.UUID(id).String() }

func (id DonorID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id MatchID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }

func NewDonorID() DonorID     { return DonorID(uuid.New()) }
func NewRequestID() RequestID { return RequestID(uuid.New()) }
func NewMatchID() MatchID     { return MatchID(uuid.New()) }

// The defined types above do not inherit uuid.UUID's marshaling methods, so
// each implements encoding.TextMarshaler explicitly to serialize as the
// canonical UUID string instead of a byte array.

func (id DonorID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id MatchID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *DonorID) UnmarshalText(b []byte) error {
	parsed, err := ParseDonorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RequestID) UnmarshalText(b []byte) error {
	parsed, err := ParseRequestID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *MatchID) UnmarshalText(b []byte) error {
	parsed, err := ParseMatchID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseDonorID constructs a DonorID from external input.
func ParseDonorID(s string) (DonorID, error) {
	u, err := parseUUID(s, "invalid donor id")
	return DonorID(u), err
}

// ParseRequestID constructs a RequestID from external input.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "invalid request id")
	return RequestID(u), err
}

// ParseMatchID constructs a MatchID from external input.
func ParseMatchID(s string) (MatchID, error) {
	u, err := parseUUID(s, "invalid match id")
	return MatchID(u), err
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "invalid user id")
	return UserID(u), err
}

// parseUUID rejects malformed input and the nil UUID. An all-zero id from a
// caller is always a bug, not a reference to anything.
func parseUUID(s, message string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, message)
	}
	return u, nil
}
