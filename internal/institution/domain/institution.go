package domain

import (
	"errors"
	"time"
)

// Institution is a school tenant. All school data is scoped to one.
type Institution struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Membership ties a user to an institution. An invitation is a membership
// with Accepted false; it grants nothing until accepted.
type Membership struct {
	InstitutionID int64
	UserID        int64
	Accepted      bool
	Admin         bool
	CreatedAt     time.Time
}

var ErrInvalidName = errors.New("invalid institution name")

const MaxNameLen = 200

// ValidateName checks an institution name: non-empty, at most 200 chars.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLen {
		return ErrInvalidName
	}
	return nil
}
