// Package rbac resolves what a user may do inside an institution.
package rbac

import (
	"context"
	"errors"

	"ordayna/backend/internal/institution/domain"
)

var (
	// ErrNotMember is returned when the user has no (accepted) membership in
	// the institution. Handlers map it to 403.
	ErrNotMember = errors.New("not a member of this institution")
	// ErrNotAdmin is returned when the user is a member but not an admin.
	ErrNotAdmin = errors.New("institution admin required")
)

// MembershipGetter returns a user's membership in an institution. Implemented
// by the institution repository.
type MembershipGetter interface {
	GetMembership(ctx context.Context, institutionID, userID int64) (*domain.Membership, error)
}

// RequireMember ensures userID belongs to the institution. When
// acceptedOnly is true a pending invitation does not count. Returns the
// membership on success and ErrNotMember on failure.
func RequireMember(ctx context.Context, getter MembershipGetter, institutionID, userID int64, acceptedOnly bool) (*domain.Membership, error) {
	m, err := getter.GetMembership(ctx, institutionID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMember
	}
	if acceptedOnly && !m.Accepted {
		return nil, ErrNotMember
	}
	return m, nil
}

// RequireAdmin ensures userID is an accepted admin member of the
// institution. Returns ErrNotMember for outsiders and ErrNotAdmin for
// ordinary members.
func RequireAdmin(ctx context.Context, getter MembershipGetter, institutionID, userID int64) (*domain.Membership, error) {
	m, err := RequireMember(ctx, getter, institutionID, userID, true)
	if err != nil {
		return nil, err
	}
	if !m.Admin {
		return nil, ErrNotAdmin
	}
	return m, nil
}
