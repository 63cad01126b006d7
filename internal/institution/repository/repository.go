package repository

import (
	"context"

	"ordayna/backend/internal/institution/domain"
)

// Repository defines persistence for institutions and their memberships.
type Repository interface {
	// Create persists a new institution and makes adminUserID its first
	// accepted admin member, atomically.
	Create(ctx context.Context, name string, adminUserID int64) (*domain.Institution, error)
	// Delete removes the institution and, via cascade, everything scoped to it.
	Delete(ctx context.Context, id int64) error
	// ListForUser returns the institutions the user is a member of,
	// invitations included.
	ListForUser(ctx context.Context, userID int64) ([]domain.Institution, error)
	// GetMembership returns the user's membership row, or nil if none.
	GetMembership(ctx context.Context, institutionID, userID int64) (*domain.Membership, error)
	// Invite adds a not-yet-accepted membership.
	Invite(ctx context.Context, institutionID, userID int64) error
	// AcceptInvite marks the membership accepted.
	AcceptInvite(ctx context.Context, institutionID, userID int64) error
	// DeleteOrphaned removes institutions that no longer have any members.
	DeleteOrphaned(ctx context.Context) error
}
