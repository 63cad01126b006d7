// Package revocation tracks invalidated session tokens until they would have
// expired anyway. Entries are keyed by user and jti; a per-user cutoff
// invalidates every token issued at or before a point in time.
package revocation

import (
	"context"
	"time"
)

// Ledger records revoked session tokens. Implementations expire entries on
// their own once the underlying token lifetime has passed.
type Ledger interface {
	// Revoke marks a single token as revoked. ttl bounds how long the entry
	// must be kept: the remaining lifetime of the token.
	Revoke(ctx context.Context, userID int64, jti string, ttl time.Duration) error
	// RevokeAll invalidates every token of userID issued at or before cutoff.
	// ttl is the longest lifetime an outstanding token can still have.
	RevokeAll(ctx context.Context, userID int64, cutoff time.Time, ttl time.Duration) error
	// IsRevoked reports whether the token identified by jti, issued to userID
	// at issuedAt, has been revoked either directly or by a RevokeAll cutoff.
	IsRevoked(ctx context.Context, userID int64, jti string, issuedAt time.Time) (bool, error)
}
