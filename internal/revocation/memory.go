package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryLedger keeps revocations in in-process TTL caches. Suitable for
// development and single-instance deployments; entries are lost on restart,
// so long-lived refresh tokens revoked before a restart become valid again.
type MemoryLedger struct {
	tokens  *ttlcache.Cache[string, struct{}]
	cutoffs *ttlcache.Cache[int64, time.Time]

	// Guards the read-compare-write in RevokeAll.
	mu sync.Mutex
}

// NewMemoryLedger returns a ledger backed by in-process caches and starts
// their expiry loops.
func NewMemoryLedger() *MemoryLedger {
	tokens := ttlcache.New[string, struct{}](
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	cutoffs := ttlcache.New[int64, time.Time](
		ttlcache.WithDisableTouchOnHit[int64, time.Time](),
	)
	go tokens.Start()
	go cutoffs.Start()
	return &MemoryLedger{
		tokens:  tokens,
		cutoffs: cutoffs,
	}
}

// Stop halts the caches' expiry loops.
func (l *MemoryLedger) Stop() {
	l.tokens.Stop()
	l.cutoffs.Stop()
}

// Revoke stores a tombstone for the token until ttl has passed.
func (l *MemoryLedger) Revoke(_ context.Context, userID int64, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	l.tokens.Set(tokenKey(userID, jti), struct{}{}, ttl)
	return nil
}

// RevokeAll records the user's cutoff for ttl, keeping the later of two
// cutoffs. The entry expires once every token issued before the cutoff has
// expired on its own.
func (l *MemoryLedger) RevokeAll(_ context.Context, userID int64, cutoff time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if item := l.cutoffs.Get(userID); item != nil && !cutoff.After(item.Value()) {
		return nil
	}
	l.cutoffs.Set(userID, cutoff, ttl)
	return nil
}

// IsRevoked checks the token's tombstone first, then the user's cutoff.
func (l *MemoryLedger) IsRevoked(_ context.Context, userID int64, jti string, issuedAt time.Time) (bool, error) {
	if l.tokens.Has(tokenKey(userID, jti)) {
		return true, nil
	}
	item := l.cutoffs.Get(userID)
	if item == nil {
		return false, nil
	}
	return !issuedAt.After(item.Value()), nil
}
