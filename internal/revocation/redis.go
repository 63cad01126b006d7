package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger stores revocations in Redis so they survive restarts and are
// shared between replicas. Entries carry a TTL and disappear once the token
// they block could no longer be presented.
type RedisLedger struct {
	client *redis.Client
}

// NewRedisLedger returns a ledger backed by the given Redis client.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func tokenKey(userID int64, jti string) string {
	return fmt.Sprintf("revoked:%d:%s", userID, jti)
}

func cutoffKey(userID int64) string {
	return fmt.Sprintf("revoked_all:%d", userID)
}

// Revoke writes a tombstone for the token that lives no longer than ttl.
func (l *RedisLedger) Revoke(ctx context.Context, userID int64, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing left to block
	}
	return l.client.Set(ctx, tokenKey(userID, jti), "1", ttl).Err()
}

// RevokeAll records a per-user cutoff. A later cutoff replaces an earlier
// one; an earlier cutoff never overwrites a later one.
func (l *RedisLedger) RevokeAll(ctx context.Context, userID int64, cutoff time.Time, ttl time.Duration) error {
	key := cutoffKey(userID)
	prev, err := l.client.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if err == nil {
		if existing, perr := strconv.ParseInt(prev, 10, 64); perr == nil && existing >= cutoff.Unix() {
			return nil
		}
	}
	return l.client.Set(ctx, key, strconv.FormatInt(cutoff.Unix(), 10), ttl).Err()
}

// IsRevoked checks the token's tombstone first, then the user's cutoff.
func (l *RedisLedger) IsRevoked(ctx context.Context, userID int64, jti string, issuedAt time.Time) (bool, error) {
	_, err := l.client.Get(ctx, tokenKey(userID, jti)).Result()
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, redis.Nil) {
		return false, err
	}

	raw, err := l.client.Get(ctx, cutoffKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, err
	}
	return issuedAt.Unix() <= cutoff, nil
}
