package cache

import (
	"context"
	"time"
)

// TokenBlacklist revokes JWTs before their natural expiration to support
// logout semantics. Entries live exactly until the token would have expired.
type TokenBlacklist struct {
	store *Store
}

// NewTokenBlacklist builds a TokenBlacklist over the primitive store.
func NewTokenBlacklist(store *Store) *TokenBlacklist {
	return &TokenBlacklist{store: store}
}

func blacklistKey(token string) string {
	return "jwt:blacklist:" + token
}

// Revoke marks a token as unusable until it expires on its own.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.store.Set(ctx, blacklistKey(token), []byte("1"), ttl)
}

// Contains reports whether a token was revoked. On store errors it fails
// open to avoid locking every session out on a cache outage.
func (b *TokenBlacklist) Contains(ctx context.Context, token string) bool {
	_, ok := b.store.Get(ctx, blacklistKey(token))
	return ok
}
