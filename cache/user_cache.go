package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// IdentityTTL bounds how long a cached identity snapshot may serve reads
// before the next lookup goes back to the relational store.
const IdentityTTL = 24 * time.Hour

// UserSnapshot is the cached identity record. It deliberately excludes the
// credential; password checks always go to the store.
type UserSnapshot struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCache implements the cache-aside policy for identity records: check
// first, populate from the source of truth on miss, never authoritative.
// Both lookup paths (by id and by email) are kept warm by every populate.
type UserCache struct {
	store *Store
}

// NewUserCache builds a UserCache over the primitive store.
func NewUserCache(store *Store) *UserCache {
	return &UserCache{store: store}
}

// KeyByID is the cache key for id lookups.
func KeyByID(id uint) string {
	return fmt.Sprintf("user:id:%d", id)
}

// KeyByEmail is the cache key for email lookups.
func KeyByEmail(email string) string {
	return "user:email:" + email
}

// GetByID returns the cached snapshot for a user id, or a miss.
func (c *UserCache) GetByID(ctx context.Context, id uint) (*UserSnapshot, bool) {
	return c.get(ctx, KeyByID(id))
}

// GetByEmail returns the cached snapshot for an email, or a miss.
func (c *UserCache) GetByEmail(ctx context.Context, email string) (*UserSnapshot, bool) {
	return c.get(ctx, KeyByEmail(email))
}

func (c *UserCache) get(ctx context.Context, key string) (*UserSnapshot, bool) {
	b, ok := c.store.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var snap UserSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		// A corrupt entry behaves like a miss; the store read rewrites it.
		return nil, false
	}
	return &snap, true
}

// Put writes the snapshot under both the by-id and the by-email key so
// either lookup path is warm afterwards. Failures are returned for logging
// but never block the caller's primary operation.
func (c *UserCache) Put(ctx context.Context, snap *UserSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, KeyByID(snap.ID), b, IdentityTTL); err != nil {
		return err
	}
	return c.store.Set(ctx, KeyByEmail(snap.Email), b, IdentityTTL)
}

// Invalidate removes both entries for a user.
func (c *UserCache) Invalidate(ctx context.Context, id uint, email string) error {
	return c.store.Delete(ctx, KeyByID(id), KeyByEmail(email))
}
