package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestUserCachePutWritesBothKeys(t *testing.T) {
	store, mr := setupStore(t)
	uc := NewUserCache(store)
	ctx := context.Background()

	snap := &UserSnapshot{ID: 1, Email: "ann@example.com", Nickname: "ann", CreatedAt: time.Now()}
	require.NoError(t, uc.Put(ctx, snap))

	assert.True(t, mr.Exists(KeyByID(1)))
	assert.True(t, mr.Exists(KeyByEmail("ann@example.com")))
	assert.Equal(t, IdentityTTL, mr.TTL(KeyByID(1)))
	assert.Equal(t, IdentityTTL, mr.TTL(KeyByEmail("ann@example.com")))

	byID, ok := uc.GetByID(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "ann", byID.Nickname)

	byEmail, ok := uc.GetByEmail(ctx, "ann@example.com")
	require.True(t, ok)
	assert.Equal(t, uint(1), byEmail.ID)
}

func TestUserCacheExpiry(t *testing.T) {
	store, mr := setupStore(t)
	uc := NewUserCache(store)
	ctx := context.Background()

	require.NoError(t, uc.Put(ctx, &UserSnapshot{ID: 1, Email: "a@b.c"}))
	mr.FastForward(IdentityTTL + time.Second)

	_, ok := uc.GetByID(ctx, 1)
	assert.False(t, ok)
}

func TestUserCacheCorruptEntryIsMiss(t *testing.T) {
	store, mr := setupStore(t)
	uc := NewUserCache(store)

	require.NoError(t, mr.Set(KeyByID(1), "{not json"))
	_, ok := uc.GetByID(context.Background(), 1)
	assert.False(t, ok)
}

func TestUserCacheInvalidateRemovesBothKeys(t *testing.T) {
	store, mr := setupStore(t)
	uc := NewUserCache(store)
	ctx := context.Background()

	require.NoError(t, uc.Put(ctx, &UserSnapshot{ID: 1, Email: "a@b.c"}))
	require.NoError(t, uc.Invalidate(ctx, 1, "a@b.c"))

	assert.False(t, mr.Exists(KeyByID(1)))
	assert.False(t, mr.Exists(KeyByEmail("a@b.c")))
}

func TestStoreNilSafe(t *testing.T) {
	var store *Store
	_, ok := store.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.NoError(t, store.Set(context.Background(), "k", []byte("v"), time.Minute))
	assert.NoError(t, store.Delete(context.Background(), "k"))
}
