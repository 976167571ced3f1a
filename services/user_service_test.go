package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mingyan/blogserver/cache"
	"github.com/mingyan/blogserver/utils"
)

var userColumns = []string{"id", "email", "password", "nickname", "created_at"}

func setupUserService(t *testing.T) (*UserService, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	gdb, mock := setupMockDB(t)

	mr := miniredis.RunT(t)
	store := cache.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	svc := NewUserService(gdb, cache.NewUserCache(store), cache.NewCodeStore(store))
	return svc, mock, mr
}

func TestLookupByIDColdReadWarmsBothKeys(t *testing.T) {
	svc, mock, mr := setupUserService(t)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "ann@example.com", "hash", "ann", now))

	user, err := svc.LookupByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ann", user.Nickname)

	assert.True(t, mr.Exists(cache.KeyByID(1)))
	assert.True(t, mr.Exists(cache.KeyByEmail("ann@example.com")))

	// Second read is served from cache: no further store expectations.
	again, err := svc.LookupByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, user.Email, again.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupByIDMissingUserNotCached(t *testing.T) {
	svc, mock, mr := setupUserService(t)

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := svc.LookupByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.False(t, mr.Exists(cache.KeyByID(42)))
}

func TestLookupByEmailCacheAside(t *testing.T) {
	svc, mock, mr := setupUserService(t)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(2, "bob@example.com", "hash", "bob", now))

	user, err := svc.LookupByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, uint(2), user.ID)
	assert.True(t, mr.Exists(cache.KeyByID(2)))
}

func TestLoginChecksCredentialAgainstStore(t *testing.T) {
	svc, mock, mr := setupUserService(t)
	now := time.Now()

	hash, err := utils.HashPassword("secret")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "ann@example.com", hash, "ann", now))

	user, err := svc.Login(context.Background(), "ann@example.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.True(t, mr.Exists(cache.KeyByID(1)))

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "ann@example.com", hash, "ann", now))

	user, err = svc.Login(context.Background(), "ann@example.com", "wrong")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, mock, _ := setupUserService(t)

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := svc.Login(context.Background(), "ghost@example.com", "secret")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestLogoutDropsBothCacheKeys(t *testing.T) {
	svc, _, mr := setupUserService(t)
	ctx := context.Background()

	require.NoError(t, svc.users.Put(ctx, &cache.UserSnapshot{ID: 1, Email: "ann@example.com", Nickname: "ann"}))
	require.True(t, mr.Exists(cache.KeyByID(1)))
	require.True(t, mr.Exists(cache.KeyByEmail("ann@example.com")))

	svc.Logout(ctx, 1, "ann@example.com")
	assert.False(t, mr.Exists(cache.KeyByID(1)))
	assert.False(t, mr.Exists(cache.KeyByEmail("ann@example.com")))
}

func TestCreateHashesPassword(t *testing.T) {
	svc, mock, _ := setupUserService(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	id, err := svc.Create(context.Background(), "new@example.com", "secret", "newbie")
	require.NoError(t, err)
	assert.Equal(t, uint(3), id)
}

func TestVerificationCodeRoundTrip(t *testing.T) {
	svc, _, _ := setupUserService(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveLoginCode(ctx, "ann@example.com", "123456"))
	assert.True(t, svc.VerifyLoginCode(ctx, "ann@example.com", "123456"))
	// Codes are single-use.
	assert.False(t, svc.VerifyLoginCode(ctx, "ann@example.com", "123456"))
}
