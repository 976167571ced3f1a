package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mingyan/blogserver/cache"
	"github.com/mingyan/blogserver/models"
	"github.com/mingyan/blogserver/utils"
)

// UserService serves identity reads and writes. Reads go through the
// cache-aside store; the relational store stays the source of truth and
// negative results are never cached.
type UserService struct {
	db    *gorm.DB
	users *cache.UserCache
	codes *cache.CodeStore
}

// NewUserService wires the service to its store handle and caches.
func NewUserService(db *gorm.DB, users *cache.UserCache, codes *cache.CodeStore) *UserService {
	return &UserService{db: db, users: users, codes: codes}
}

func snapshot(u *models.User) *cache.UserSnapshot {
	return &cache.UserSnapshot{
		ID:        u.ID,
		Email:     u.Email,
		Nickname:  u.Nickname,
		CreatedAt: u.CreatedAt,
	}
}

// warm populates both cache keys for a user; failures only cost the next
// read a store round trip.
func (s *UserService) warm(ctx context.Context, snap *cache.UserSnapshot) {
	if err := s.users.Put(ctx, snap); err != nil {
		utils.Sugar.Warnf("identity cache populate failed for user %d: %v", snap.ID, err)
	}
}

// Login verifies a credential against the stored bcrypt hash. A wrong email
// or password both yield (nil, nil). A successful login refreshes both
// identity cache entries.
func (s *UserService) Login(ctx context.Context, email, password string) (*cache.UserSnapshot, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !utils.CheckPassword(u.Password, password) {
		return nil, nil
	}
	snap := snapshot(&u)
	s.warm(ctx, snap)
	return snap, nil
}

// LookupByID is a cache-aside identity read by user id.
func (s *UserService) LookupByID(ctx context.Context, id uint) (*cache.UserSnapshot, error) {
	if snap, ok := s.users.GetByID(ctx, id); ok {
		return snap, nil
	}
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	snap := snapshot(&u)
	s.warm(ctx, snap)
	return snap, nil
}

// LookupByEmail is a cache-aside identity read by email.
func (s *UserService) LookupByEmail(ctx context.Context, email string) (*cache.UserSnapshot, error) {
	if snap, ok := s.users.GetByEmail(ctx, email); ok {
		return snap, nil
	}
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	snap := snapshot(&u)
	s.warm(ctx, snap)
	return snap, nil
}

// LookupByEmailOrNickname returns whichever user matches either value, used
// by registration to reject duplicates. Always a store read: the result can
// match on nickname, which the cache is not keyed by.
func (s *UserService) LookupByEmailOrNickname(ctx context.Context, email, nickname string) (*cache.UserSnapshot, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ? OR nickname = ?", email, nickname).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return snapshot(&u), nil
}

// Create inserts a user with a bcrypt credential and returns the new id.
func (s *UserService) Create(ctx context.Context, email, password, nickname string) (uint, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return 0, err
	}
	u := models.User{Email: email, Password: hash, Nickname: nickname}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return 0, err
	}
	return u.ID, nil
}

// Logout drops both identity cache entries. Invalidation is best-effort: a
// cache failure is logged and logout still succeeds.
func (s *UserService) Logout(ctx context.Context, id uint, email string) {
	if err := s.users.Invalidate(ctx, id, email); err != nil {
		utils.Sugar.Warnf("identity cache invalidate failed for user %d: %v", id, err)
	}
}

// SaveLoginCode stores an emailed verification code for five minutes.
func (s *UserService) SaveLoginCode(ctx context.Context, email, code string) error {
	return s.codes.Save(ctx, email, code)
}

// VerifyLoginCode checks and consumes a verification code.
func (s *UserService) VerifyLoginCode(ctx context.Context, email, code string) bool {
	return s.codes.VerifyAndConsume(ctx, email, code)
}
