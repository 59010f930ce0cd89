package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ayush/task-manager/backend/internal/logger"
	"github.com/ayush/task-manager/backend/internal/models"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// UserBackend is the store a CachedUserStore reads through to.
type UserBackend interface {
	CreateUser(ctx context.Context, name, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, hashedPw string) error
}

// CachedUserStore caches public profiles returned by GetUserByID in Redis.
// Redis errors never fail a request; they are logged and the backend is
// used instead.
type CachedUserStore struct {
	UserBackend
	rdb *redis.Client
	ttl time.Duration
}

func NewCachedUserStore(backend UserBackend, rdb *redis.Client, ttl time.Duration) *CachedUserStore {
	return &CachedUserStore{UserBackend: backend, rdb: rdb, ttl: ttl}
}

func profileKey(id string) string { return "user:" + id }

func (s *CachedUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	log := logger.FromContext(ctx)

	raw, err := s.rdb.Get(ctx, profileKey(id)).Bytes()
	switch {
	case err == nil:
		var u models.User
		if jerr := json.Unmarshal(raw, &u); jerr == nil {
			return &u, nil
		}
		log.Warn("discarding corrupt cached profile", zap.String("user_id", id))
	case !errors.Is(err, redis.Nil):
		log.Warn("profile cache read failed", zap.String("user_id", id), zap.Error(err))
	}

	u, err := s.UserBackend.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Password = ""
	if b, jerr := json.Marshal(u); jerr == nil {
		if err := s.rdb.Set(ctx, profileKey(id), b, s.ttl).Err(); err != nil {
			log.Warn("profile cache write failed", zap.String("user_id", id), zap.Error(err))
		}
	}
	return u, nil
}

func (s *CachedUserStore) UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error) {
	u, err := s.UserBackend.UpdateProfile(ctx, id, name, email)
	s.invalidate(ctx, id)
	return u, err
}

func (s *CachedUserStore) UpdatePassword(ctx context.Context, id, hashedPw string) error {
	err := s.UserBackend.UpdatePassword(ctx, id, hashedPw)
	s.invalidate(ctx, id)
	return err
}

func (s *CachedUserStore) invalidate(ctx context.Context, id string) {
	if err := s.rdb.Del(ctx, profileKey(id)).Err(); err != nil {
		logger.FromContext(ctx).Warn("profile cache invalidate failed",
			zap.String("user_id", id), zap.Error(err))
	}
}
