package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/domain"
)

const userCachePrefix = "user:name:"

// CachedUserRepository decorates a UserRepository with a Redis read-through
// cache on GetByUsername, the lookup the request gate performs on every
// authenticated request. Mutations invalidate the cached entry; cache
// failures degrade to the underlying repository.
type CachedUserRepository struct {
	inner  UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps the given repository.
func NewCachedUserRepository(inner UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *CachedUserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.inner.Create(ctx, user)
}

func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *CachedUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if r.client != nil {
		raw, err := r.client.Get(ctx, userCachePrefix+username).Bytes()
		if err == nil {
			var user domain.User
			if err := json.Unmarshal(raw, &user); err == nil {
				return &user, nil
			}
			r.logger.Warn("dropping undecodable user cache entry", zap.String("username", username))
			r.client.Del(ctx, userCachePrefix+username)
		} else if err != redis.Nil {
			r.logger.Debug("user cache read failed", zap.Error(err))
		}
	}

	user, err := r.inner.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	r.store(ctx, user)
	return user, nil
}

func (r *CachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.inner.List(ctx)
}

func (r *CachedUserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if err := r.inner.UpdateRole(ctx, id, role); err != nil {
		return err
	}
	r.invalidateByID(ctx, id)
	return nil
}

func (r *CachedUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := r.inner.UpdatePassword(ctx, id, passwordHash); err != nil {
		return err
	}
	r.invalidateByID(ctx, id)
	return nil
}

func (r *CachedUserRepository) Delete(ctx context.Context, id string) error {
	// Invalidate first: a row we can no longer load cannot be evicted after.
	r.invalidateByID(ctx, id)
	return r.inner.Delete(ctx, id)
}

func (r *CachedUserRepository) store(ctx context.Context, user *domain.User) {
	if r.client == nil || user == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, userCachePrefix+user.Username, raw, r.ttl).Err(); err != nil {
		r.logger.Debug("user cache write failed", zap.Error(err))
	}
}

func (r *CachedUserRepository) invalidateByID(ctx context.Context, id string) {
	if r.client == nil {
		return
	}
	user, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return
	}
	if err := r.client.Del(ctx, userCachePrefix+user.Username).Err(); err != nil {
		r.logger.Debug("user cache invalidation failed", zap.Error(err))
	}
}
