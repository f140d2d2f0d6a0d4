package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	refreshKeyPrefix   = "refresh:"
	blacklistKeyPrefix = "blacklist:"
)

// SessionStore keeps refresh-token sessions and the access-token blacklist
type SessionStore interface {
	SaveRefresh(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error
	// ConsumeRefresh atomically reads and deletes a refresh session, which is
	// what makes rotation single-use. Returns ErrInvalidRefresh when the
	// session is unknown (already rotated, logged out, or expired).
	ConsumeRefresh(ctx context.Context, tokenID string) (uuid.UUID, error)
	DeleteRefresh(ctx context.Context, tokenID string) error
	BlacklistAccess(ctx context.Context, token string, ttl time.Duration) error
}

// RedisSessionStore implements SessionStore on redis
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) SaveRefresh(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error {
	return s.rdb.Set(ctx, refreshKeyPrefix+tokenID, userID.String(), ttl).Err()
}

func (s *RedisSessionStore) ConsumeRefresh(ctx context.Context, tokenID string) (uuid.UUID, error) {
	val, err := s.rdb.GetDel(ctx, refreshKeyPrefix+tokenID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrInvalidRefresh
		}
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrInvalidRefresh
	}
	return userID, nil
}

func (s *RedisSessionStore) DeleteRefresh(ctx context.Context, tokenID string) error {
	return s.rdb.Del(ctx, refreshKeyPrefix+tokenID).Err()
}

func (s *RedisSessionStore) BlacklistAccess(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, blacklistKeyPrefix+token, "revoked", ttl).Err()
}
