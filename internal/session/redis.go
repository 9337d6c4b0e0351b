package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"education-service/pkg/cache"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions as JSON documents in Redis so several service
// replicas can share flow state. Sessions expire after TTL to reap
// abandoned flows.
type RedisStore struct {
	cache *cache.RedisClient
	ttl   time.Duration
}

func NewRedisStore(cacheClient *cache.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: cacheClient, ttl: ttl}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("edu:session:%d", userID)
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (*Session, error) {
	raw, err := s.cache.Get(ctx, sessionKey(userID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, userID int64, sess *Session) error {
	body, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKey(userID), body, s.ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.cache.Delete(ctx, sessionKey(userID)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
