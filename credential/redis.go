package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the credential under a single Redis key. No TTL is set;
// the credential's own expiry governs its validity.
type RedisStore struct {
	redis redis.Cmdable
	key   string
}

// NewRedisStore returns a RedisStore using "<prefix>:<key>". An empty key
// selects [DefaultKey].
func NewRedisStore(client redis.Cmdable, prefix, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	if prefix != "" {
		key = prefix + ":" + key
	}
	return &RedisStore{redis: client, key: key}
}

// Key returns the Redis key in use.
func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Get(ctx context.Context) (string, bool, error) {
	val, err := s.redis.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
