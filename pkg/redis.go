package pkg

import (
	"context"
	"errors"
	"time"

	"docgen/internal/source"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 5 * time.Second

// RedisStore is a byte cache on a Redis client. It satisfies source.Store.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get retrieves a value; a missing key is reported as source.ErrCacheMiss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, key).Bytes()
	if IsRedisNil(err) {
		return nil, source.ErrCacheMiss
	}
	return data, err
}

// Set stores a value with a TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	return s.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a key from Redis.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	return s.client.Del(ctx, key).Err()
}

// IsRedisNil returns true if the error is a redis key-not-found error.
func IsRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

var _ source.Store = (*RedisStore)(nil)
