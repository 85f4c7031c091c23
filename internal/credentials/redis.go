// ABOUTME: Token cache backed by Redis using go-redis v9
// ABOUTME: Relies on Redis key expiry; keys are namespaced per chat

package credentials

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces token keys so a shared Redis can host other data.
const redisKeyPrefix = "dinerbot:token:"

// RedisCache stores tokens as Redis strings with a TTL.
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache parses a redis:// URL and verifies connectivity.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func redisKey(chatID int64) string {
	return redisKeyPrefix + strconv.FormatInt(chatID, 10)
}

// Put stores the token with a millisecond-precision TTL.
func (r *RedisCache) Put(ctx context.Context, chatID int64, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Redis treats 0 as "no expiry"; an already-expired token must not be stored.
		return r.Forget(ctx, chatID)
	}
	if err := r.client.Set(ctx, redisKey(chatID), token, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

// Get returns the token; Redis has already dropped expired keys.
func (r *RedisCache) Get(ctx context.Context, chatID int64) (string, bool, error) {
	token, err := r.client.Get(ctx, redisKey(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: get: %w", err)
	}
	return token, true, nil
}

// Forget deletes the key.
func (r *RedisCache) Forget(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, redisKey(chatID)).Err(); err != nil {
		return fmt.Errorf("redis: del: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
