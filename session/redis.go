package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	dbredis "github.com/pamojavote/pamoja-go/db/redis"
)

const DefaultRedisPrefix = "pamoja:session:"

// RedisBackend stores session values as plain Redis strings under a prefix,
// so several client profiles can share one server.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisBackend wraps an existing client. A zero ttl keeps keys forever.
func NewRedisBackend(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisBackend) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	values, err := r.client.MGet(ctx, r.keys(keys)...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make(map[string]string, len(keys))
	for i, value := range values {
		if s, ok := value.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

func (r *RedisBackend) SetMany(ctx context.Context, values map[string]string) error {
	prefixed := make(map[string]string, len(values))
	for key, value := range values {
		prefixed[r.prefix+key] = value
	}
	return dbredis.SetMany(ctx, r.client, prefixed, r.ttl)
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	return dbredis.Del(ctx, r.client, r.keys(keys)...)
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

func (r *RedisBackend) keys(keys []string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = r.prefix + key
	}
	return out
}
