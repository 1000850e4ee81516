package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetMany writes all pairs in a single MULTI/EXEC so readers never observe a
// half-written set.
func SetMany(ctx context.Context, client redis.UniversalClient, values map[string]string, ttl time.Duration) error {
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range values {
			pipe.Set(ctx, key, value, ttl)
		}
		return nil
	})
	return err
}

// Del deletes keys from Redis.
func Del(ctx context.Context, client redis.UniversalClient, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return client.Del(ctx, keys...).Err()
}

// Exists checks if a key exists in Redis.
func Exists(ctx context.Context, client redis.UniversalClient, key string) (bool, error) {
	exists, err := client.Exists(ctx, key).Result()
	return exists > 0, err
}
