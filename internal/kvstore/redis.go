package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "perch:kv:"

// Redis implements Store with one hash per namespace.
type Redis struct {
	rdb *goredis.Client
}

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("kvstore: redis ping: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *goredis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func hashKey(ns string) string { return redisKeyPrefix + ns }

// Get implements Store.
func (r *Redis) Get(ctx context.Context, ns, key string) (string, bool, error) {
	v, err := r.rdb.HGet(ctx, hashKey(ns), key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: redis get %s/%s: %w", ns, key, err)
	}
	return v, true, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, ns, key, value string) error {
	if err := r.rdb.HSet(ctx, hashKey(ns), key, value).Err(); err != nil {
		return fmt.Errorf("kvstore: redis set %s/%s: %w", ns, key, err)
	}
	return nil
}

// Remove implements Store.
func (r *Redis) Remove(ctx context.Context, ns, key string) error {
	if err := r.rdb.HDel(ctx, hashKey(ns), key).Err(); err != nil {
		return fmt.Errorf("kvstore: redis remove %s/%s: %w", ns, key, err)
	}
	return nil
}

// Clear implements Store.
func (r *Redis) Clear(ctx context.Context, ns string) error {
	if err := r.rdb.Del(ctx, hashKey(ns)).Err(); err != nil {
		return fmt.Errorf("kvstore: redis clear %s: %w", ns, err)
	}
	return nil
}

// Keys implements Store.
func (r *Redis) Keys(ctx context.Context, ns string) ([]string, error) {
	keys, err := r.rdb.HKeys(ctx, hashKey(ns)).Result()
	if err != nil {
		return nil, fmt.Errorf("kvstore: redis keys %s: %w", ns, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
