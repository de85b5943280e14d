package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key written to Redis.
const KeyPrefix = "anitrack:jikan:"

// Redis is a [Cache] backed by a Redis server. Expiry is delegated to Redis key TTLs.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisClient parses a redis:// URL, applies an optional password override and pings the server.
func NewRedisClient(ctx context.Context, redisURL, password string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opt.Password = password
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedis wraps client as a [Cache]. A non-positive ttl uses [DefaultTTL].
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{Client: client, TTL: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r == nil || r.Client == nil {
		return nil, false, fmt.Errorf("nil redis client")
	}

	b, err := r.Client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if r == nil || r.Client == nil {
		return fmt.Errorf("nil redis client")
	}

	if err := r.Client.Set(ctx, KeyPrefix+key, value, r.TTL).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

var _ Cache = (*Redis)(nil)
