package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourkin666/server-go/internal/config"
)

// Redis is a cache backed by a go-redis client, which pools its own
// connections.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*Redis)(nil)

// NewRedis builds a client from a redis:// URL or a bare host:port. No
// connection is made until the first command. ttl <= 0 stores keys without
// expiry.
func NewRedis(_ context.Context, cfg config.RedisConfig, ttl time.Duration) (*Redis, error) {
	opt, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisFromClient(redis.NewClient(opt), ttl), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, ttl: ttl}
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	var opt *redis.Options
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: cfg.URL}
	}

	if cfg.MaxConnections > 0 {
		opt.PoolSize = cfg.MaxConnections
	}
	if timeout := cfg.ConnectTimeoutDuration(); timeout > 0 {
		opt.DialTimeout = timeout
	}
	return opt, nil
}

func (r *Redis) Insert(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Kind() string { return "redis" }

func (r *Redis) Close() error {
	return r.client.Close()
}
