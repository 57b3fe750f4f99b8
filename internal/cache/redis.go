package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the optional remote tier, grounded on
// internal/security/ratelimit's RedisConfig shape.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string // default "cv-git"
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "cv-git"
	}
	return c
}

// redisTier implements RemoteTier against a go-redis client.
type redisTier struct {
	client *redis.Client
	prefix string
}

// NewRedisTier dials Redis and pings it once so a misconfigured remote tier
// fails at construction rather than on the first cache miss.
func NewRedisTier(ctx context.Context, cfg RedisConfig) (RemoteTier, error) {
	cfg = cfg.withDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis cache tier: %w", err)
	}

	return &redisTier{client: client, prefix: cfg.KeyPrefix}, nil
}

func (r *redisTier) buildKey(ns Namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, ns, key)
}

func (r *redisTier) Get(ctx context.Context, ns Namespace, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.buildKey(ns, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (r *redisTier) Set(ctx context.Context, ns Namespace, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.buildKey(ns, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *redisTier) Delete(ctx context.Context, ns Namespace, key string) error {
	if err := r.client.Del(ctx, r.buildKey(ns, key)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (r *redisTier) Close() error {
	return r.client.Close()
}
