package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores settings under "<prefix>:secure:<key>" and "<prefix>:plain:<key>".
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedis wraps an existing client. An empty prefix defaults to "assist".
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "assist"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

// DialRedis connects to addr and verifies the server answers PING.
func DialRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to settings redis at %s: %w", addr, err)
	}
	return NewRedis(rdb, prefix), nil
}

func (r *Redis) Secure() Backend { return redisTier{rdb: r.rdb, prefix: r.prefix + ":secure:"} }

func (r *Redis) Plain() Backend { return redisTier{rdb: r.rdb, prefix: r.prefix + ":plain:"} }

func (r *Redis) Close() error { return r.rdb.Close() }

type redisTier struct {
	rdb    redis.UniversalClient
	prefix string
}

func (t redisTier) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := t.rdb.Get(ctx, t.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (t redisTier) Set(ctx context.Context, key, value string) error {
	if err := t.rdb.Set(ctx, t.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (t redisTier) Remove(ctx context.Context, key string) error {
	if err := t.rdb.Del(ctx, t.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
