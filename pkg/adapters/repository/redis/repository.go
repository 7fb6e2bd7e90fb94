package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
)

const (
	defaultDialTimeout = 5 * time.Second
	keyPrefix          = "shortlink-dashboard:session:"
)

// RedisRepository keeps the session slot in a shared Redis key.
type RedisRepository struct {
	rdb *redis.Client
}

var _ ports.SlotStorage = (*RedisRepository)(nil)

// NewRedisRepository parses a redis:// URL and verifies connectivity via PING.
func NewRedisRepository(ctx context.Context, redisURL string) (*RedisRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &RedisRepository{rdb: rdb}, nil
}

func (r *RedisRepository) Load(ctx context.Context, key string) (string, error) {
	value, err := r.rdb.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ports.ErrSlotEmpty
	}
	return value, err
}

func (r *RedisRepository) Save(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, keyPrefix+key, value, 0).Err()
}

func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, keyPrefix+key).Err()
}

func (r *RedisRepository) Close() error {
	return r.rdb.Close()
}
