// Package cache holds the Redis client and the counters built on it.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedis connects to redisURL and pings it once so a bad URL fails at
// startup rather than on the first request.
func NewRedis(ctx context.Context, redisURL string, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("connected to redis",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
	)
	return rdb, nil
}

// WindowCounter counts hits per key in fixed windows stored in Redis.
type WindowCounter struct {
	rdb    *redis.Client
	prefix string
}

func NewWindowCounter(rdb *redis.Client, prefix string) *WindowCounter {
	return &WindowCounter{rdb: rdb, prefix: prefix}
}

// Incr records one hit for key and returns the hit count of the current
// window. The window starts with the first hit and lasts window.
func (w *WindowCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := w.prefix + key

	var incr *redis.IntCmd
	_, err := w.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", k, err)
	}
	return incr.Val(), nil
}
