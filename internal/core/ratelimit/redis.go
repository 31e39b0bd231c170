package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis 多实例共享的固定窗口计数（INCR + EXPIRE）。
// Redis 出错时放行，只记日志。
type Redis struct {
	rdb     *redis.Client
	log     *zap.Logger
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func NewRedis(rdb *redis.Client, l *zap.Logger, limit int, window time.Duration) *Redis {
	if window <= 0 {
		window = time.Minute
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Redis{
		rdb:     rdb,
		log:     l,
		prefix:  "registro:ratelimit:",
		limit:   limit,
		window:  window,
		timeout: 250 * time.Millisecond,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) bool {
	if r.limit <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	k := r.prefix + key
	n, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		r.log.Warn("rate limiter incr failed", zap.String("key", k), zap.Error(err))
		return true
	}
	if n == 1 {
		if err := r.rdb.Expire(ctx, k, r.window).Err(); err != nil {
			r.log.Warn("rate limiter expire failed", zap.String("key", k), zap.Error(err))
		}
	}
	return n <= int64(r.limit)
}

func (r *Redis) Close() error { return r.rdb.Close() }
