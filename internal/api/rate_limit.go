package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type rateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// allowRate 基于 Redis 计数器做固定窗口限流。
// 窗口由首次计数时设置的 TTL 界定；返回 false 表示超出 limit。
func allowRate(ctx context.Context, client rateCounter, key string, limit int64, window time.Duration) (bool, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, window).Err()
	}
	return count <= limit, nil
}
