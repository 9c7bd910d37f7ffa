package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeCounter struct {
	count   int64
	incrErr error

	expired []time.Duration
}

func (f *fakeCounter) Incr(context.Context, string) *redis.IntCmd {
	if f.incrErr != nil {
		return redis.NewIntResult(0, f.incrErr)
	}
	f.count++
	return redis.NewIntResult(f.count, nil)
}

func (f *fakeCounter) Expire(_ context.Context, _ string, ttl time.Duration) *redis.BoolCmd {
	f.expired = append(f.expired, ttl)
	return redis.NewBoolResult(true, nil)
}

func TestAllowRate_WindowLimit(t *testing.T) {
	ctx := context.Background()
	counter := &fakeCounter{}

	for i := 0; i < 3; i++ {
		ok, err := allowRate(ctx, counter, "k", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	ok, err := allowRate(ctx, counter, "k", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatal("fourth request should be rejected")
	}

	// TTL 只在窗口首次计数时设置
	if len(counter.expired) != 1 || counter.expired[0] != time.Minute {
		t.Fatalf("unexpected expire calls: %v", counter.expired)
	}
}

func TestAllowRate_PropagatesRedisError(t *testing.T) {
	counter := &fakeCounter{incrErr: errors.New("connection refused")}
	if _, err := allowRate(context.Background(), counter, "k", 3, time.Minute); err == nil {
		t.Fatal("expected redis error")
	}
}
