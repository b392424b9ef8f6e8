package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterRedis(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "user-1")
		if err != nil || !d.Allowed {
			t.Fatalf("call %d should pass: %+v %v", i+1, d, err)
		}
	}
	d, err := limiter.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("third call: %v", err)
	}
	if d.Allowed {
		t.Fatalf("third call should be blocked")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("retry after = %v", d.RetryAfter)
	}
	if d, _ := limiter.Allow(ctx, "user-2"); !d.Allowed {
		t.Fatalf("other users keep their own budget")
	}
}

func TestFixedWindowLimiterReportsRedisErrors(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	redis.Close()
	d, err := limiter.Allow(context.Background(), "user-1")
	if err == nil || d.Allowed {
		t.Fatalf("expected error and denial on redis failure, got %+v %v", d, err)
	}
}

func TestFixedWindowLimiterRequiresRedisAddr(t *testing.T) {
	limiter, err := NewRedisFixedWindowLimiter("", "", "test:ratelimit", 1, time.Second)
	if err == nil || limiter != nil {
		t.Fatalf("expected constructor error for empty redis addr")
	}
}

func TestNilLimiterAllows(t *testing.T) {
	var limiter *FixedWindowLimiter
	d, err := limiter.Allow(context.Background(), "x")
	if err != nil || !d.Allowed {
		t.Fatalf("nil limiter should allow, got %+v %v", d, err)
	}
}
