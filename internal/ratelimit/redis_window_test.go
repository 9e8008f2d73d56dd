package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/warden/internal/clock"
)

func setupRedisWindow(t *testing.T) (*RedisWindow, *clock.FakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewRedisWindow(client, clk), clk
}

func TestRedisWindowStatusFreshIdentifier(t *testing.T) {
	limiter, _ := setupRedisWindow(t)
	id := OrgIdentifier(snowflake.ID(1))

	result, err := limiter.Status(context.Background(), id, 5, time.Minute)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("fresh identifier must report allowed, got %+v", result)
	}
	if result.Remaining != 5 {
		t.Fatalf("expected full budget, got remaining %d", result.Remaining)
	}
}

func TestRedisWindowStatusTracksBudget(t *testing.T) {
	limiter, _ := setupRedisWindow(t)
	id := OrgIdentifier(snowflake.ID(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := limiter.Check(ctx, id, 3, time.Minute); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}

	result, err := limiter.Status(ctx, id, 3, time.Minute)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !result.Allowed || result.Remaining != 1 {
		t.Fatalf("expected allowed with remaining 1, got %+v", result)
	}

	// status must not consume any budget itself
	again, err := limiter.Status(ctx, id, 3, time.Minute)
	if err != nil {
		t.Fatalf("second status: %v", err)
	}
	if again.Remaining != 1 {
		t.Fatalf("status consumed budget: remaining %d", again.Remaining)
	}
}

func TestRedisWindowStatusAtLimit(t *testing.T) {
	limiter, _ := setupRedisWindow(t)
	id := OrgIdentifier(snowflake.ID(3))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := limiter.Check(ctx, id, 2, time.Minute); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}

	result, err := limiter.Status(ctx, id, 2, time.Minute)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if result.Allowed {
		t.Fatalf("spent bucket must report allowed=false, got %+v", result)
	}
	if result.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", result.Remaining)
	}
}

func TestRedisWindowCheckAdmitsUpToLimit(t *testing.T) {
	limiter, _ := setupRedisWindow(t)
	id := APIKeyIdentifier("wk_live_abc")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, id, 3, time.Minute)
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !result.Allowed {
			t.Fatalf("request %d should be admitted", i)
		}
		if result.Remaining != 3-i-1 {
			t.Fatalf("request %d: expected remaining %d, got %d", i, 3-i-1, result.Remaining)
		}
	}

	result, err := limiter.Check(ctx, id, 3, time.Minute)
	if err != nil {
		t.Fatalf("check over limit: %v", err)
	}
	if result.Allowed {
		t.Fatalf("fourth request should be rejected")
	}
	if result.Remaining != 0 {
		t.Fatalf("expected remaining 0 on rejection, got %d", result.Remaining)
	}
}

func TestRedisWindowBucketRotates(t *testing.T) {
	limiter, clk := setupRedisWindow(t)
	id := OrgIdentifier(snowflake.ID(4))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := limiter.Check(ctx, id, 2, time.Minute); err != nil {
			t.Fatalf("seed check %d: %v", i, err)
		}
	}
	if result, _ := limiter.Check(ctx, id, 2, time.Minute); result.Allowed {
		t.Fatalf("expected rejection at full bucket")
	}

	// the next fixed window starts a fresh counter
	clk.Advance(time.Minute)
	result, err := limiter.Check(ctx, id, 2, time.Minute)
	if err != nil {
		t.Fatalf("check in next window: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected admission in the next window")
	}
}

func TestRedisWindowInvalidArguments(t *testing.T) {
	limiter, _ := setupRedisWindow(t)
	ctx := context.Background()
	id := OrgIdentifier(snowflake.ID(5))

	if _, err := limiter.Check(ctx, Identifier("org:"), 5, time.Minute); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if _, err := limiter.Check(ctx, id, 0, time.Minute); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := limiter.Status(ctx, id, 5, 0); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}
