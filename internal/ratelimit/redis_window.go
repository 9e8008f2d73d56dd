package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/warden/internal/clock"
)

// One atomic increment-and-read per check. The key is bucketed per
// identifier+window so the counter expires with the window it guards.
const windowCounterScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`

// RedisWindow is the strict fixed-window variant of the limiter: a single
// Lua script increments and reads the bucket counter atomically, so no two
// racing requests can both slip under the limit.
type RedisWindow struct {
	client *redis.Client
	script *redis.Script
	clock  clock.Clock
}

func NewRedisWindow(client *redis.Client, clk clock.Clock) *RedisWindow {
	if client == nil {
		return nil
	}
	return &RedisWindow{
		client: client,
		script: redis.NewScript(windowCounterScript),
		clock:  clk,
	}
}

func (w *RedisWindow) Check(ctx context.Context, id Identifier, limit int, window time.Duration) (*Result, error) {
	return w.check(ctx, id, limit, window, true)
}

func (w *RedisWindow) Status(ctx context.Context, id Identifier, limit int, window time.Duration) (*Result, error) {
	return w.check(ctx, id, limit, window, false)
}

func (w *RedisWindow) check(ctx context.Context, id Identifier, limit int, window time.Duration, record bool) (*Result, error) {
	if w == nil || w.client == nil {
		return nil, errors.New("rate limiter not configured")
	}
	if !id.Valid() {
		return nil, ErrInvalidIdentifier
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	now := w.clock.Now()
	key := w.bucketKey(id, window, now)

	if !record {
		count, err := w.client.Get(ctx, key).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		return w.buildResult(count, limit, window, now, count < int64(limit)), nil
	}

	res, err := w.script.Run(ctx, w.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, errors.New("invalid rate limit script response")
	}

	count := res[0]
	if count > int64(limit) {
		// reject without keeping the over-limit increment visible to
		// Remaining math; the bucket still expires on schedule
		result := w.buildResult(int64(limit), limit, window, now, false)
		if ttl := res[1]; ttl > 0 {
			result.ResetAt = now.Add(time.Duration(ttl) * time.Millisecond)
		}
		return result, nil
	}

	return w.buildResult(count, limit, window, now, true), nil
}

func (w *RedisWindow) buildResult(count int64, limit int, window time.Duration, now time.Time, allowed bool) *Result {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   now.Truncate(window).Add(window),
	}
}

func (w *RedisWindow) bucketKey(id Identifier, window time.Duration, now time.Time) string {
	bucket := now.UnixMilli() / window.Milliseconds()
	return fmt.Sprintf("ratelimit:%s:%d:%d", id.String(), window.Milliseconds(), bucket)
}
