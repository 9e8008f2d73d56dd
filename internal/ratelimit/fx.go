package ratelimit

import (
	"context"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/warden/internal/clock"
	"github.com/smallbiznis/warden/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewLimiter picks the Redis window counter when Redis is configured and
// falls back to the best-effort store-backed sliding log otherwise.
func NewLimiter(cfg config.Config, db *gorm.DB, genID *snowflake.Node, clk clock.Clock, log *zap.Logger) Limiter {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		log.Info("rate limiter using redis window counter", zap.String("addr", cfg.RedisAddr))
		return NewRedisWindow(client, clk)
	}
	return NewSlidingLog(db, genID, clk)
}

func newSweeper(cfg config.Config, db *gorm.DB, clk clock.Clock, log *zap.Logger) *Sweeper {
	maxWindow := cfg.RateLimit.APIWindow
	if cfg.RateLimit.PublicWindow > maxWindow {
		maxWindow = cfg.RateLimit.PublicWindow
	}
	return NewSweeper(db, clk, log, maxWindow, cfg.RateLimit.SweepEvery)
}

func runSweeper(lc fx.Lifecycle, sweeper *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sweeper.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}

var Module = fx.Module("rate.limit",
	fx.Provide(NewLimiter),
	fx.Provide(newSweeper),
	fx.Invoke(runSweeper),
)
