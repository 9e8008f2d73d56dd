package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/warden/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newConfig(cfg config.Config) Config {
	return Config{
		Schedule:   cfg.UsageJob.Schedule,
		RunTimeout: cfg.UsageJob.RunTimeout,
	}
}

func runCron(lc fx.Lifecycle, s *Scheduler, log *zap.Logger) error {
	c := cron.New()
	_, err := c.AddFunc(s.Schedule(), func() {
		if err := s.RunOnce(context.Background()); err != nil {
			log.Error("scheduled usage recalculation failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := c.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}

func runOnce(lc fx.Lifecycle, s *Scheduler, shutdowner fx.Shutdowner, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := s.RunOnce(context.Background()); err != nil {
					log.Error("usage recalculation failed", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}

var Module = fx.Module("scheduler",
	fx.Provide(newConfig),
	fx.Provide(New),
	fx.Invoke(runCron),
)

// OnceModule runs the usage recalculation a single time and shuts the app
// down, for manual backfills and one-shot container jobs.
var OnceModule = fx.Module("scheduler.once",
	fx.Provide(newConfig),
	fx.Provide(New),
	fx.Invoke(runOnce),
)
