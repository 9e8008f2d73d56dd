package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/warden/internal/clock"
	obsmetrics "github.com/smallbiznis/warden/internal/observability/metrics"
	usagedomain "github.com/smallbiznis/warden/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	UsageSvc usagedomain.Service
	Metrics  *obsmetrics.Metrics `optional:"true"`
	Config   Config              `optional:"true"`
}

// Scheduler drives the out-of-band governance jobs, currently the daily
// usage recalculation.
type Scheduler struct {
	log      *zap.Logger
	cfg      Config
	clock    clock.Clock
	usageSvc usagedomain.Service
	metrics  *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.UsageSvc == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	return &Scheduler{
		log:      p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:      cfg,
		clock:    p.Clock,
		usageSvc: p.UsageSvc,
		metrics:  p.Metrics,
	}, nil
}

func (s *Scheduler) Schedule() string { return s.cfg.Schedule }

// RunOnce executes the usage recalculation job a single time.
func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, "usage_recalculation", s.cfg.RunTimeout, func(ctx context.Context) error {
		result, err := s.usageSvc.CalculateAll(ctx)
		if err != nil {
			return err
		}
		s.metrics.RecordUsageBatch(ctx, result.Failed)
		if result.Failed > 0 {
			s.log.Warn("usage recalculation finished with failures",
				zap.Int("failed", result.Failed),
				zap.Int("succeeded", result.Succeeded),
			)
		}
		return nil
	})
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(
		zap.String("job", name),
		zap.String("run_id", uuid.NewString()),
	)
	log.Info("job started")

	err := fn(ctx)
	elapsed := time.Since(start)
	if err == nil {
		log.Info("job finished", zap.Duration("elapsed", elapsed))
		return nil
	}

	// treat deadline as soft-timeout
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	log.Error("job failed", zap.Duration("elapsed", elapsed), zap.Error(err))
	return fmt.Errorf("%s: %w", name, err)
}
