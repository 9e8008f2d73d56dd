package usage

import (
	"github.com/smallbiznis/warden/internal/clock"
	"github.com/smallbiznis/warden/internal/config"
	tenantdomain "github.com/smallbiznis/warden/internal/tenant/domain"
	"github.com/smallbiznis/warden/internal/usage/domain"
	"github.com/smallbiznis/warden/internal/usage/repository"
	"github.com/smallbiznis/warden/internal/usage/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newService(
	snapshots domain.SnapshotRepository,
	counters domain.CounterRepository,
	tenants tenantdomain.Repository,
	clk clock.Clock,
	log *zap.Logger,
	cfg config.Config,
) domain.Service {
	return service.NewService(snapshots, counters, tenants, clk, log, cfg.UsageJob.Concurrency)
}

var Module = fx.Module("usage.meter",
	fx.Provide(repository.NewSnapshotRepository),
	fx.Provide(repository.NewCounterRepository),
	fx.Provide(newService),
)
