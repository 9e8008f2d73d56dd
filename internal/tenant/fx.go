package tenant

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/cache"
	"github.com/smallbiznis/warden/internal/clock"
	"github.com/smallbiznis/warden/internal/config"
	"github.com/smallbiznis/warden/internal/tenant/domain"
	"github.com/smallbiznis/warden/internal/tenant/repository"
	"github.com/smallbiznis/warden/internal/tenant/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newService(
	repo domain.Repository,
	resolved cache.TenantResolverCache,
	genID *snowflake.Node,
	clk clock.Clock,
	log *zap.Logger,
	cfg config.Config,
) domain.Service {
	return service.NewService(repo, resolved, genID, clk, log, cfg.RootDomain)
}

var Module = fx.Module("tenant.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(cache.NewTenantResolverCache),
	fx.Provide(newService),
)
