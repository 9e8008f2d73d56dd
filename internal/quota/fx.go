package quota

import (
	"github.com/smallbiznis/warden/internal/quota/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quota.engine",
	fx.Provide(service.NewService),
)
