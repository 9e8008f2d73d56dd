package migration

import (
	"github.com/smallbiznis/warden/internal/config"
	"github.com/smallbiznis/warden/internal/ratelimit"
	tenantdomain "github.com/smallbiznis/warden/internal/tenant/domain"
	usagedomain "github.com/smallbiznis/warden/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// non-postgres targets (sqlite dev setups) fall back to gorm
		return conn.AutoMigrate(
			&tenantdomain.Tenant{},
			&usagedomain.Snapshot{},
			&ratelimit.Record{},
		)
	}),
)
