package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/clock"
	"github.com/smallbiznis/warden/internal/config"
	"github.com/smallbiznis/warden/internal/logger"
	"github.com/smallbiznis/warden/internal/migration"
	"github.com/smallbiznis/warden/internal/observability"
	"github.com/smallbiznis/warden/internal/quota"
	"github.com/smallbiznis/warden/internal/ratelimit"
	"github.com/smallbiznis/warden/internal/scheduler"
	"github.com/smallbiznis/warden/internal/server"
	"github.com/smallbiznis/warden/internal/tenant"
	"github.com/smallbiznis/warden/internal/usage"
	"github.com/smallbiznis/warden/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// core infrastructure
		fx.Provide(config.Provide),
		fx.Provide(RegisterSnowflake),
		logger.Module,
		observability.Module,
		db.Module,
		clock.Module,
		migration.Module,

		// governance domains
		tenant.Module,
		usage.Module,
		quota.Module,
		ratelimit.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
