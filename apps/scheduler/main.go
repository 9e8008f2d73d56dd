// The scheduler app runs the usage recalculation on its daily cadence
// without serving HTTP, for deployments that separate the batch plane from
// the request plane.
package main

import (
	"flag"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/clock"
	"github.com/smallbiznis/warden/internal/config"
	"github.com/smallbiznis/warden/internal/logger"
	"github.com/smallbiznis/warden/internal/migration"
	"github.com/smallbiznis/warden/internal/observability"
	"github.com/smallbiznis/warden/internal/scheduler"
	"github.com/smallbiznis/warden/internal/tenant"
	"github.com/smallbiznis/warden/internal/usage"
	"github.com/smallbiznis/warden/pkg/db"
	"go.uber.org/fx"
)

func main() {
	once := flag.Bool("once", false, "run the usage recalculation a single time and exit")
	flag.Parse()

	schedulerModule := scheduler.Module
	if *once {
		schedulerModule = scheduler.OnceModule
	}

	app := fx.New(
		fx.Provide(config.Provide),
		fx.Provide(RegisterSnowflake),
		logger.Module,
		observability.Module,
		db.Module,
		clock.Module,
		migration.Module,

		tenant.Module,
		usage.Module,
		schedulerModule,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
