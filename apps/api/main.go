package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/subforge/renewals/internal/clock"
	"github.com/subforge/renewals/internal/config"
	"github.com/subforge/renewals/internal/logger"
	"github.com/subforge/renewals/internal/migration"
	"github.com/subforge/renewals/internal/server"
	"github.com/subforge/renewals/pkg/db"
	"go.uber.org/fx"
)

// API-only deployment: serves the HTTP API and webhooks, no scheduler.
// Pair it with the scheduler app when splitting the workload.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

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
