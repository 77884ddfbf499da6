package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/subforge/renewals/internal/clock"
	"github.com/subforge/renewals/internal/config"
	"github.com/subforge/renewals/internal/gateway"
	"github.com/subforge/renewals/internal/logger"
	"github.com/subforge/renewals/internal/order"
	"github.com/subforge/renewals/internal/scheduler"
	"github.com/subforge/renewals/internal/subscription"
	"github.com/subforge/renewals/pkg/db"
	"go.uber.org/fx"
)

// Scheduler-only deployment: charges due subscriptions and expires stale
// failing ones. No HTTP server.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		gateway.Module,
		order.Module,
		subscription.Module,

		scheduler.Module,
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
