package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/redeviva/redeviva/internal/clock"
	"github.com/redeviva/redeviva/internal/config"
	"github.com/redeviva/redeviva/internal/logger"
	"github.com/redeviva/redeviva/internal/migration"
	"github.com/redeviva/redeviva/internal/scheduler"
	"github.com/redeviva/redeviva/internal/server"
	"github.com/redeviva/redeviva/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Functional domains; server.Module pulls in every domain module.
		server.Module,
		scheduler.Module,
		migration.Module,
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
