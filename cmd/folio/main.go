package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/logger"
	"github.com/smallbiznis/folio/internal/migration"
	"github.com/smallbiznis/folio/internal/server"
	"github.com/smallbiznis/folio/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
