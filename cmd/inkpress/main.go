package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/migration"
	"github.com/inkpress/inkpress/internal/observability"
	"github.com/inkpress/inkpress/internal/server"
	"github.com/inkpress/inkpress/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
