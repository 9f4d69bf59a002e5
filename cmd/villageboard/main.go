package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/villageboard/villageboard/internal/clock"
	"github.com/villageboard/villageboard/internal/config"
	"github.com/villageboard/villageboard/internal/migration"
	"github.com/villageboard/villageboard/internal/observability"
	"github.com/villageboard/villageboard/internal/server"
	"github.com/villageboard/villageboard/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
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
