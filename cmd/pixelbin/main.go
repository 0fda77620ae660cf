package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pixelbin/internal/auth"
	"github.com/smallbiznis/pixelbin/internal/config"
	"github.com/smallbiznis/pixelbin/internal/image"
	"github.com/smallbiznis/pixelbin/internal/migration"
	"github.com/smallbiznis/pixelbin/internal/observability"
	"github.com/smallbiznis/pixelbin/internal/ratelimit"
	"github.com/smallbiznis/pixelbin/internal/server"
	"github.com/smallbiznis/pixelbin/internal/storage"
	"github.com/smallbiznis/pixelbin/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Functional domains
		storage.Module,
		ratelimit.Module,
		auth.Module,
		image.Module,
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
