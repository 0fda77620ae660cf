package migration

import (
	authdomain "github.com/smallbiznis/pixelbin/internal/auth/domain"
	"github.com/smallbiznis/pixelbin/internal/config"
	imagedomain "github.com/smallbiznis/pixelbin/internal/image/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The SQL migrations target postgres; other dialects (sqlite for
		// local runs, mysql) derive the schema from the models.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(&authdomain.User{}, &imagedomain.Image{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
