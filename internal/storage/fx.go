package storage

import (
	"context"

	appconfig "github.com/smallbiznis/pixelbin/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("storage",
	fx.Provide(
		func(cfg appconfig.Config) (*S3Store, error) {
			return NewS3Store(context.Background(), cfg)
		},
		func(s *S3Store) Store { return s },
	),
)
