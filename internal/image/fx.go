package image

import (
	"github.com/smallbiznis/pixelbin/internal/config"
	"github.com/smallbiznis/pixelbin/internal/image/repository"
	"github.com/smallbiznis/pixelbin/internal/image/service"
	"github.com/smallbiznis/pixelbin/internal/thumbnail"
	"go.uber.org/fx"
)

var Module = fx.Module("image",
	fx.Provide(
		repository.New,
		provideGenerator,
		service.New,
	),
)

func provideGenerator(cfg config.Config) *thumbnail.Generator {
	return thumbnail.New(thumbnail.Shape(cfg.ThumbnailShape), cfg.ThumbnailSize)
}
