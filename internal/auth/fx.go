package auth

import (
	"github.com/smallbiznis/pixelbin/internal/auth/oauth"
	"github.com/smallbiznis/pixelbin/internal/auth/repository"
	"github.com/smallbiznis/pixelbin/internal/auth/service"
	"github.com/smallbiznis/pixelbin/internal/auth/token"
	"github.com/smallbiznis/pixelbin/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(
		repository.New,
		provideIssuer,
		oauth.NewGoogleResolver,
		service.New,
	),
)

func provideIssuer(cfg config.Config) *token.Issuer {
	return token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
}
