package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/pixelbin/internal/auth/domain"
	"github.com/smallbiznis/pixelbin/internal/config"
	imagedomain "github.com/smallbiznis/pixelbin/internal/image/domain"
	"github.com/smallbiznis/pixelbin/internal/observability"
	obslogger "github.com/smallbiznis/pixelbin/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/pixelbin/internal/observability/metrics"
	obstracing "github.com/smallbiznis/pixelbin/internal/observability/tracing"
	"github.com/smallbiznis/pixelbin/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(
		NewEngine,
		NewServer,
	),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", obsmetrics.Handler())

	return r
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	authsvc       authdomain.Service
	imagesvc      imagedomain.Service
	obsMetrics    *obsmetrics.Metrics
	uploadLimiter *ratelimit.TokenBucket
	loginLimiter  *attemptLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	Authsvc       authdomain.Service
	Imagesvc      imagedomain.Service
	ObsMetrics    *obsmetrics.Metrics    `optional:"true"`
	UploadLimiter *ratelimit.TokenBucket `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		authsvc:       p.Authsvc,
		imagesvc:      p.Imagesvc,
		obsMetrics:    p.ObsMetrics,
		uploadLimiter: p.UploadLimiter,
		loginLimiter:  newAttemptLimiter(10, time.Minute),
	}
}

func registerRoutes(s *Server) {
	auth := s.engine.Group("/auth")
	{
		auth.POST("/signup", s.loginRateLimit(), s.Signup)
		auth.POST("/login", s.loginRateLimit(), s.Login)
		auth.POST("/google", s.GoogleLogin)
		auth.POST("/verify-token", s.VerifyToken)
		auth.POST("/refresh-token", s.RefreshToken)
	}

	images := s.engine.Group("/images")
	{
		images.POST("", s.AuthRequired(), s.uploadRateLimit(), s.Upload)
		images.GET("/:uid", s.GetOriginal)
		images.GET("/:uid/thumbnail", s.AuthRequired(), s.GetThumbnail)
		images.GET("/:uid/info", s.AuthRequired(), s.GetImageInfo)
	}

	user := s.engine.Group("/user", s.AuthRequired())
	{
		user.GET("/info", s.UserInfo)
		user.GET("/images", s.UserImages)
	}
}

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
