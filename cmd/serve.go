package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/internal/handler"
	"catalog-service/internal/media"
	mid "catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/service"
	"catalog-service/pkg/config"
	"catalog-service/pkg/database"
	"catalog-service/pkg/logger"
	"catalog-service/pkg/session"
	"catalog-service/pkg/storage"
	"catalog-service/pkg/tracing"
	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, appConfig, log)
	},
}

func serve(ctx context.Context, appConfig *config.Config, log *zap.Logger) error {
	log.Info("Starting "+appConfig.ServiceName, appConfig.LogConfig()...)

	tracer, err := tracing.Init(ctx, appConfig.ServiceName, appConfig.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()
	log.Info("Tracing initialized", zap.Bool("enabled", tracer.Enabled()))

	metrics := prometheus.NewMetrics(appConfig.Metrics.Prefix, prom.DefaultRegisterer)
	log.Info("Prometheus metrics initialized", zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	db, err := database.Open(&appConfig.DB)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("Database connection established")

	sessions, closeSessions, err := openSessionStore(ctx, appConfig, db)
	if err != nil {
		return err
	}
	defer closeSessions()
	log.Info("Session store ready", zap.String("store", appConfig.Session.Store))

	var objects storage.ObjectStore
	var storageCheck handler.StoragePinger
	if appConfig.Storage.Configured() {
		s3Store, err := storage.NewS3Store(appConfig.Storage, log.Named("storage"))
		if err != nil {
			return err
		}
		objects = s3Store
		storageCheck = s3Store
	} else {
		log.Warn("Object storage is not configured; uploads will fail")
	}

	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	products := repository.NewProductRepository(db)

	tokens := session.NewTokenManager(appConfig.Session.SigningKey, appConfig.ServiceName)
	auth := service.NewAuthService(users, sessions, tokens, appConfig.Session.TTL, metrics)
	catalog := service.NewCatalogService(categories, products, metrics)
	mediaSvc := service.NewMediaService(objects, products, service.MediaConfig{
		AllowedTypes: media.AllowedTypes,
		MaxSize:      appConfig.Storage.MaxUploadSize,
		SignedURLTTL: appConfig.Storage.SignedURLTTL,
	}, metrics, log.Named("media"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(mid.MetricsMiddleware(metrics))
	if tracer.Enabled() {
		e.Use(otelecho.Middleware(appConfig.ServiceName))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     appConfig.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, logger.RequestIDKey},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(appConfig.Server.BodyLimit))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler.RegisterRoutes(e, handler.Dependencies{
		ServiceName:   appConfig.ServiceName,
		Production:    appConfig.Server.IsProduction(),
		CookieName:    appConfig.Session.CookieName,
		MaxUploadSize: appConfig.Storage.MaxUploadSize,
		DB:            db,
		Auth:          auth,
		Catalog:       catalog,
		Media:         mediaSvc,
		Sessions:      mid.NewSessionAuth(auth, appConfig.Session.CookieName),
		Storage:       storageCheck,
		LoginLimiter:  loginLimiter(appConfig.RateLimit, metrics),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", appConfig.Server.Port))
		if err := e.Start(":" + appConfig.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openSessionStore(ctx context.Context, appConfig *config.Config, db *gorm.DB) (session.Store, func(), error) {
	if appConfig.Session.Store != "redis" {
		return session.NewDBStore(db), func() {}, nil
	}

	client, err := session.Connect(ctx, appConfig.Redis.Addr, appConfig.Redis.Password, appConfig.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client), func() { _ = client.Close() }, nil
}

// loginLimiter throttles login attempts per client IP
func loginLimiter(cfg config.RateLimitConfig, metrics *prometheus.Metrics) echo.MiddlewareFunc {
	if cfg.LoginPerMinute <= 0 {
		return nil
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(cfg.LoginPerMinute) / 60),
		Burst:     cfg.LoginBurst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			metrics.RecordAuthError("rate_limited")
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many login attempts"})
		},
	})
}
