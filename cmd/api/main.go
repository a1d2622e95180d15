package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"reviewapi/docs"
	"reviewapi/internal/auth"
	"reviewapi/internal/authz"
	"reviewapi/internal/cache"
	"reviewapi/internal/config"
	"reviewapi/internal/database"
	"reviewapi/internal/database/migration"
	handlers "reviewapi/internal/http/handler"
	"reviewapi/internal/http/middleware"
	"reviewapi/internal/logging"
	"reviewapi/internal/media"
	"reviewapi/internal/otel"
	"reviewapi/internal/repository/postgres"
	"reviewapi/internal/service"
	"reviewapi/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Review API
// @version 1.0
// @description Business reviews with photo uploads and moderation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.New(cfg.AppEnv, cfg.LogLevel, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET must be set")
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	baseURL := cfg.Media.PublicBaseURL
	if baseURL == "" {
		baseURL = "http://" + cfg.AppHost + "/media"
	}
	attachments := media.NewAttachments(objStore, media.Options{
		PublicBaseURL: baseURL,
		URLMode:       cfg.Media.URLMode,
		PresignExpiry: cfg.Media.PresignExpiry,
		MaxBytes:      cfg.Media.MaxImageBytes,
	})

	metrics, err := service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register service metrics")
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register http metrics")
	}

	pages := newPageCache(ctx, cfg, metrics, logger)

	opts := []service.Option{
		service.WithCache(pages),
		service.WithLogger(logger),
		service.WithMetrics(metrics),
		service.WithMaxImages(cfg.Media.MaxImages),
	}
	if cfg.Auth.EnforceManage {
		opts = append(opts, service.WithManageGate(authz.NewPolicy(postgres.NewIdentityPostgres(db))))
	}

	// Initialize repositories and services
	reviewSvc := service.NewReviewService(
		postgres.NewReviewPostgres(db),
		postgres.NewBusinessPostgres(db),
		attachments,
		opts...,
	)

	authn := auth.NewJWTAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    bodyLimit(cfg.Media),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.ContextLogger(logger))
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(httpMetrics.Handler())
	app.Use(middleware.Authenticate(authn, postgres.NewUserPostgres(db), logger))

	deps := handlers.Dependencies{
		DB:      db,
		Reviews: reviewSvc,
		Media:   attachments,
	}
	if cfg.RateLimit.Enabled {
		deps.SubmitLimit = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Handler()
	}

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, deps)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			logger.Error().Err(err).Msg("http shutdown")
		}
		if err := shutdownTracing(sctx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown")
		}
	}()

	logger.Info().Str("addr", addr).Str("env", cfg.AppEnv).Msg("starting server")
	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}

// newPageCache connects the list cache. An unreachable Redis disables caching
// rather than failing startup.
func newPageCache(ctx context.Context, cfg *config.AppConfig, metrics *service.Metrics, logger zerolog.Logger) cache.ReviewPages {
	rc := cfg.Redis
	if rc.Addr == "" {
		return cache.Noop{}
	}

	client, err := cache.Dial(ctx, rc.Addr, rc.Password, rc.DB)
	if err != nil {
		logger.Warn().Err(err).Str("redis_addr", rc.Addr).Msg("review cache disabled")
		return cache.Noop{}
	}

	ttl := cfg.ReviewCacheTTL()
	if ttl != rc.TTL {
		logger.Info().Dur("configured_ttl", rc.TTL).Dur("ttl", ttl).Msg("review cache ttl capped by presign expiry")
	}
	return cache.NewRedis(client, ttl, metrics.CacheObserver())
}

// bodyLimit leaves room for a full set of images plus form fields.
func bodyLimit(m config.MediaConfig) int {
	per := m.MaxImageBytes
	if per <= 0 {
		per = media.DefaultMaxBytes
	}
	n := m.MaxImages
	if n <= 0 {
		n = 10
	}
	return int(per)*n + 1<<20
}
