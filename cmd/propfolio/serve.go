package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/propfolio/propfolio/internal/app"
	"github.com/propfolio/propfolio/internal/billing"
	"github.com/propfolio/propfolio/internal/config"
	"github.com/propfolio/propfolio/internal/health"
	"github.com/propfolio/propfolio/internal/http/handler"
	"github.com/propfolio/propfolio/internal/http/router"
	"github.com/propfolio/propfolio/internal/observability"
	"github.com/propfolio/propfolio/internal/repository"
	"github.com/propfolio/propfolio/internal/security"
	"github.com/propfolio/propfolio/internal/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger, loggerProvider, err := observability.InitLogging(ctx, cfg)
	if err != nil {
		return err
	}
	runtime, err := observability.InitRuntime(ctx, cfg, logger, loggerProvider)
	if err != nil {
		return err
	}

	db, err := repository.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	var redisClient *redis.Client
	var idempotency service.IdempotencyStore
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		idempotency = service.NewRedisIdempotencyStore(redisClient, "propfolio:idem")
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	tenancyRepo := repository.NewTenancyRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	jwtManager := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
	sessionService := service.NewSessionService(sessionRepo, cfg.SessionPepper, cfg.SessionTTL)
	authService := service.NewAuthService(userRepo, sessionService, jwtManager, cfg.JWTAccessTTL)

	var processor billing.Processor
	if cfg.StripeAPIKey != "" {
		processor = billing.NewStripeProcessor(cfg.StripeAPIKey)
	}
	paymentService := service.NewPaymentService(
		paymentRepo, tenancyRepo, notificationRepo,
		processor, idempotency, cfg.IdempotencyTTL,
		cfg.StripeCurrency, logger,
	)

	checkers := []health.Checker{}
	if sqlDB, err := db.DB(); err == nil {
		checkers = append(checkers, health.DatabaseChecker("database", sqlDB))
	}
	if redisClient != nil {
		rc := redisClient
		checkers = append(checkers, health.CheckerFunc(func(ctx context.Context) health.CheckResult {
			if err := rc.Ping(ctx).Err(); err != nil {
				return health.CheckResult{Name: "redis", Healthy: false, Error: err.Error()}
			}
			return health.CheckResult{Name: "redis", Healthy: true}
		}))
	}
	readiness := health.NewProbeRunner(5*time.Second, 2*time.Second, checkers...)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, sessionService),
		UserHandler:         handler.NewUserHandler(userRepo, sessionService),
		PaymentHandler:      handler.NewPaymentHandler(paymentService),
		TenancyHandler:      handler.NewTenancyHandler(tenancyRepo),
		NotificationHandler: handler.NewNotificationHandler(notificationRepo),
		JWTManager:          jwtManager,
		CORSOrigins:         cfg.CORSOrigins,
		BodyLimit:           cfg.BodyLimit,
		APIRateLimitRPM:     cfg.APIRateLimitRPM,
		AuthRateLimitRPM:    cfg.AuthRateLimitRPM,
		Readiness:           readiness,
		EnableOTelHTTP:      cfg.OTELTracesEnabled,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Expired-session sweeps run out of process via
	// `propfolio sessions cleanup`, typically from cron.
	a := app.New(cfg, logger, server, runtime, db, redisClient, readiness, nil)
	return a.Run(ctx)
}
