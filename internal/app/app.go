package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/propfolio/propfolio/internal/config"
	"github.com/propfolio/propfolio/internal/health"
	"github.com/propfolio/propfolio/internal/observability"
)

// App owns the wired server process: the HTTP listener, the backing
// stores, the observability runtime and the shutdown sequencing.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         *redis.Client
	Readiness     *health.ProbeRunner

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	stopBackground func()
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime, db *gorm.DB, redisClient *redis.Client, readiness *health.ProbeRunner, stopBackground func()) *App {
	return &App{
		Config:                       cfg,
		Logger:                       logger,
		Server:                       server,
		Observability:                runtime,
		DB:                           db,
		Redis:                        redisClient,
		Readiness:                    readiness,
		ShutdownTimeout:              cfg.ShutdownTimeout,
		ShutdownHTTPDrainTimeout:     cfg.ShutdownHTTPDrainTimeout,
		ShutdownObservabilityTimeout: cfg.ShutdownObservabilityTimeout,
		stopBackground:               stopBackground,
	}
}

// StopBackgroundTasks signals any background workers (session cleanup,
// rate limiter sweeps) registered at wiring time.
func (a *App) StopBackgroundTasks() {
	if a.stopBackground != nil {
		a.stopBackground()
	}
}

// Run serves until the context is cancelled or a termination signal
// arrives, then drains in order: HTTP listener, background tasks,
// backing stores, observability pipeline.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutdown initiated")
		return a.shutdown()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.Logger.Info("shutdown complete")
	return nil
}

func (a *App) shutdown() error {
	total := a.ShutdownTimeout
	if total <= 0 {
		total = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), total)
	defer cancel()

	var errs []error

	drain := a.ShutdownHTTPDrainTimeout
	if drain <= 0 || drain > total {
		drain = total
	}
	drainCtx, drainCancel := context.WithTimeout(ctx, drain)
	if err := a.Server.Shutdown(drainCtx); err != nil {
		errs = append(errs, err)
	}
	drainCancel()

	a.StopBackgroundTasks()

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if a.Observability != nil {
		obsTimeout := a.ShutdownObservabilityTimeout
		if obsTimeout <= 0 || obsTimeout > total {
			obsTimeout = total
		}
		obsCtx, obsCancel := context.WithTimeout(context.Background(), obsTimeout)
		if err := a.Observability.Shutdown(obsCtx); err != nil {
			errs = append(errs, err)
		}
		obsCancel()
	}

	return errors.Join(errs...)
}
