package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lostfound-api/api/swagger"
	"github.com/noah-isme/lostfound-api/internal/handler"
	"github.com/noah-isme/lostfound-api/internal/repository"
	"github.com/noah-isme/lostfound-api/internal/service"
	"github.com/noah-isme/lostfound-api/pkg/cache"
	"github.com/noah-isme/lostfound-api/pkg/config"
	"github.com/noah-isme/lostfound-api/pkg/database"
	"github.com/noah-isme/lostfound-api/pkg/identity"
	"github.com/noah-isme/lostfound-api/pkg/jobs"
	"github.com/noah-isme/lostfound-api/pkg/logger"
)

// @title Lost & Found API
// @version 1.0.0
// @description Campus lost and found reports with moderation.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	hub := initSentry(cfg, logr)
	if hub != nil {
		defer hub.Flush(2 * time.Second)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Stats.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, stats cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()
	integrity := service.NewIntegrityReporter(logr, metrics, hub)
	reconciler := identity.NewReconciler(identity.WithIntegrityHook(integrity.Report))

	reportRepo := repository.NewReportRepository(db, reconciler).WithObserver(metrics)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, redisClient != nil)
	statsSvc := service.NewStatsService(reportRepo, cacheSvc, cfg.Stats.CacheTTL, logr)

	recorder := service.NewModerationRecorder(auditRepo, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
		Logger:     logr,
	}, metrics, logr)
	recorder.Start(ctx)
	defer recorder.Stop()

	reportSvc := service.NewReportService(reportRepo, service.NewReportValidator(validator.New()), logr,
		service.WithModerationSink(recorder),
		service.WithStatsInvalidator(statsSvc),
		service.WithReportMetrics(metrics),
	)

	tokens := service.NewTokenService(service.TokenConfig{
		Secret:             cfg.Auth.Secret,
		Issuer:             cfg.Auth.Issuer,
		AllowedEmailDomain: cfg.Auth.AllowedEmailDomain,
	}, service.NewEmailListPolicy(cfg.Auth.AdminEmails), logr)

	if cfg.Expiry.Enabled {
		expiry := service.NewExpiryService(reportRepo, reportSvc, service.ExpiryConfig{
			Schedule:   cfg.Expiry.Schedule,
			CloseAfter: cfg.Expiry.CloseAfter,
			BatchSize:  cfg.Expiry.BatchSize,
		}, metrics, logr)
		if err := expiry.Start(ctx); err != nil {
			return fmt.Errorf("start expiry: %w", err)
		}
		defer expiry.Stop()
	}

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(cfg, logr, routeDeps{
		auth:    tokens,
		metrics: metrics,
		reports: handler.NewReportHandler(reportSvc),
		admin:   handler.NewAdminHandler(reportSvc, statsSvc),
		system:  handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// initSentry returns nil when no DSN is configured.
func initSentry(cfg *config.Config, logr *zap.Logger) *sentry.Hub {
	if cfg.Monitoring.SentryDSN == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Monitoring.SentryDSN,
		Environment:      cfg.Env,
		TracesSampleRate: cfg.Monitoring.TracesSampleRate,
	})
	if err != nil {
		logr.Warn("sentry init failed", zap.Error(err))
		return nil
	}
	return sentry.CurrentHub()
}
