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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edupulse-api/api/swagger"
	"github.com/noah-isme/edupulse-api/internal/handler"
	"github.com/noah-isme/edupulse-api/internal/repository"
	"github.com/noah-isme/edupulse-api/internal/scheduler"
	"github.com/noah-isme/edupulse-api/internal/service"
	"github.com/noah-isme/edupulse-api/pkg/cache"
	"github.com/noah-isme/edupulse-api/pkg/config"
	"github.com/noah-isme/edupulse-api/pkg/database"
	"github.com/noah-isme/edupulse-api/pkg/jobs"
	"github.com/noah-isme/edupulse-api/pkg/logger"
)

// @title EduPulse Insights API
// @version 1.0.0
// @description Student performance analytics: grade statistics, strengths and weaknesses, recommendations.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const (
	shutdownTimeout  = 15 * time.Second
	warmupJobTimeout = 30 * time.Second
)

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, "performance", cfg.Performance.CacheTTL, logr, redisClient != nil)

	perfSvc := service.NewPerformanceService(
		repository.NewPerformanceRepository(db),
		cacheSvc,
		metrics,
		validator.New(),
		logr,
		service.PerformanceConfig{CacheTTL: cfg.Performance.CacheTTL, PeerStdDev: cfg.Performance.PeerStdDev},
	)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	if cfg.Warmup.Enabled && cfg.Performance.Enabled {
		stopWarmup, err := startWarmup(ctx, cfg.Warmup, perfSvc, metrics, logr)
		if err != nil {
			logr.Fatal("failed to start performance warmup", zap.Error(err))
		}
		defer stopWarmup()
	}

	router := newRouter(routerDeps{
		cfg:         cfg,
		logger:      logr,
		metrics:     metrics,
		tokens:      tokenSvc,
		performance: handler.NewPerformanceHandler(perfSvc),
		ops:         handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient, cacheRepo)),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logr.Error("server failed", zap.Error(err))
	case <-ctx.Done():
		logr.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
		_ = srv.Close()
	}
}

func startWarmup(ctx context.Context, cfg config.WarmupConfig, perfSvc *service.PerformanceService, metrics *service.MetricsService, logr *zap.Logger) (func(), error) {
	queue := jobs.NewQueue("performance-warmup", scheduler.Handler(perfSvc, metrics), jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: 5 * time.Second,
		Timeout:    warmupJobTimeout,
		Logger:     logr,
	})
	queue.Start(ctx)

	sched := scheduler.New(perfSvc, queue, scheduler.Config{Interval: cfg.Interval, Lookback: cfg.Lookback}, logr)
	if err := sched.Start(ctx); err != nil {
		queue.Stop()
		return nil, err
	}
	return func() {
		sched.Stop()
		queue.Stop()
		stats := queue.Stats()
		logr.Info("performance warmup stopped", zap.Uint64("processed", stats.Processed), zap.Uint64("failed", stats.Failed))
	}, nil
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client, cacheRepo *repository.CacheRepository) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"database": handler.PingFunc(db.PingContext),
	}
	if redisClient != nil {
		checks["redis"] = cacheRepo
	}
	return checks
}
