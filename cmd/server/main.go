package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"stockpulse/backend/internal/cache"
	"stockpulse/backend/internal/config"
	"stockpulse/backend/internal/httpapi"
	"stockpulse/backend/internal/scheduler"
	"stockpulse/backend/internal/service"
	"stockpulse/backend/internal/store"
	"stockpulse/backend/internal/store/memory"
	pgstore "stockpulse/backend/internal/store/postgres"
	"stockpulse/backend/internal/store/redisstore"
	sqlitestore "stockpulse/backend/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	logger := config.NewLogger(cfg)
	if err := validateConfig(cfg); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	startupCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	repo, err := openRepository(startupCtx, cfg)
	if err != nil {
		logger.Fatalf("%s store unavailable: %v", cfg.StoreBackend, err)
	}
	closers = append(closers, repo.Close)
	logger.WithField("backend", cfg.StoreBackend).Info("snapshot repository ready")

	var reports cache.RangeReportCache = cache.NewMemoryRangeReportCache()
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisRangeReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(startupCtx); err != nil {
			logger.WithError(err).Warn("redis unavailable, using in-process report cache")
			_ = redisCache.Close()
		} else {
			reports = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("report cache: redis")
		}
	}

	svc := service.New(repo,
		service.WithLogger(logger),
		service.WithLocation(loc),
		service.WithKeyPrefix(cfg.KeyPrefix),
		service.WithRangeReportCache(reports, cfg.ReportCacheTTL()),
		service.WithSeedDefaults(cfg.SeedDefaults),
	)
	if err := svc.Load(startupCtx); err != nil {
		logger.Fatalf("load state: %v", err)
	}

	job := scheduler.NewSafetyStockJob(svc, cfg.RecomputeCron, loc, logger)
	if err := job.Start(rootCtx); err != nil {
		logger.Fatalf("start scheduler: %v", err)
	}

	api := httpapi.New(svc, cfg.AllowedOrigin, logger)
	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Infof("stockpulse backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.WithError(err).Error("close error")
		}
	}

	logger.Info("server stopped")
}

func openRepository(ctx context.Context, cfg config.Config) (store.Repository, error) {
	switch cfg.StoreBackend {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlitestore.New(ctx, cfg.SQLitePath)
	case "postgres":
		return pgstore.New(ctx, cfg.DatabaseURL)
	case "redis":
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func validateConfig(cfg config.Config) error {
	switch cfg.StoreBackend {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH must be set for the sqlite backend")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL must be set for the postgres backend")
		}
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR must be set for the redis backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, sqlite, postgres, redis; got %q", cfg.StoreBackend)
	}
	if strings.TrimSpace(cfg.RecomputeCron) == "" {
		return fmt.Errorf("RECOMPUTE_CRON must not be empty")
	}
	if strings.TrimSpace(cfg.AllowedOrigin) == "" {
		return fmt.Errorf("ALLOWED_ORIGIN must not be empty")
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}
