package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		applog.New(applog.DefaultConfig()).Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		level = applog.DefaultConfig().Level
	}
	logger := applog.New(applog.Config{Level: level, Component: applog.ComponentApp})
	applog.SetDefault(logger)

	repo, err := storage.New(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "db_path", cfg.DBPath)
		os.Exit(1)
	}
	defer repo.Close()

	cacheManager := cache.NewManager()
	analyticsCache := cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL)
	cacheManager.Register(analyticsCache)
	cacheManager.StartCleanup(cfg.CacheCleanup)
	defer cacheManager.Stop()

	analytics := services.NewAnalyticsService(repo, analyticsCache)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		CleanupInterval:   cfg.RateLimitCleanup,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Repo:         repo,
		Categories:   services.NewCategoryService(repo, analytics),
		Transactions: services.NewTransactionService(repo, analytics),
		Analytics:    analytics,
		Profiles:     services.NewProfileService(repo),
		Auth:         auth.NewHeaderProvider(),
		Limiter:      limiter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port, "db_path", cfg.DBPath)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
