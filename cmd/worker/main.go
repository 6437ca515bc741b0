package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/busvas-search/app/services"
	"github.com/busvas-search/internal/bootstrap"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// The worker keeps a shared cache (redis, mongo or hybrid) in step with the
// published dataset: it reloads on an interval and, when the dataset version
// changes, drops stale results and warms the principal city searches.
func main() {
	bootstrap.LoadConfig(os.Getenv("CONFIG_FILE"))
	logger := bootstrap.InitLogger()
	defer logger.Sync()

	logger.Info("Starting cache worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra := bootstrap.NewInfra(logger)
	defer infra.Close()

	catalog := bootstrap.NewCatalog(logger)
	if err := catalog.Load(ctx); err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}

	cacheService, err := bootstrap.OpenCache(ctx, infra)
	if err != nil {
		logger.Fatal("Failed to initialize search cache", zap.Error(err))
	}
	defer cacheService.Close()

	searchService := services.NewSearchService(catalog, cacheService, logger)
	adminService := services.NewAdminService(catalog, searchService, cacheService, nil, nil, logger)
	workers := viper.GetInt("worker.warm_workers")

	refresh := func(force bool) {
		result, err := adminService.Reload(ctx)
		if err != nil {
			logger.Error("Reload failed, keeping current dataset", zap.Error(err))
			return
		}
		if !force && result.Version == result.PreviousVersion {
			logger.Debug("Dataset unchanged", zap.String("version", result.Version))
			return
		}
		warmed, err := adminService.WarmCache(ctx, workers)
		if err != nil {
			logger.Warn("Warm up interrupted", zap.Error(err))
			return
		}
		logger.Info("Cache refreshed", zap.String("version", result.Version), zap.Int("searches", warmed))
	}

	refresh(true)

	interval := viper.GetDuration("worker.reload_interval")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker exited")
			return
		case <-ticker.C:
			refresh(false)
		}
	}
}
