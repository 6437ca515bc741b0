package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/busvas-search/app/controllers"
	"github.com/busvas-search/app/services"
	"github.com/busvas-search/internal/bootstrap"
	"github.com/busvas-search/internal/metrics"
	"github.com/busvas-search/routes"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	// Load configuration and initialize logger
	bootstrap.LoadConfig(os.Getenv("CONFIG_FILE"))
	logger := bootstrap.InitLogger()
	defer logger.Sync()

	logger.Info("Starting bus terminal search service")
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra := bootstrap.NewInfra(logger)
	defer infra.Close()

	// Load dataset
	catalog := bootstrap.NewCatalog(logger)
	if err := catalog.Load(ctx); err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}

	// Initialize search cache
	cacheService, err := bootstrap.OpenCache(ctx, infra)
	if err != nil {
		logger.Fatal("Failed to initialize search cache", zap.Error(err))
	}
	defer cacheService.Close()

	// Initialize favorites
	store, err := bootstrap.OpenFavorites(ctx, infra)
	if err != nil {
		logger.Fatal("Failed to open favorites store", zap.Error(err))
	}
	favoritesService := services.NewFavoritesService(store, logger)
	defer favoritesService.Close()

	// Initialize Meilisearch mirror (optional)
	mirror, err := bootstrap.OpenMirror(logger)
	if err != nil {
		logger.Warn("Meilisearch mirror disabled", zap.Error(err))
		mirror = nil
	}

	// Initialize services
	searchService := services.NewSearchService(catalog, cacheService, logger)
	sessionService, err := services.NewSessionService(catalog, favoritesService, viper.GetInt("sessions.max"), logger)
	if err != nil {
		logger.Fatal("Failed to create session registry", zap.Error(err))
	}
	defer sessionService.Close()
	adminService := services.NewAdminService(catalog, searchService, cacheService, sessionService, mirror, logger)

	// Setup router
	if viper.GetString("app.env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, routes.Controllers{
		Search:    controllers.NewSearchController(searchService, catalog, logger),
		Catalog:   controllers.NewCatalogController(catalog, logger),
		Sessions:  controllers.NewSessionController(sessionService, logger),
		Favorites: controllers.NewFavoritesController(favoritesService, logger),
		Admin:     controllers.NewAdminController(adminService, logger),
		Health:    controllers.NewHealthController(catalog, cacheService),
	}, routes.Options{
		RequestsPerMinute: viper.GetInt("ratelimit.requests_per_minute"),
		Burst:             viper.GetInt("ratelimit.burst"),
	}, logger)

	// Start server
	port := viper.GetString("app.port")
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	sessionService.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(bootstrap.GetEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 30))*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
