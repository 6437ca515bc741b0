// Package cli implements the busvas command line: offline searches against
// the published dataset, favorites maintenance and cache/mirror upkeep.
package cli

import (
	"context"
	"fmt"

	"github.com/busvas-search/app/services"
	"github.com/busvas-search/internal/bootstrap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string
var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "busvas",
	Short: "Search Ecuadorian bus terminals from the command line",
	Long: `busvas resolves an origin to a terminal, finds the cooperatives that
serve a destination from there and prints their schedules and fares.

It also manages stored favorite routes and keeps the search cache and the
Meilisearch mirror in step with the published dataset.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/app.yaml)")
	rootCmd.PersistentFlags().String("data", "", "directory holding data.json, coop.json and sinonimos.json")
	rootCmd.PersistentFlags().String("cache", "", "search cache backend: memory, redis, mongo or hybrid")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	viper.BindPFlag("data.root", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("cache.backend", rootCmd.PersistentFlags().Lookup("cache"))

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(featuredCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(warmCmd)
	rootCmd.AddCommand(seedMeiliCmd)
}

func initConfig() {
	bootstrap.LoadConfig(cfgFile)
}

// app is the set of services a single command run needs
type app struct {
	logger   *zap.Logger
	infra    *bootstrap.Infra
	catalog  *services.CatalogService
	cache    services.ICacheService
	searches *services.SearchService
}

func newLogger() *zap.Logger {
	if verbose {
		return bootstrap.InitLogger()
	}
	return zap.NewNop()
}

// openApp loads the dataset and opens the configured search cache
func openApp(ctx context.Context) (*app, error) {
	logger := newLogger()
	infra := bootstrap.NewInfra(logger)

	catalog := bootstrap.NewCatalog(logger)
	if err := catalog.Load(ctx); err != nil {
		infra.Close()
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	cache, err := bootstrap.OpenCache(ctx, infra)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("failed to open search cache: %w", err)
	}

	return &app{
		logger:   logger,
		infra:    infra,
		catalog:  catalog,
		cache:    cache,
		searches: services.NewSearchService(catalog, cache, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("Cannot close search cache", zap.Error(err))
	}
	a.infra.Close()
	a.logger.Sync()
}

// withApp opens the services, runs fn and closes them again
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
