package cli

import (
	"context"
	"fmt"

	"github.com/busvas-search/app/services"
	"github.com/busvas-search/internal/bootstrap"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var warmWorkers int

// warmCmd represents the warm command
var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Fill the search cache with every terminal to principal city search",
	Long: `Run each terminal against each principal city of the dataset and store
the results in the configured cache. Entries of older dataset versions are
dropped first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.cache.InvalidateByDatasetVersion(ctx, a.catalog.Version()); err != nil {
				return fmt.Errorf("failed to invalidate stale entries: %w", err)
			}

			bar := progressbar.NewOptions(a.searches.WarmUpSize(),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("warming"),
				progressbar.OptionShowCount(),
			)
			warmed, err := a.searches.WarmUpWithProgress(ctx, warmWorkers, func() { bar.Add(1) })
			bar.Finish()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Warmed %d searches for dataset %s\n", warmed, a.catalog.Version())
			return nil
		})
	},
}

// seedMeiliCmd represents the seed-meili command
var seedMeiliCmd = &cobra.Command{
	Use:   "seed-meili",
	Short: "Push routes and synonyms into the Meilisearch mirror",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			mirror, err := bootstrap.OpenMirror(a.logger)
			if err != nil {
				return fmt.Errorf("failed to connect to Meilisearch: %w", err)
			}
			if mirror == nil {
				return services.ErrMirrorDisabled
			}

			admin := services.NewAdminService(a.catalog, a.searches, a.cache, nil, mirror, a.logger)
			spinner := progressbar.NewOptions(-1,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("seeding "+viper.GetString("meilisearch.index")),
				progressbar.OptionSpinnerType(14),
			)
			result, err := admin.SeedMeili(ctx)
			spinner.Finish()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d routes and %d synonym groups in %dms\n",
				result.Documents, result.SynonymGroups, result.ProcessingTimeMs)
			return nil
		})
	},
}

func init() {
	warmCmd.Flags().IntVar(&warmWorkers, "workers", 8, "concurrent searches")
}
