package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/busvas-search/app/models"
	"github.com/busvas-search/app/services"
	"github.com/busvas-search/internal/bootstrap"
	"github.com/spf13/cobra"
)

var owner string
var favorite models.FavoriteRoute

// favoritesCmd represents the favorites command
var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage stored favorite routes",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the stored routes of an owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFavorites(cmd, func(ctx context.Context, fs *services.FavoritesService) error {
			routes, err := fs.List(ctx, owner)
			if err != nil {
				return err
			}
			printFavorites(cmd, routes)
			return nil
		})
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Add a route to the favorites, or remove it when already stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if favorite.Destination == "" || favorite.Time == "" {
			return fmt.Errorf("--destino and --hora are required")
		}
		return withFavorites(cmd, func(ctx context.Context, fs *services.FavoritesService) error {
			routes, added, err := fs.Toggle(ctx, owner, favorite)
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintln(cmd.OutOrStdout(), "Added")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Removed")
			}
			printFavorites(cmd, routes)
			return nil
		})
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <index>",
	Short: "Delete the route at a position of the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid index %q: %w", args[0], err)
		}
		return withFavorites(cmd, func(ctx context.Context, fs *services.FavoritesService) error {
			routes, err := fs.RemoveAt(ctx, owner, index)
			if err != nil {
				return err
			}
			printFavorites(cmd, routes)
			return nil
		})
	},
}

var favoritesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored route of an owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFavorites(cmd, func(ctx context.Context, fs *services.FavoritesService) error {
			if err := fs.Clear(ctx, owner); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Favorites cleared")
			return nil
		})
	},
}

func init() {
	favoritesCmd.PersistentFlags().StringVar(&owner, "owner", "local", "favorites list to operate on")

	favoritesToggleCmd.Flags().StringVar(&favorite.Cooperative, "coop", "", "cooperative name")
	favoritesToggleCmd.Flags().StringVar(&favorite.Origin, "origen", "", "origin terminal")
	favoritesToggleCmd.Flags().StringVar(&favorite.Destination, "destino", "", "destination")
	favoritesToggleCmd.Flags().StringVar(&favorite.Time, "hora", "", "departure time")
	favoritesToggleCmd.Flags().StringVar(&favorite.Price, "precio", "", "fare as published, without the $ sign")

	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
	favoritesCmd.AddCommand(favoritesClearCmd)
}

// withFavorites opens the configured favorites store without loading the dataset
func withFavorites(cmd *cobra.Command, fn func(ctx context.Context, fs *services.FavoritesService) error) error {
	ctx := cmd.Context()
	logger := newLogger()
	infra := bootstrap.NewInfra(logger)
	defer infra.Close()

	store, err := bootstrap.OpenFavorites(ctx, infra)
	if err != nil {
		return fmt.Errorf("failed to open favorites store: %w", err)
	}
	fs := services.NewFavoritesService(store, logger)
	defer fs.Close()
	return fn(ctx, fs)
}

func printFavorites(cmd *cobra.Command, routes []models.FavoriteRoute) {
	out := cmd.OutOrStdout()
	if len(routes) == 0 {
		fmt.Fprintln(out, "No favorite routes")
		return
	}
	for i, r := range routes {
		mark := " "
		if r.IsFavorite {
			mark = "*"
		}
		fmt.Fprintf(out, "%2d %s %-24s %-20s %-20s %s %s\n", i, mark, r.Cooperative, r.Origin, r.Destination, r.Time, r.Price)
	}
}
