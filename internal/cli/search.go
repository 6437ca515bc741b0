package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/busvas-search/app/models"
	"github.com/spf13/cobra"
)

var noCache bool
var suggestLimit int

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <origin> [destination]",
	Short: "Find the cooperatives serving a destination from an origin",
	Long: `Resolve the origin to a province and terminal, then list the cooperatives
whose routes match the destination. Without a destination only the
resolved location is printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		destination := ""
		if len(args) == 2 {
			destination = args[1]
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			result, err := a.searches.Search(ctx, args[0], destination, !noCache)
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		})
	},
}

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest <prefix>",
	Short: "List place names completing a prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			for _, name := range a.catalog.Suggest(args[0], suggestLimit) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		})
	},
}

// featuredCmd represents the featured command
var featuredCmd = &cobra.Command{
	Use:   "featured",
	Short: "Show the best rated cooperatives",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			featured, err := a.catalog.Featured()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range featured {
				fmt.Fprintf(out, "%-28s %-30s %s %.1f\n", f.Name, f.TerminalName, stars(f.Stars.Full, f.Stars.Half, f.Stars.Empty), f.Rating)
			}
			return nil
		})
	},
}

// routesCmd represents the routes command
var routesCmd = &cobra.Command{
	Use:   "routes <destination>",
	Short: "List every route reaching a destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			routes, err := a.catalog.RoutesTo(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(routes) == 0 {
				fmt.Fprintf(out, "No routes to %s\n", args[0])
				return nil
			}
			for _, r := range routes {
				fmt.Fprintf(out, "%-30s %-28s %-20s %s\n", r.TerminalName, r.CooperativeName, strings.Join(r.Schedules, " "), r.Price)
			}
			return nil
		})
	},
}

func init() {
	searchCmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the search cache")
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 10, "maximum number of suggestions")
}

func printResult(cmd *cobra.Command, result *models.SearchResult) {
	out := cmd.OutOrStdout()
	if loc := result.Location; loc != nil {
		fmt.Fprintf(out, "Origin: %s, %s (%s)\n", loc.TerminalName, loc.ProvinceName, loc.Rule)
	} else {
		fmt.Fprintf(out, "Origin %q not found\n", result.Query.Origin)
	}

	switch result.Status {
	case models.StatusNoDestination:
		return
	case models.StatusNoMatches:
		fmt.Fprintf(out, "No cooperatives serve %s\n", result.Query.Destination)
		return
	}

	for _, m := range result.Matches {
		fmt.Fprintf(out, "%-28s %-24s %-20s %s\n", m.CooperativeName, m.Destination, strings.Join(m.Schedules, " "), m.Price)
	}
}

func stars(full, half, empty int) string {
	return strings.Repeat("★", full) + strings.Repeat("½", half) + strings.Repeat("☆", empty)
}
