package commands

import (
	"fmt"

	"embercrawl/lib/api"

	"github.com/spf13/cobra"
)

var (
	mapSearch     *string
	mapSubdomains *bool
	mapLimit      *int
)

func init() {
	mapSearch = mapCmd.Flags().String("search", "", "Filter discovered URLs by a search term.")
	mapSubdomains = mapCmd.Flags().Bool("subdomains", false, "Include subdomains.")
	mapLimit = mapCmd.Flags().Int("limit", 0, "Maximum number of URLs to return.")
	rootCmd.AddCommand(mapCmd)
}

var mapCmd = &cobra.Command{
	Use:   "map <url>",
	Short: "Discovers the URLs reachable under a site.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		opts := &api.MapOptions{
			Search: *mapSearch,
			Limit:  *mapLimit,
		}
		if *mapSubdomains {
			opts.IncludeSubdomains = mapSubdomains
		}

		result, err := client.MapURL(cmd.Context(), args[0], opts)
		if err != nil {
			fatal("failed to map site", err)
		}
		for _, link := range result.Links {
			fmt.Println(link)
		}
	},
}
