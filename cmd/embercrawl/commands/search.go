package commands

import (
	"log/slog"
	"os"

	"embercrawl/lib/api"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchLimit *int

func init() {
	searchLimit = searchCmd.Flags().Int("limit", 5, "Maximum number of results.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Runs a web search and prints the results.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		result, err := client.Search(cmd.Context(), args[0], &api.SearchOptions{
			Limit: *searchLimit,
		})
		if err != nil {
			fatal("failed to search", err)
		}
		if result.Warning != "" {
			slog.Warn("search returned a warning", "warning", result.Warning)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Title", "URL", "Description"})
		for _, doc := range result.Documents {
			if doc.Metadata == nil {
				continue
			}
			t.AppendRow(table.Row{
				doc.Metadata.Title,
				doc.Metadata.SourceURL,
				doc.Metadata.Description,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
