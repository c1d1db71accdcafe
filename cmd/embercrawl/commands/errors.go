package commands

import (
	"fmt"
	"os"

	"embercrawl/lib/api"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var errorsBatch *bool

func init() {
	errorsBatch = errorsCmd.Flags().Bool("batch", false, "The id refers to a batch scrape job.")
	rootCmd.AddCommand(errorsCmd)
}

var errorsCmd = &cobra.Command{
	Use:   "errors <id>",
	Short: "Prints per-URL failures and robots.txt blocks for a job.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		var jobErrors *api.JobErrors
		var err error
		if *errorsBatch {
			jobErrors, err = client.BatchScrapeErrors(cmd.Context(), args[0])
		} else {
			jobErrors, err = client.CrawlErrors(cmd.Context(), args[0])
		}
		if err != nil {
			fatal("failed to fetch job errors", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"URL", "Timestamp", "Error"})
		for _, e := range jobErrors.Errors {
			t.AppendRow(table.Row{e.URL, e.Timestamp, e.Error})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		for _, blocked := range jobErrors.RobotsBlocked {
			fmt.Println("robots.txt blocked:", blocked)
		}
	},
}
