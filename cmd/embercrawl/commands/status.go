package commands

import (
	"log/slog"

	"embercrawl/lib/api"

	"github.com/spf13/cobra"
)

var statusBatch *bool

func init() {
	statusBatch = statusCmd.Flags().Bool("batch", false, "The id refers to a batch scrape job.")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Checks an asynchronous job once and prints its state.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		var status *api.JobStatus
		var err error
		if *statusBatch {
			status, err = client.BatchScrapeStatus(cmd.Context(), args[0])
		} else {
			status, err = client.CrawlStatus(cmd.Context(), args[0])
		}
		if err != nil {
			fatal("failed to check status", err)
		}

		slog.Info("job status",
			"status", status.Status,
			"completed", status.Completed,
			"total", status.Total,
			"credits", status.CreditsUsed,
		)
		if len(status.Data) > 0 {
			printJSON(status.Data)
		}
	},
}
