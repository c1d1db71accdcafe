package commands

import (
	"fmt"
	"log/slog"

	"embercrawl/lib/api"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	batchFormats        *[]string
	batchWait           *bool
	batchIdempotencyKey *string
)

func init() {
	batchFormats = batchCmd.Flags().StringSlice("format", []string{api.FormatMarkdown}, "Content formats to request.")
	batchWait = batchCmd.Flags().Bool("wait", false, "Block until the batch finishes and print the result.")
	batchIdempotencyKey = batchCmd.Flags().String("idempotency-key", "", "Key for server-side submission deduplication. Generated when empty.")
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch <url> [url...]",
	Short: "Starts a batch scrape job over a set of URLs.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		key := *batchIdempotencyKey
		if key == "" {
			key = uuid.NewString()
		}
		opts := &api.BatchScrapeOptions{
			ScrapeOptions:  api.ScrapeOptions{Formats: *batchFormats},
			IdempotencyKey: key,
		}

		if *batchWait {
			status, err := client.BatchScrape(cmd.Context(), args, opts)
			if err != nil {
				fatal("batch scrape failed", err)
			}
			slog.Info("batch scrape finished",
				"pages", len(status.Data),
				"credits", status.CreditsUsed,
			)
			printJSON(status.Data)
			return
		}

		job, err := client.StartBatchScrape(cmd.Context(), args, opts)
		if err != nil {
			fatal("failed to start batch scrape", err)
		}
		slog.Info("batch scrape started", "id", job.ID)
		fmt.Println(job.ID)
	},
}
