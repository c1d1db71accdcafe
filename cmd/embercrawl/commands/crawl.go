package commands

import (
	"fmt"
	"log/slog"
	"time"

	"embercrawl/lib/api"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	crawlLimit          *int
	crawlMaxDepth       *int
	crawlWait           *bool
	crawlWatch          *bool
	crawlIdempotencyKey *string
)

func init() {
	crawlLimit = crawlCmd.Flags().Int("limit", 0, "Maximum number of pages to crawl.")
	crawlMaxDepth = crawlCmd.Flags().Int("max-depth", 0, "Maximum crawl depth relative to the start URL.")
	crawlWait = crawlCmd.Flags().Bool("wait", false, "Block until the crawl finishes and print the result.")
	crawlWatch = crawlCmd.Flags().Bool("watch", false, "Stream crawled pages over a websocket as they arrive.")
	crawlIdempotencyKey = crawlCmd.Flags().String("idempotency-key", "", "Key for server-side submission deduplication. Generated when empty.")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Starts a crawl job, optionally waiting for or watching it.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		key := *crawlIdempotencyKey
		if key == "" {
			key = uuid.NewString()
		}
		opts := &api.CrawlOptions{
			Limit:          *crawlLimit,
			MaxDepth:       *crawlMaxDepth,
			IdempotencyKey: key,
		}

		if *crawlWait {
			t1 := time.Now()
			status, err := client.Crawl(cmd.Context(), args[0], opts)
			if err != nil {
				fatal("crawl failed", err)
			}
			slog.Info("crawl finished",
				"pages", len(status.Data),
				"credits", status.CreditsUsed,
				"seconds", time.Since(t1).Seconds(),
			)
			printJSON(status.Data)
			return
		}

		job, err := client.StartCrawl(cmd.Context(), args[0], opts)
		if err != nil {
			fatal("failed to start crawl", err)
		}
		slog.Info("crawl started", "id", job.ID)

		if !*crawlWatch {
			fmt.Println(job.ID)
			return
		}

		watcher, err := client.WatchCrawl(cmd.Context(), job.ID)
		if err != nil {
			fatal("failed to watch crawl", err)
		}
		defer watcher.Close()

		watcher.On(api.EventDocument, func(ev api.Event) {
			url := ""
			if ev.Document != nil && ev.Document.Metadata != nil {
				url = ev.Document.Metadata.SourceURL
			}
			slog.Info("page crawled", "url", url)
		})
		watcher.On(api.EventDone, func(ev api.Event) {
			slog.Info("crawl finished", "pages", len(ev.Documents))
		})
		watcher.On(api.EventError, func(ev api.Event) {
			slog.Error("crawl failed", "err", ev.Error)
		})

		if err := watcher.Watch(cmd.Context()); err != nil {
			fatal("watch interrupted", err)
		}
	},
}
