package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cancelCmd)
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancels a running crawl job.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		if err := client.CancelCrawl(cmd.Context(), args[0]); err != nil {
			fatal("failed to cancel crawl", err)
		}
		slog.Info("crawl cancelled", "id", args[0])
	},
}
