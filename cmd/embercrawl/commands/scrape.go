package commands

import (
	"fmt"

	"embercrawl/lib/api"

	"github.com/spf13/cobra"
)

var (
	scrapeFormats  *[]string
	scrapeMainOnly *bool
	scrapeTimeout  *int
	scrapeAsJSON   *bool
)

func init() {
	scrapeFormats = scrapeCmd.Flags().StringSlice("format", []string{api.FormatMarkdown}, "Content formats to request.")
	scrapeMainOnly = scrapeCmd.Flags().Bool("main-content", false, "Strip navigation, footers and other chrome.")
	scrapeTimeout = scrapeCmd.Flags().Int("timeout", 0, "Server-side timeout in milliseconds.")
	scrapeAsJSON = scrapeCmd.Flags().Bool("json", false, "Print the full document as JSON.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrapes a single URL and prints its content.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		opts := &api.ScrapeOptions{
			Formats: *scrapeFormats,
			Timeout: *scrapeTimeout,
		}
		if *scrapeMainOnly {
			opts.OnlyMainContent = scrapeMainOnly
		}

		doc, err := client.Scrape(cmd.Context(), args[0], opts)
		if err != nil {
			fatal("failed to scrape", err)
		}

		if *scrapeAsJSON {
			printJSON(doc)
			return
		}
		if doc.Markdown != "" {
			fmt.Println(doc.Markdown)
			return
		}
		printJSON(doc)
	},
}
