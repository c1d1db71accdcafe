package commands

import (
	"os"

	"embercrawl/lib/api"

	"github.com/spf13/cobra"
	"github.com/titanous/json5"
)

var (
	extractPrompt     *string
	extractSchemaFile *string
)

func init() {
	extractPrompt = extractCmd.Flags().String("prompt", "", "Natural-language description of the data to extract.")
	extractSchemaFile = extractCmd.Flags().String("schema", "", "Path to a JSON schema describing the output shape.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract [--prompt <prompt>] [--schema <file>] [url...]",
	Short: "Extracts structured data from a set of URLs.",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		opts := &api.ExtractOptions{
			URLs:   args,
			Prompt: *extractPrompt,
		}
		if *extractSchemaFile != "" {
			contents, err := os.ReadFile(*extractSchemaFile)
			if err != nil {
				fatal("failed to read schema file", err)
			}
			var schema map[string]any
			if err := json5.Unmarshal(contents, &schema); err != nil {
				fatal("failed to parse schema file", err)
			}
			opts.Schema = schema
		}

		status, err := client.Extract(cmd.Context(), opts)
		if err != nil {
			fatal("extract failed", err)
		}
		printJSON(status)
	},
}
