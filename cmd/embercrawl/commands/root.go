package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"embercrawl/lib/api"
	"embercrawl/lib/configutil"
	"embercrawl/lib/telemetry"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Config holds CLI credentials. EMBERCRAWL_API_KEY and
// EMBERCRAWL_API_URL take effect when the config file is absent.
type Config struct {
	APIKey string `json:"api_key"`
	APIURL string `json:"api_url"`
}

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "embercrawl",
	Short: "embercrawl is a CLI for the Embercrawl scraping service.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		godotenv.Load()
		telemetry.InitSlog(*verbose)
		if _, err := telemetry.SetupFromEnv(cmd.Context(), "embercrawl"); err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

func newClient() *api.Client {
	cfg, err := configutil.ReadRecursively[Config]("embercrawl.json5")
	if err != nil && !os.IsNotExist(err) {
		fatal("failed to read config", err)
	}
	client, err := api.NewClient(api.ClientOptions{
		APIKey: cfg.APIKey,
		APIURL: cfg.APIURL,
	})
	if err != nil {
		fatal("failed to initialize client", err)
	}
	return client
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("failed to encode output", err)
	}
	fmt.Println(string(out))
}
