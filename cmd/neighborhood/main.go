package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/neighborhood/internal/app"
	"github.com/ternarybob/neighborhood/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Later files override earlier ones
	serverPort  int
	serverHost  string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "neighborhood",
	Short: "Civic knowledge service for municipalities",
	Long: `neighborhood ingests municipal web pages, meeting transcripts and PDFs into a
per-project knowledge base and answers resident questions with citations.

Run without a subcommand to start the HTTP service.`,
	Version:           common.GetVersion(),
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().IntVarP(&serverPort, "port", "p", 0, "Server port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "", "Server host (overrides config)")

	rootCmd.AddCommand(serveCmd, ingestCmd, queryCmd, projectCmd, sourceCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig runs the startup sequence in order: config files, env, CLI
// overrides, then the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("neighborhood.toml"); err == nil {
			configFiles = append(configFiles, "neighborhood.toml")
		} else if _, err := os.Stat("deployments/local/neighborhood.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/neighborhood.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	common.ApplyFlagOverrides(config, serverPort, serverHost)
	logger = common.InitLogger(config)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("data_dir", config.Storage.DataDir).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Msg("Resolved configuration")
	return nil
}

// newApp builds the application for a one-shot command. The scheduler stays off
// so a command never starts cron re-syncs.
func newApp() (*app.App, error) {
	config.Scheduler.Enabled = false
	return app.New(config, logger)
}
