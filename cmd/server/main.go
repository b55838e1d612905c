package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/config"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/observability"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sentimentpulse",
	Short: "Feedback ingestion and sentiment dashboard API",
	Long: `sentimentpulse collects customer reviews typed in by account owners,
imported from CSV files or submitted anonymously through shared forms,
classifies each one as positive, neutral or negative and serves per-account
and per-form dashboards.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envErr := godotenv.Load()
		cfg = config.Load()
		observability.InitLogger("sentimentpulse", cfg.LogLevel, !cfg.IsProduction())
		if envErr != nil {
			log.Debug().Msg("No .env file found")
		}
	},
	RunE: runServe,
}

func main() {
	rootCmd.AddCommand(serveCmd, createAdminCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
