// Package cmd implements the tripal command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripalhq/tripal/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "tripal",
	Short: "tripal - 旅行プランを提案する対話型アシスタント",
	Long: `tripal is a conversational travel planning assistant.

It suggests destinations via TripAdvisor, finds hotels via Rakuten Travel,
and streams its answers token by token. Running tripal without a subcommand
starts the interactive console.`,
	SilenceUsage: true,
	RunE:         runChat,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogger builds the process logger. DEBUG in the environment switches
// on debug-level output.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
