package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"robofleet-sim/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "fleetsim",
	Short: "Robot fleet telemetry simulator",
	Long:  "fleetsim simulates mobile robot fleets and streams their telemetry to GreptimeDB, Kafka, files or the terminal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(logging.New(logging.ParseLevel(logLevel)))
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(dashboardCmd)
}
