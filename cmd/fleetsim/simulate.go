package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"robofleet-sim/internal/admin"
	"robofleet-sim/internal/config"
	"robofleet-sim/internal/logging"
	"robofleet-sim/internal/scenario"
	"robofleet-sim/internal/sim"
	"robofleet-sim/internal/telemetry"
)

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simLogFile    string
	simTUI        bool
	simAdminAddr  string
	simKafka      bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time fleet simulator",
	Long:  "simulate brings up the configured fleets and streams their telemetry until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}

		log := logging.New(logging.ParseLevel(logLevel))
		var accessLog io.Writer = os.Stdout
		if simTUI {
			log = logging.NewWriter(io.Discard, logging.ParseLevel(logLevel))
			accessLog = io.Discard
		}
		log = log.With("cluster_id", cfg.ClusterID)

		writer, cleanup, err := newWriters(cfg, writerOptions{
			PrintOnly: simPrintOnly,
			LogFile:   simLogFile,
			TUI:       simTUI,
			Kafka:     simKafka,
			Log:       log,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		hub := sim.NewHub(log)
		defer hub.Close()
		out := sim.NewMultiWriter(writer, hub)

		gen := telemetry.NewGenerator(cfg.Generator, telemetry.WithLogger(log))
		scenarios := scenario.NewManager(gen, scenario.WithLogger(log))
		metrics := sim.NewMetrics()
		svc := sim.NewService(gen, scenarios, out,
			sim.WithMetrics(metrics),
			sim.WithServiceLogger(log),
			sim.WithClusterID(cfg.ClusterID))

		for _, spec := range cfg.Fleets {
			if _, err := svc.InitializeFleet(spec); err != nil {
				return fmt.Errorf("fleet %s: %w", spec.ID, err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if simAdminAddr != "" {
			srv := admin.NewServer(svc,
				admin.WithStream(hub),
				admin.WithMetricsHandler(metrics.Handler()),
				admin.WithLogger(log),
				admin.WithAccessLog(accessLog))
			go func() {
				out.SetAdminStatus(true)
				if err := srv.Run(ctx, simAdminAddr); err != nil {
					log.Error("admin server failed", "err", err)
				}
				out.SetAdminStatus(false)
			}()
		}

		svc.Start()
		err = svc.Run(ctx)
		svc.Stop()
		log.Info("fleet simulation stopped")
		return err
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to DB")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "", "Path to CUE schema file (defaults to the built-in schema)")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export telemetry and event logs (JSONL)")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Show the interactive fleet monitor")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin API listen address (empty to disable)")
	simulateCmd.Flags().BoolVar(&simKafka, "kafka", false, "Also publish telemetry to Kafka (KAFKA_BROKERS, KAFKA_TOPIC)")
}
