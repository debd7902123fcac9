package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"robofleet-sim/internal/config"
	"robofleet-sim/internal/sim"
)

const defaultGreptimePort = 4001

// writerOptions selects the sinks for a run.
type writerOptions struct {
	PrintOnly bool
	LogFile   string
	TUI       bool
	Kafka     bool
	Log       *slog.Logger
}

// newWriters builds the telemetry writer for a run from flags and env vars.
// The returned cleanup closes every sink that holds resources.
func newWriters(cfg *config.SimulationConfig, opts writerOptions) (sim.TelemetryWriter, func(), error) {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	writers := []sim.TelemetryWriter{}

	base, err := baseWriter(cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	writers = append(writers, base)

	if opts.Kafka {
		brokers := splitList(os.Getenv("KAFKA_BROKERS"))
		topic := os.Getenv("KAFKA_TOPIC")
		if topic == "" {
			topic = "robot-telemetry"
		}
		kw, err := sim.NewKafkaWriter(brokers, topic, opts.Log)
		if err != nil {
			closeAll(writers)
			return nil, nil, err
		}
		writers = append(writers, kw)
	}

	if opts.LogFile != "" {
		fw, err := sim.NewFileWriter(opts.LogFile, opts.LogFile+".events")
		if err != nil {
			closeAll(writers)
			return nil, nil, err
		}
		writers = append(writers, fw)
	}

	if len(writers) == 1 {
		return base, func() { closeAll(writers) }, nil
	}
	mw := sim.NewMultiWriter(writers...)
	return mw, func() { _ = mw.Close() }, nil
}

// baseWriter chooses between the terminal and GreptimeDB.
func baseWriter(cfg *config.SimulationConfig, opts writerOptions) (sim.TelemetryWriter, error) {
	if opts.TUI {
		return sim.NewTUIWriter(cfg), nil
	}
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if opts.PrintOnly || endpoint == "" {
		return sim.NewStdoutWriter(cfg), nil
	}
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	return sim.NewGreptimeDBWriter(host, port, database, opts.Log)
}

// splitEndpoint parses host or host:port.
func splitEndpoint(endpoint string) (string, int, error) {
	if !strings.Contains(endpoint, ":") {
		return endpoint, defaultGreptimePort, nil
	}
	host, p, err := net.SplitHostPort(endpoint)
	if err != nil {
		return "", 0, fmt.Errorf("invalid GREPTIMEDB_ENDPOINT %q: %w", endpoint, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid GREPTIMEDB_ENDPOINT port %q: %w", p, err)
	}
	return host, port, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func closeAll(writers []sim.TelemetryWriter) {
	for _, w := range writers {
		if c, ok := w.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}
