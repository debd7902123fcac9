package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"robofleet-sim/internal/config"
	"robofleet-sim/internal/scenario"
	"robofleet-sim/internal/sim"
	"robofleet-sim/internal/telemetry"
)

func TestNewWritersPrintOnly(t *testing.T) {
	w, cleanup, err := newWriters(config.Default(), writerOptions{PrintOnly: true})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	w, cleanup, err := newWriters(config.Default(), writerOptions{})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.log")
	w, cleanup, err := newWriters(config.Default(), writerOptions{PrintOnly: true, LogFile: path})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := w.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", w)
	}
	u := telemetry.PositionUpdate{
		Header:   telemetry.Header{RobotID: "r1", FleetID: "f1", Timestamp: time.Now()},
		Position: telemetry.GPSCoordinate{Latitude: 37.4, Longitude: -122.1},
	}
	if err := w.Write(u); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cleanup()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected log file to be non-empty")
	}
}

func TestNewWritersKafkaRequiresBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	if _, _, err := newWriters(config.Default(), writerOptions{PrintOnly: true, Kafka: true}); err == nil {
		t.Fatalf("expected error without KAFKA_BROKERS")
	}
}

func TestNewWritersKafka(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092, localhost:9093")
	t.Setenv("KAFKA_TOPIC", "robots")
	w, cleanup, err := newWriters(config.Default(), writerOptions{PrintOnly: true, Kafka: true})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", w)
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		host    string
		port    int
		wantErr bool
	}{
		{"greptime", "greptime", defaultGreptimePort, false},
		{"greptime:5001", "greptime", 5001, false},
		{"greptime:abc", "", 0, true},
	}
	for _, tt := range tests {
		host, port, err := splitEndpoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("splitEndpoint(%q) error = %v", tt.in, err)
		}
		if host != tt.host || port != tt.port {
			t.Errorf("splitEndpoint(%q) = %s:%d, want %s:%d", tt.in, host, port, tt.host, tt.port)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestPrintScenarios(t *testing.T) {
	var buf bytes.Buffer
	if err := printScenarios(&buf, scenario.BuiltIn()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, typ := range []scenario.Type{scenario.LawnMowing, scenario.WarehouseLogistics, scenario.Agriculture, scenario.Custom} {
		if !strings.Contains(out, string(typ)) {
			t.Errorf("expected %s in listing:\n%s", typ, out)
		}
	}
}

func TestScenariosRecommendCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"scenarios", "recommend", "--robots", "15"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != string(scenario.WarehouseLogistics) {
		t.Fatalf("expected %s, got %q", scenario.WarehouseLogistics, got)
	}
}
