package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"robofleet-sim/internal/telemetry"
)

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := Load("testdata/valid.yaml", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ClusterID != "test-01" {
		t.Errorf("expected cluster test-01, got %s", cfg.ClusterID)
	}
	g := cfg.Generator
	if g.TimeAcceleration != 10 || g.UpdateIntervals.Position != 200*time.Millisecond || g.UpdateIntervals.Status != 2*time.Second {
		t.Errorf("unexpected generator config %+v", g)
	}
	// unset keys keep their defaults
	if g.UpdateIntervals.Metrics != 5*time.Second || !g.Enabled || g.BufferSize != 1024 {
		t.Errorf("defaults not kept: %+v", g)
	}
	fi := g.FailureInjection
	if !fi.Enabled || fi.MeanTimeToRecovery != time.Minute || len(fi.Types) != 2 || fi.Types[0] != telemetry.FailureGPSDrift {
		t.Errorf("unexpected failure injection %+v", fi)
	}
	if len(cfg.Fleets) != 2 {
		t.Fatalf("expected 2 fleets, got %d", len(cfg.Fleets))
	}
	p := cfg.Fleets[1]
	if p.Scenario != "CUSTOM" || len(p.RobotIDs) != 2 || p.BaseLocation == nil || p.BaseLocation.Longitude != -74.006 {
		t.Errorf("unexpected fleet %+v", p)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	for _, path := range []string{"testdata/invalid.yaml", "testdata/unknown_field.yaml", "testdata/missing.yaml"} {
		if _, err := Load(path, ""); err == nil {
			t.Errorf("expected error for %s", path)
		}
	}
}

func TestLoadConfig_CustomSchema(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "strict.cue")
	if err := os.WriteFile(schema, []byte("#Simulation: {fleets: [...{id: \"only\"}]}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("testdata/valid.yaml", schema); err == nil {
		t.Fatal("expected strict schema to reject config")
	}
	if _, err := Load("testdata/valid.yaml", filepath.Join(dir, "nope.cue")); err == nil {
		t.Fatal("expected error for missing schema file")
	}
}

func TestClusterIDFromEnv(t *testing.T) {
	t.Setenv("CLUSTER_ID", "env-cluster")
	cfg, err := Load("testdata/valid.yaml", "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClusterID != "env-cluster" {
		t.Errorf("expected env override, got %s", cfg.ClusterID)
	}
}

func TestLoadConfig_Shipped(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "simulation.yaml"), "")
	if err != nil {
		t.Fatalf("shipped config should validate: %v", err)
	}
	if len(cfg.Fleets) != 4 {
		t.Fatalf("expected 4 fleets, got %d", len(cfg.Fleets))
	}
}
