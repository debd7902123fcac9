// YAML config loader with CUE validation integration
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"robofleet-sim/internal/telemetry"
)

//go:embed schema.cue
var defaultSchema []byte

// FleetSpec describes one fleet to bring up at startup.
type FleetSpec struct {
	ID           string                   `yaml:"id" json:"fleet_id"`
	Name         string                   `yaml:"name" json:"name,omitempty"`
	Scenario     string                   `yaml:"scenario" json:"type,omitempty"`
	RobotCount   int                      `yaml:"robot_count" json:"robot_count,omitempty"`
	RobotIDs     []string                 `yaml:"robot_ids" json:"robot_ids,omitempty"`
	BaseLocation *telemetry.GPSCoordinate `yaml:"base_location" json:"base_location,omitempty"`
	AreaSize     float64                  `yaml:"area_size" json:"area_size,omitempty"`
	CustomFile   string                   `yaml:"custom_file" json:"-"`
}

// SimulationConfig is the root configuration for the generator and fleets.
type SimulationConfig struct {
	ClusterID string           `yaml:"cluster_id"`
	Generator telemetry.Config `yaml:"generator"`
	Fleets    []FleetSpec      `yaml:"fleets"`
}

// Default returns a configuration with the generator defaults and no fleets.
func Default() *SimulationConfig {
	return &SimulationConfig{ClusterID: "local", Generator: telemetry.DefaultConfig()}
}

// Load loads YAML config and validates it against a CUE schema. An empty
// schema path uses the built-in schema.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read YAML config: %w", err)
	}
	schema := defaultSchema
	if cueSchemaPath != "" {
		if schema, err = os.ReadFile(cueSchemaPath); err != nil {
			return nil, fmt.Errorf("cannot read CUE schema: %w", err)
		}
	}
	if err := Validate(configPath, data, schema); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal YAML config: %w", err)
	}
	if v := os.Getenv("CLUSTER_ID"); v != "" {
		cfg.ClusterID = v
	}
	return cfg, nil
}

// Validate checks YAML data against the #Simulation definition of a CUE schema.
func Validate(filename string, data, schema []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileBytes(schema)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Simulation"))
	if !def.Exists() {
		return fmt.Errorf("CUE schema has no #Simulation definition")
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(file)
	if err := configVal.Err(); err != nil {
		return fmt.Errorf("cannot build YAML config: %w", err)
	}

	if err := def.Unify(configVal).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
