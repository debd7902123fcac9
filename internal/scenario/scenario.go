// Package scenario assigns preset work patterns to robot fleets.
package scenario

import (
	"errors"

	"robofleet-sim/internal/telemetry"
)

var (
	// ErrNoRobots is returned when a scenario is requested for zero robots.
	ErrNoRobots = errors.New("scenario needs at least one robot")
	// ErrUnknownScenario is returned for an unrecognized scenario type.
	ErrUnknownScenario = errors.New("unknown scenario type")
)

// Type names a scenario preset.
type Type string

const (
	LawnMowing         Type = "LAWN_MOWING"
	WarehouseLogistics Type = "WAREHOUSE_LOGISTICS"
	Agriculture        Type = "AGRICULTURE"
	Custom             Type = "CUSTOM"
)

// ParseType validates a scenario type name.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case LawnMowing, WarehouseLogistics, Agriculture, Custom:
		return t, nil
	}
	return "", ErrUnknownScenario
}

// WorkPattern describes how a fleet covers its area. Avoidance radius is
// informational.
type WorkPattern struct {
	Type             string  `json:"type" yaml:"type"` // grid, random, waypoint or zone-based
	Coverage         float64 `json:"coverage" yaml:"coverage"`
	Efficiency       float64 `json:"efficiency" yaml:"efficiency"`
	PathOptimization bool    `json:"path_optimization" yaml:"path_optimization"`
	AvoidanceRadius  float64 `json:"avoidance_radius" yaml:"avoidance_radius"`
}

// Zone is a rectangle in meters relative to a scenario's base location.
// X grows east and Y grows south.
type Zone struct {
	Name   string  `json:"name,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (z Zone) scaled(f float64) Zone {
	return Zone{Name: z.Name, X: z.X * f, Y: z.Y * f, Width: z.Width * f, Height: z.Height * f}
}

// Assignment records what a scenario gave one robot.
type Assignment struct {
	RobotID  string                `json:"robot_id"`
	Zone     Zone                  `json:"zone"`
	Status   telemetry.RobotStatus `json:"status"`
	Activity telemetry.Activity    `json:"activity"`
	Path     telemetry.RobotPath   `json:"path"`
}

// Config is the scenario applied to a fleet.
type Config struct {
	Type             Type                      `json:"type"`
	Name             string                    `json:"name"`
	Description      string                    `json:"description"`
	FleetID          string                    `json:"fleet_id"`
	RobotCount       int                       `json:"robot_count"`
	BaseLocation     telemetry.GPSCoordinate   `json:"base_location"`
	AreaSize         float64                   `json:"area_size"`
	WorkPattern      WorkPattern               `json:"work_pattern"`
	ChargingStations []telemetry.GPSCoordinate `json:"charging_stations"`
	Assignments      []Assignment              `json:"assignments"`
}

// Base locations for the presets.
var (
	SiliconValley     = telemetry.GPSCoordinate{Latitude: 37.4419, Longitude: -122.1430, Altitude: 10}
	FarmLand          = telemetry.GPSCoordinate{Latitude: 36.7783, Longitude: -119.4179, Altitude: 100}
	WarehouseDistrict = telemetry.GPSCoordinate{Latitude: 37.8044, Longitude: -122.2712, Altitude: 5}
	CustomBase        = telemetry.GPSCoordinate{Latitude: 37.7749, Longitude: -122.4194, Altitude: 20}
)

// RecommendedScenario picks a preset suited to a fleet size.
func RecommendedScenario(robotCount int) Type {
	switch {
	case robotCount <= 8:
		return Agriculture
	case robotCount <= 12:
		return LawnMowing
	case robotCount <= 20:
		return WarehouseLogistics
	default:
		return Custom
	}
}
