package scenario

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"robofleet-sim/internal/geo"
	"robofleet-sim/internal/telemetry"
)

// Fleet is the part of the telemetry generator a scenario drives.
type Fleet interface {
	InitializeRobot(robotID, fleetID string, start telemetry.GPSCoordinate, status telemetry.RobotStatus) error
	SetRobotPath(robotID string, path telemetry.RobotPath) error
	SetRobotMotion(robotID string, activity telemetry.Activity, speed float64) error
}

// Manager applies scenarios to fleets and keeps the active one per fleet.
type Manager struct {
	fleet Fleet
	log   *slog.Logger

	mu     sync.RWMutex
	rng    *rand.Rand
	active map[string]Config
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRand sets the random source used for jittered routes and speeds.
func WithRand(r *rand.Rand) Option { return func(m *Manager) { m.rng = r } }

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.log = l } }

// NewManager creates a scenario manager driving fleet.
func NewManager(fleet Fleet, opts ...Option) *Manager {
	m := &Manager{fleet: fleet, active: make(map[string]Config)}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// Site overrides where a preset runs. Zero values keep the preset's own base
// location and area size.
type Site struct {
	BaseLocation *telemetry.GPSCoordinate
	AreaSize     float64
}

func (s Site) resolve(base telemetry.GPSCoordinate, area float64) (telemetry.GPSCoordinate, float64) {
	if s.BaseLocation != nil {
		base = *s.BaseLocation
	}
	if s.AreaSize > 0 {
		area = s.AreaSize
	}
	return base, area
}

// InitializeLawnMowing tiles a square property into ceil(sqrt(n))^2 zones and
// mows one zone per robot.
func (m *Manager) InitializeLawnMowing(fleetID string, robotIDs []string, site Site) (Config, error) {
	if len(robotIDs) == 0 {
		return Config{}, ErrNoRobots
	}
	const speed = 0.8
	base, property := site.resolve(SiliconValley, 200)
	perRow := int(math.Ceil(math.Sqrt(float64(len(robotIDs)))))
	side := property / float64(perRow)

	assignments := make([]Assignment, 0, len(robotIDs))
	for i, id := range robotIDs {
		zone := Zone{
			Name:   fmt.Sprintf("zone-%d-%d", i/perRow, i%perRow),
			X:      float64(i%perRow) * side,
			Y:      float64(i/perRow) * side,
			Width:  side,
			Height: side,
		}
		assignments = append(assignments, Assignment{
			RobotID:  id,
			Zone:     zone,
			Status:   telemetry.StatusWorking,
			Activity: telemetry.ActivityWorking,
			Path: telemetry.RobotPath{
				Waypoints: telemetry.GenerateGridPath(zoneOrigin(base, zone), side, side, 2),
				Speed:     speed,
				LoopPath:  true,
			},
		})
	}
	cfg := Config{
		Type:         LawnMowing,
		Name:         "Autonomous Lawn Care Fleet",
		Description:  fmt.Sprintf("%d autonomous lawn mowers providing comprehensive property coverage", len(robotIDs)),
		FleetID:      fleetID,
		RobotCount:   len(robotIDs),
		BaseLocation: base,
		AreaSize:     property,
		WorkPattern:  WorkPattern{Type: "grid", Coverage: 100, Efficiency: 95, PathOptimization: true, AvoidanceRadius: 3},
		ChargingStations: []telemetry.GPSCoordinate{
			base,
			offset(base, 0, property),
		},
		Assignments: assignments,
	}
	return m.apply(cfg)
}

type route struct {
	from, to string
	speed    float64
}

var (
	warehouseZones = map[string]Zone{
		"receiving": {Name: "receiving", X: 0, Y: 0, Width: 30, Height: 30},
		"storage":   {Name: "storage", X: 40, Y: 0, Width: 80, Height: 100},
		"picking":   {Name: "picking", X: 40, Y: 110, Width: 80, Height: 40},
		"shipping":  {Name: "shipping", X: 130, Y: 0, Width: 20, Height: 30},
	}
	warehouseRoutes = []route{
		{"receiving", "storage", 1.5},
		{"storage", "picking", 1.2},
		{"picking", "shipping", 1.8},
		{"shipping", "receiving", 2.0},
	}
)

// warehouseLayoutSize is the side of the square the zone layout is drawn for.
const warehouseLayoutSize = 150.0

// InitializeWarehouseLogistics sends robots round-robin along four
// zone-to-zone routes with jittered aisle waypoints. The zone layout scales
// with the site's area size.
func (m *Manager) InitializeWarehouseLogistics(fleetID string, robotIDs []string, site Site) (Config, error) {
	if len(robotIDs) == 0 {
		return Config{}, ErrNoRobots
	}
	base, size := site.resolve(WarehouseDistrict, warehouseLayoutSize)
	scale := size / warehouseLayoutSize

	m.mu.Lock()
	assignments := make([]Assignment, 0, len(robotIDs))
	for i, id := range robotIDs {
		r := warehouseRoutes[i%len(warehouseRoutes)]
		from, to := warehouseZones[r.from].scaled(scale), warehouseZones[r.to].scaled(scale)
		start := m.pointIn(base, from)
		end := m.pointIn(base, to)
		assignments = append(assignments, Assignment{
			RobotID:  id,
			Zone:     from,
			Status:   telemetry.StatusWorking,
			Activity: telemetry.ActivityWorking,
			Path: telemetry.RobotPath{
				Waypoints:        m.aisleRoute(start, end, 3),
				Speed:            r.speed,
				LoopPath:         true,
				PauseAtWaypoints: true,
				PauseDuration:    5,
			},
		})
	}
	m.mu.Unlock()

	cfg := Config{
		Type:         WarehouseLogistics,
		Name:         "Warehouse Automation Fleet",
		Description:  fmt.Sprintf("%d autonomous mobile robots handling inventory operations", len(robotIDs)),
		FleetID:      fleetID,
		RobotCount:   len(robotIDs),
		BaseLocation: base,
		AreaSize:     size,
		WorkPattern:  WorkPattern{Type: "waypoint", Coverage: 90, Efficiency: 98, PathOptimization: true, AvoidanceRadius: 2},
		ChargingStations: []telemetry.GPSCoordinate{
			base,
			offset(base, size/2, -size/2),
		},
		Assignments: assignments,
	}
	return m.apply(cfg)
}

// pointIn picks a random point inside zone. Callers hold m.mu.
func (m *Manager) pointIn(base telemetry.GPSCoordinate, z Zone) telemetry.GPSCoordinate {
	x := z.X + m.rng.Float64()*z.Width
	y := z.Y + m.rng.Float64()*z.Height
	return offset(base, x, -y)
}

// aisleRoute interpolates n intermediate points between start and end with a
// small lateral jitter. Callers hold m.mu.
func (m *Manager) aisleRoute(start, end telemetry.GPSCoordinate, n int) []telemetry.GPSCoordinate {
	points := []telemetry.GPSCoordinate{start}
	for i := 1; i <= n; i++ {
		f := float64(i) / float64(n+1)
		lateral := (m.rng.Float64() - 0.5) * 0.00001
		points = append(points, telemetry.GPSCoordinate{
			Latitude:  start.Latitude + (end.Latitude-start.Latitude)*f,
			Longitude: start.Longitude + (end.Longitude-start.Longitude)*f + lateral,
			Altitude:  start.Altitude,
		})
	}
	return append(points, end)
}

// InitializeAgriculture splits a field's rows evenly across robots.
func (m *Manager) InitializeAgriculture(fleetID string, robotIDs []string, site Site) (Config, error) {
	if len(robotIDs) == 0 {
		return Config{}, ErrNoRobots
	}
	const spacing, speed = 3.0, 0.5
	base, field := site.resolve(FarmLand, 300)
	rows := max(1, int(field/spacing))
	perRobot := int(math.Ceil(float64(rows) / float64(len(robotIDs))))

	assignments := make([]Assignment, 0, len(robotIDs))
	for i, id := range robotIDs {
		first := min(i*perRobot, rows)
		last := min(first+perRobot, rows)
		zone := Zone{
			Name:   fmt.Sprintf("rows-%d-%d", first, last),
			Y:      float64(first) * spacing,
			Width:  field,
			Height: float64(last-first) * spacing,
		}
		assignments = append(assignments, Assignment{
			RobotID:  id,
			Zone:     zone,
			Status:   telemetry.StatusWorking,
			Activity: telemetry.ActivityWorking,
			Path: telemetry.RobotPath{
				Waypoints: telemetry.GenerateGridPath(zoneOrigin(base, zone), zone.Width, zone.Height, spacing),
				Speed:     speed,
				LoopPath:  true,
			},
		})
	}
	cfg := Config{
		Type:             Agriculture,
		Name:             "Precision Agriculture Fleet",
		Description:      fmt.Sprintf("%d autonomous farm robots for planting, monitoring, and harvesting", len(robotIDs)),
		FleetID:          fleetID,
		RobotCount:       len(robotIDs),
		BaseLocation:     base,
		AreaSize:         field,
		WorkPattern:      WorkPattern{Type: "grid", Coverage: 100, Efficiency: 92, PathOptimization: true, AvoidanceRadius: 5},
		ChargingStations: []telemetry.GPSCoordinate{base},
		Assignments:      assignments,
	}
	return m.apply(cfg)
}

// CustomOptions tune the custom patrol scenario. Zero values use defaults.
type CustomOptions struct {
	Name               string                   `yaml:"name,omitempty"`
	Description        string                   `yaml:"description,omitempty"`
	BaseLocation       *telemetry.GPSCoordinate `yaml:"base_location,omitempty"`
	AreaSize           float64                  `yaml:"area_size,omitempty"`
	WaypointsPerCircle int                      `yaml:"waypoints_per_circle,omitempty"`
	RadiusStep         float64                  `yaml:"radius_step,omitempty"`
}

// InitializeCustom puts robots on concentric circular patrols around a base
// location, each at a randomized speed.
func (m *Manager) InitializeCustom(fleetID string, robotIDs []string, opts CustomOptions) (Config, error) {
	if len(robotIDs) == 0 {
		return Config{}, ErrNoRobots
	}
	base := CustomBase
	if opts.BaseLocation != nil {
		base = *opts.BaseLocation
	}
	area := opts.AreaSize
	if area <= 0 {
		area = 100
	}
	points := opts.WaypointsPerCircle
	if points <= 0 {
		points = 16
	}
	step := opts.RadiusStep
	if step <= 0 {
		step = 10
	}

	m.mu.Lock()
	assignments := make([]Assignment, 0, len(robotIDs))
	for i, id := range robotIDs {
		radius := area/2 + float64(i)*step
		assignments = append(assignments, Assignment{
			RobotID:  id,
			Zone:     Zone{Name: fmt.Sprintf("ring-%d", i), X: -radius, Y: -radius, Width: 2 * radius, Height: 2 * radius},
			Status:   telemetry.StatusIdle,
			Activity: telemetry.ActivityTraveling,
			Path: telemetry.RobotPath{
				Waypoints: telemetry.GenerateCircularPath(base, radius, points),
				Speed:     1.0 + m.rng.Float64()*0.5,
				LoopPath:  true,
			},
		})
	}
	m.mu.Unlock()

	name := opts.Name
	if name == "" {
		name = "Custom Patrol Scenario"
	}
	desc := opts.Description
	if desc == "" {
		desc = fmt.Sprintf("%d robots on circular patrol patterns", len(robotIDs))
	}
	cfg := Config{
		Type:             Custom,
		Name:             name,
		Description:      desc,
		FleetID:          fleetID,
		RobotCount:       len(robotIDs),
		BaseLocation:     base,
		AreaSize:         area,
		WorkPattern:      WorkPattern{Type: "random", Coverage: 80, Efficiency: 85, AvoidanceRadius: 3},
		ChargingStations: []telemetry.GPSCoordinate{base},
		Assignments:      assignments,
	}
	return m.apply(cfg)
}

// QuickStartDemo applies the preset t to a fleet at the preset's own site.
func (m *Manager) QuickStartDemo(t Type, fleetID string, robotIDs []string) (Config, error) {
	return m.Apply(t, fleetID, robotIDs, Site{})
}

// Apply runs the preset t for a fleet at site.
func (m *Manager) Apply(t Type, fleetID string, robotIDs []string, site Site) (Config, error) {
	switch t {
	case LawnMowing:
		return m.InitializeLawnMowing(fleetID, robotIDs, site)
	case WarehouseLogistics:
		return m.InitializeWarehouseLogistics(fleetID, robotIDs, site)
	case Agriculture:
		return m.InitializeAgriculture(fleetID, robotIDs, site)
	case Custom:
		return m.InitializeCustom(fleetID, robotIDs, CustomOptions{BaseLocation: site.BaseLocation, AreaSize: site.AreaSize})
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownScenario, t)
}

// apply initializes every assigned robot and records cfg as the fleet's
// active scenario, replacing any previous one.
func (m *Manager) apply(cfg Config) (Config, error) {
	for _, a := range cfg.Assignments {
		if err := m.fleet.InitializeRobot(a.RobotID, cfg.FleetID, a.Path.Waypoints[0], a.Status); err != nil {
			return Config{}, fmt.Errorf("apply %s to fleet %s: %w", cfg.Type, cfg.FleetID, err)
		}
		if err := m.fleet.SetRobotPath(a.RobotID, a.Path); err != nil {
			return Config{}, fmt.Errorf("apply %s to fleet %s: %w", cfg.Type, cfg.FleetID, err)
		}
		if err := m.fleet.SetRobotMotion(a.RobotID, a.Activity, a.Path.Speed); err != nil {
			return Config{}, fmt.Errorf("apply %s to fleet %s: %w", cfg.Type, cfg.FleetID, err)
		}
	}
	m.mu.Lock()
	m.active[cfg.FleetID] = cfg
	m.mu.Unlock()
	m.log.Info("scenario initialized", "fleet_id", cfg.FleetID, "scenario", cfg.Type, "robots", cfg.RobotCount)
	return cfg, nil
}

// Scenario returns the active scenario of a fleet.
func (m *Manager) Scenario(fleetID string) (Config, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.active[fleetID]
	return cfg, ok
}

// List returns every active scenario ordered by fleet id.
func (m *Manager) List() []Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Config, 0, len(m.active))
	for _, cfg := range m.active {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FleetID < out[j].FleetID })
	return out
}

// Stop forgets a fleet's scenario. The manager leaves the robots in the
// generator; sim.Service.StopScenario removes them.
func (m *Manager) Stop(fleetID string) bool {
	m.mu.Lock()
	_, ok := m.active[fleetID]
	delete(m.active, fleetID)
	m.mu.Unlock()
	if ok {
		m.log.Info("scenario stopped", "fleet_id", fleetID)
	}
	return ok
}

// zoneOrigin is the north-west corner of z.
func zoneOrigin(base telemetry.GPSCoordinate, z Zone) telemetry.GPSCoordinate {
	return offset(base, z.X, -z.Y)
}

func offset(base telemetry.GPSCoordinate, eastM, northM float64) telemetry.GPSCoordinate {
	lat, lon := geo.Offset(base.Latitude, base.Longitude, northM, eastM)
	return telemetry.GPSCoordinate{Latitude: lat, Longitude: lon, Altitude: base.Altitude}
}
