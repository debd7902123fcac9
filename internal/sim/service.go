// Integration boundary between the telemetry generator and its consumers
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"robofleet-sim/internal/config"
	"robofleet-sim/internal/scenario"
	"robofleet-sim/internal/telemetry"
)

// maxBatch caps the number of updates handed to a writer at once.
const maxBatch = 256

// MaxFleetRobots bounds the size of a single fleet.
const MaxFleetRobots = 1000

// ErrInvalidFleet is returned for a fleet spec without an id.
var ErrInvalidFleet = errors.New("fleet id is required")

// Service owns a generator and a scenario manager and delivers the
// generator's updates to a writer.
type Service struct {
	gen       *telemetry.Generator
	scenarios *scenario.Manager
	writer    TelemetryWriter
	metrics   *Metrics
	log       *slog.Logger
	clusterID string
	gaugeTick time.Duration

	delivered   atomic.Uint64
	writeErrors atomic.Uint64
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithMetrics instruments the service.
func WithMetrics(m *Metrics) ServiceOption { return func(s *Service) { s.metrics = m } }

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *slog.Logger) ServiceOption { return func(s *Service) { s.log = l } }

// WithClusterID labels the service's stats.
func WithClusterID(id string) ServiceOption { return func(s *Service) { s.clusterID = id } }

// NewService wires a generator, scenario manager and writer together.
func NewService(gen *telemetry.Generator, scenarios *scenario.Manager, writer TelemetryWriter, opts ...ServiceOption) *Service {
	s := &Service{
		gen:       gen,
		scenarios: scenarios,
		writer:    writer,
		gaugeTick: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Run delivers updates until ctx is done, then flushes whatever is buffered.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("telemetry service running", "cluster_id", s.clusterID)
	updates := s.gen.Updates()
	ticker := time.NewTicker(s.gaugeTick)
	defer ticker.Stop()

	batch := make([]telemetry.Update, 0, maxBatch)
	for {
		select {
		case <-ctx.Done():
			for {
				batch = s.collect(updates, batch[:0])
				if len(batch) == 0 {
					s.log.Info("telemetry service stopped", "delivered", s.delivered.Load())
					return nil
				}
				s.deliver(batch)
			}
		case <-ticker.C:
			s.observeFleet()
		case u := <-updates:
			batch = s.collect(updates, append(batch[:0], u))
			s.deliver(batch)
		}
	}
}

// collect appends whatever is immediately available, up to maxBatch.
func (s *Service) collect(updates <-chan telemetry.Update, batch []telemetry.Update) []telemetry.Update {
	for len(batch) < maxBatch {
		select {
		case u := <-updates:
			batch = append(batch, u)
		default:
			return batch
		}
	}
	return batch
}

func (s *Service) deliver(batch []telemetry.Update) {
	if s.writer == nil || len(batch) == 0 {
		return
	}
	if err := writeAll(s.writer, batch); err != nil {
		s.writeErrors.Add(1)
		s.log.Error("telemetry write failed", "err", err, "batch", len(batch))
		if s.metrics != nil {
			s.metrics.writeErrors.Inc()
		}
	} else {
		s.delivered.Add(uint64(len(batch)))
	}
	if s.metrics != nil {
		s.metrics.observeBatch(batch)
	}
}

func (s *Service) observeFleet() {
	if s.metrics == nil {
		return
	}
	s.metrics.observeFleet(s.gen.RobotStates(), s.gen.Stats().Dropped)
}

// InitializeFleet applies a scenario to a fleet. The scenario comes from the
// fleet entry, else from the fleet name, else from the robot count. Robot ids are
// generated when the entry lists none.
func (s *Service) InitializeFleet(spec config.FleetSpec) (scenario.Config, error) {
	if strings.TrimSpace(spec.ID) == "" {
		return scenario.Config{}, ErrInvalidFleet
	}
	if spec.RobotCount < 0 || spec.RobotCount > MaxFleetRobots || len(spec.RobotIDs) > MaxFleetRobots {
		return scenario.Config{}, fmt.Errorf("%w: fleet %s must have 0 to %d robots", ErrInvalidFleet, spec.ID, MaxFleetRobots)
	}
	ids := spec.RobotIDs
	if len(ids) == 0 {
		ids = make([]string, spec.RobotCount)
		for i := range ids {
			ids[i] = generateRobotID(spec.ID, i)
		}
	}

	var t scenario.Type
	if spec.Scenario != "" {
		var err error
		if t, err = scenario.ParseType(strings.ToUpper(spec.Scenario)); err != nil {
			return scenario.Config{}, fmt.Errorf("%w: %q", err, spec.Scenario)
		}
	} else {
		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		t = scenario.ForFleet(name, len(ids))
	}

	if t == scenario.Custom {
		opts := scenario.CustomOptions{BaseLocation: spec.BaseLocation, AreaSize: spec.AreaSize}
		if spec.CustomFile != "" {
			loaded, err := scenario.LoadCustom(spec.CustomFile)
			if err != nil {
				return scenario.Config{}, err
			}
			opts = *loaded
		}
		if opts.Name == "" {
			opts.Name = spec.Name
		}
		return s.scenarios.InitializeCustom(spec.ID, ids, opts)
	}
	return s.scenarios.Apply(t, spec.ID, ids, scenario.Site{BaseLocation: spec.BaseLocation, AreaSize: spec.AreaSize})
}

func generateRobotID(fleetID string, index int) string {
	return fmt.Sprintf("%s-%d-%s", fleetID, index, uuid.NewString()[:8])
}

// Start schedules the generator's update loops.
func (s *Service) Start() { s.gen.Start() }

// Stop cancels the generator's update loops.
func (s *Service) Stop() { s.gen.Stop() }

// UpdateConfig merges patch into the generator configuration.
func (s *Service) UpdateConfig(patch telemetry.ConfigPatch) telemetry.Config {
	return s.gen.UpdateConfig(patch)
}

// InjectFailure applies a failure to one robot.
func (s *Service) InjectFailure(robotID string, ft telemetry.FailureType) error {
	return s.gen.InjectFailure(robotID, ft)
}

// ServiceStats extends the generator stats with delivery counters.
type ServiceStats struct {
	telemetry.Stats
	ClusterID   string `json:"cluster_id"`
	Fleets      int    `json:"fleets"`
	Delivered   uint64 `json:"delivered"`
	WriteErrors uint64 `json:"write_errors"`
}

// Stats returns a snapshot of the service counters.
func (s *Service) Stats() ServiceStats {
	return ServiceStats{
		Stats:       s.gen.Stats(),
		ClusterID:   s.clusterID,
		Fleets:      len(s.scenarios.List()),
		Delivered:   s.delivered.Load(),
		WriteErrors: s.writeErrors.Load(),
	}
}

// Health returns aggregated health information for all fleets.
func (s *Service) Health() []FleetHealth {
	return summarize(s.gen.RobotStates())
}

// Robots returns every robot state ordered by fleet then robot id.
func (s *Service) Robots() []telemetry.RobotState {
	states := s.gen.RobotStates()
	out := make([]telemetry.RobotState, 0, len(states))
	for _, st := range states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FleetID != out[j].FleetID {
			return out[i].FleetID < out[j].FleetID
		}
		return out[i].RobotID < out[j].RobotID
	})
	return out
}

// Robot returns one robot's state.
func (s *Service) Robot(id string) (telemetry.RobotState, bool) {
	return s.gen.RobotState(id)
}

// Scenarios returns the active scenarios.
func (s *Service) Scenarios() []scenario.Config { return s.scenarios.List() }

// Scenario returns the active scenario of one fleet.
func (s *Service) Scenario(fleetID string) (scenario.Config, bool) {
	return s.scenarios.Scenario(fleetID)
}

// StopScenario ends a fleet's scenario and removes its robots from the
// simulation.
func (s *Service) StopScenario(fleetID string) bool {
	cfg, ok := s.scenarios.Scenario(fleetID)
	if !ok || !s.scenarios.Stop(fleetID) {
		return false
	}
	for _, a := range cfg.Assignments {
		s.gen.RemoveRobot(a.RobotID)
	}
	return true
}
