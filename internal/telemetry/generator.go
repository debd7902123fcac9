package telemetry

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// ErrInvalidRobot is returned for missing identifiers or unknown robots.
	ErrInvalidRobot = errors.New("invalid robot")
	// ErrEmptyPath is returned when a path has no waypoints.
	ErrEmptyPath = errors.New("path has no waypoints")
	// ErrUnknownFailure is returned when injecting an unrecognized failure type.
	ErrUnknownFailure = errors.New("unknown failure type")
)

// Task names used by the generator's scheduler.
const (
	TaskPosition = "position"
	TaskStatus   = "status"
	TaskMetrics  = "metrics"
)

// Generator simulates telemetry for a set of robots. Three scheduled loops
// mutate robot state and publish Update records on the channel returned by
// Updates. All state access is serialized by an internal mutex.
type Generator struct {
	lifecycle sync.Mutex // serializes Start, Stop and UpdateConfig

	mu         sync.Mutex
	cfg        Config
	store      *store
	recoveries map[string]*recovery
	rng        *rand.Rand
	running    bool
	startedAt  time.Time
	recSeq     uint64

	metricRules []MetricRule
	eventRules  []EventRule

	sched   *Scheduler
	clock   clockwork.Clock
	log     *slog.Logger
	updates chan Update
	emitted atomic.Uint64
	dropped atomic.Uint64
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock drives the scheduler and recovery timers from clock.
func WithClock(c clockwork.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

// WithRand sets the random source used for every stochastic decision.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithLogger sets the generator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// WithMetricRules replaces the default metric table.
func WithMetricRules(rules []MetricRule) Option {
	return func(g *Generator) { g.metricRules = append([]MetricRule(nil), rules...) }
}

// WithEventRules replaces the default event table.
func WithEventRules(rules []EventRule) Option {
	return func(g *Generator) { g.eventRules = append([]EventRule(nil), rules...) }
}

// NewGenerator creates a stopped generator with the given configuration.
func NewGenerator(cfg Config, opts ...Option) *Generator {
	g := &Generator{
		cfg:         cfg.normalize(),
		store:       newStore(),
		recoveries:  make(map[string]*recovery),
		metricRules: DefaultMetricRules(),
		eventRules:  DefaultEventRules(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.clock == nil {
		g.clock = clockwork.NewRealClock()
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	g.sched = NewScheduler(g.clock)
	g.updates = make(chan Update, g.cfg.BufferSize)
	return g
}

// Updates returns the channel on which telemetry records are published.
// Records are dropped when the channel is full.
func (g *Generator) Updates() <-chan Update { return g.updates }

// InitializeRobot creates or overwrites the state of a robot at start. An
// empty status defaults to IDLE. Overwriting drops the robot's path and any
// pending recovery.
func (g *Generator) InitializeRobot(robotID, fleetID string, start GPSCoordinate, status RobotStatus) error {
	if robotID == "" || fleetID == "" {
		return fmt.Errorf("initialize robot %q in fleet %q: %w", robotID, fleetID, ErrInvalidRobot)
	}
	if status == "" {
		status = StatusIdle
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cancelRecovery(robotID)
	r := g.rng
	g.store.put(RobotState{
		RobotID:         robotID,
		FleetID:         fleetID,
		Status:          status,
		Activity:        ActivityIdle,
		Position:        GPSCoordinate{Latitude: start.Latitude, Longitude: start.Longitude, Altitude: start.Altitude},
		Heading:         r.Float64() * 360,
		BatteryLevel:    85 + r.Float64()*15,
		BatteryVoltage:  48 + (r.Float64()-0.5)*4,
		HealthScore:     95 + r.Float64()*5,
		Temperature:     25 + r.Float64()*5,
		CPUUsage:        20 + r.Float64()*10,
		MemoryUsage:     40 + r.Float64()*10,
		SignalStrength:  -60 - r.Float64()*20,
		Vibration:       0.1 + r.Float64()*0.2,
		LastStateChange: g.clock.Now().UTC(),
	})
	if status == StatusWorking {
		e, _ := g.store.get(robotID)
		e.state.CurrentTaskID = newTaskID()
	}
	g.log.Debug("robot initialized", "robot_id", robotID, "fleet_id", fleetID, "status", status)
	return nil
}

// SetRobotPath assigns a copy of path to an initialized robot, replacing any
// previous path.
func (g *Generator) SetRobotPath(robotID string, path RobotPath) error {
	if len(path.Waypoints) == 0 {
		return fmt.Errorf("set path for %q: %w", robotID, ErrEmptyPath)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.store.get(robotID)
	if !ok {
		return fmt.Errorf("set path for %q: %w", robotID, ErrInvalidRobot)
	}
	p := path
	p.Waypoints = append([]GPSCoordinate(nil), path.Waypoints...)
	e.path = &p
	e.pauseLeft = 0
	return nil
}

// SetRobotMotion sets a robot's activity and speed directly. Scenarios use it
// to put robots to work at their assigned pace.
func (g *Generator) SetRobotMotion(robotID string, activity Activity, speed float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.store.get(robotID)
	if !ok {
		return fmt.Errorf("set motion for %q: %w", robotID, ErrInvalidRobot)
	}
	if e.state.Activity != activity {
		e.state.LastStateChange = g.clock.Now().UTC()
	}
	e.state.Activity = activity
	e.state.Speed = max(0, speed)
	return nil
}

// Transition forces a robot into a status and activity pair. No adjacency
// rules are enforced.
func (g *Generator) Transition(robotID string, status RobotStatus, activity Activity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.store.get(robotID)
	if !ok {
		return fmt.Errorf("transition %q: %w", robotID, ErrInvalidRobot)
	}
	g.transition(e, status, activity)
	return nil
}

// RobotState returns a copy of a robot's current state.
func (g *Generator) RobotState(robotID string) (RobotState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.store.get(robotID)
	if !ok {
		return RobotState{}, false
	}
	return e.state, true
}

// RobotStates returns a snapshot of every robot's state keyed by id.
func (g *Generator) RobotStates() map[string]RobotState {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]RobotState, g.store.len())
	g.store.each(func(e *entry) { out[e.state.RobotID] = e.state })
	return out
}

// RobotPath returns a copy of the path assigned to a robot.
func (g *Generator) RobotPath(robotID string) (RobotPath, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.store.get(robotID)
	if !ok || e.path == nil {
		return RobotPath{}, false
	}
	p := *e.path
	p.Waypoints = append([]GPSCoordinate(nil), e.path.Waypoints...)
	return p, true
}

// RemoveRobot deletes a robot, its path and any pending recovery.
func (g *Generator) RemoveRobot(robotID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelRecovery(robotID)
	return g.store.remove(robotID)
}

// Clear removes every robot.
func (g *Generator) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id := range g.recoveries {
		g.cancelRecovery(id)
	}
	g.store.clear()
}

// Config returns the current configuration.
func (g *Generator) Config() Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// Start schedules the three update loops. Starting a running generator logs
// a warning and does nothing. A disabled generator does not start.
func (g *Generator) Start() {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()
	g.start()
}

func (g *Generator) start() {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		g.log.Warn("telemetry generator already running")
		return
	}
	if !g.cfg.Enabled {
		g.mu.Unlock()
		g.log.Warn("telemetry generator disabled by config")
		return
	}
	cfg := g.cfg
	g.running = true
	g.startedAt = g.clock.Now()
	for id := range g.recoveries {
		g.armRecovery(id)
	}
	g.mu.Unlock()

	iv := cfg.UpdateIntervals
	g.sched.Start(
		Task{Name: TaskPosition, Period: TickPeriod(iv.Position, cfg.TimeAcceleration), Run: g.scheduled(iv.Position, g.stepPositions)},
		Task{Name: TaskStatus, Period: TickPeriod(iv.Status, cfg.TimeAcceleration), Run: g.scheduled(iv.Status, g.stepStatuses)},
		Task{Name: TaskMetrics, Period: TickPeriod(iv.Metrics, cfg.TimeAcceleration), Run: g.scheduled(iv.Metrics, g.stepMetrics)},
	)
	g.log.Info("telemetry generator started", "time_acceleration", cfg.TimeAcceleration, "robots", g.robotCount())
}

// Stop cancels the update loops and any armed recovery timers. Robots with a
// cancelled recovery stay pending and are re-armed by the next Start.
func (g *Generator) Stop() {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()
	g.stop()
}

func (g *Generator) stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	for _, rec := range g.recoveries {
		if rec.timer != nil {
			rec.timer.Stop()
			rec.timer = nil
		}
	}
	g.mu.Unlock()
	g.sched.Stop()
	g.log.Info("telemetry generator stopped")
}

// UpdateConfig merges patch into the configuration, restarting the loops if
// they were running.
func (g *Generator) UpdateConfig(patch ConfigPatch) Config {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()

	wasRunning := g.Running()
	if wasRunning {
		g.stop()
	}
	g.mu.Lock()
	g.cfg = patch.Apply(g.cfg)
	cfg := g.cfg
	g.mu.Unlock()

	g.log.Info("telemetry config updated", "time_acceleration", cfg.TimeAcceleration, "failure_injection", cfg.FailureInjection.Enabled)
	if wasRunning {
		g.start()
	}
	return cfg
}

// Stats summarizes the generator.
type Stats struct {
	Running    bool          `json:"running"`
	RobotCount int           `json:"robot_count"`
	Uptime     time.Duration `json:"uptime"`
	Emitted    uint64        `json:"emitted"`
	Dropped    uint64        `json:"dropped"`
	Config     Config        `json:"config"`
}

// Stats returns a snapshot of the generator's counters.
func (g *Generator) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Stats{
		Running:    g.running,
		RobotCount: g.store.len(),
		Emitted:    g.emitted.Load(),
		Dropped:    g.dropped.Load(),
		Config:     g.cfg,
	}
	if g.running {
		s.Uptime = g.clock.Since(g.startedAt)
	}
	return s
}

// Running reports whether the update loops are scheduled.
func (g *Generator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

func (g *Generator) robotCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.len()
}

// StepPositions runs one position tick covering dt simulated seconds.
func (g *Generator) StepPositions(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stepPositions(dt)
}

// StepStatuses runs one status tick covering dt simulated seconds.
func (g *Generator) StepStatuses(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stepStatuses(dt)
}

// StepMetrics runs one metrics tick covering dt simulated seconds.
func (g *Generator) StepMetrics(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stepMetrics(dt)
}

// scheduled wraps a step for the scheduler. Ticks that race with Stop are
// discarded.
func (g *Generator) scheduled(interval time.Duration, step func(float64)) func() {
	dt := interval.Seconds()
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if !g.running {
			return
		}
		step(dt)
	}
}

// emit publishes u without blocking. Callers hold g.mu.
func (g *Generator) emit(u Update) {
	select {
	case g.updates <- u:
		g.emitted.Add(1)
	default:
		if g.dropped.Add(1)%1000 == 1 {
			g.log.Warn("telemetry buffer full, dropping updates", "dropped", g.dropped.Load())
		}
	}
}

func (g *Generator) header(st *RobotState) Header {
	return Header{RobotID: st.RobotID, FleetID: st.FleetID, Timestamp: g.clock.Now().UTC()}
}

// emitEvent publishes a single event outside the metrics loop.
func (g *Generator) emitEvent(st *RobotState, typ EventType, sev Severity, msg string) {
	g.emit(MetricsUpdate{
		Header: g.header(st),
		Events: []Event{g.event(st, typ, sev, msg)},
	})
}

func (g *Generator) event(st *RobotState, typ EventType, sev Severity, msg string) Event {
	return Event{
		Type:     typ,
		Severity: sev,
		Message:  msg,
		Data: map[string]any{
			"robot_id":  st.RobotID,
			"timestamp": g.clock.Now().UTC().Format(time.RFC3339Nano),
		},
	}
}
