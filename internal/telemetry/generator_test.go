package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"robofleet-sim/internal/geo"
)

func newTestGenerator(t *testing.T, mutate func(*Config), opts ...Option) *Generator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.NoiseLevel = 0
	cfg.BufferSize = 4096
	if mutate != nil {
		mutate(&cfg)
	}
	base := []Option{
		WithRand(rand.New(rand.NewSource(42))),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(clockwork.NewFakeClock()),
	}
	return NewGenerator(cfg, append(base, opts...)...)
}

func drain(g *Generator) []Update {
	var out []Update
	for {
		select {
		case u := <-g.Updates():
			out = append(out, u)
		default:
			return out
		}
	}
}

func eventsOf(updates []Update) []Event {
	var out []Event
	for _, u := range updates {
		if m, ok := u.(MetricsUpdate); ok {
			out = append(out, m.Events...)
		}
	}
	return out
}

func hasEvent(updates []Update, typ EventType) bool {
	for _, ev := range eventsOf(updates) {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func TestInitializeRobotValidation(t *testing.T) {
	g := newTestGenerator(t, nil)
	if err := g.InitializeRobot("", "f1", GPSCoordinate{}, StatusIdle); !errors.Is(err, ErrInvalidRobot) {
		t.Fatalf("expected ErrInvalidRobot, got %v", err)
	}
	if err := g.InitializeRobot("r1", "f1", GPSCoordinate{Latitude: 37, Longitude: -122}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, ok := g.RobotState("r1")
	if !ok {
		t.Fatal("expected robot r1")
	}
	if st.Status != StatusIdle {
		t.Errorf("expected default status IDLE, got %s", st.Status)
	}
	if st.BatteryLevel < 85 || st.BatteryLevel > 100 {
		t.Errorf("battery out of initial range: %f", st.BatteryLevel)
	}
	if st.HealthScore < 95 || st.HealthScore > 100 {
		t.Errorf("health out of initial range: %f", st.HealthScore)
	}
}

func TestSetRobotPathErrors(t *testing.T) {
	g := newTestGenerator(t, nil)
	path := RobotPath{Waypoints: []GPSCoordinate{{Latitude: 1, Longitude: 1}}, Speed: 1}
	if err := g.SetRobotPath("ghost", path); !errors.Is(err, ErrInvalidRobot) {
		t.Errorf("expected ErrInvalidRobot, got %v", err)
	}
	_ = g.InitializeRobot("r1", "f1", GPSCoordinate{}, StatusIdle)
	if err := g.SetRobotPath("r1", RobotPath{}); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("expected ErrEmptyPath, got %v", err)
	}
	if err := g.SetRobotPath("r1", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path.Waypoints[0].Latitude = 99
	got, _ := g.RobotPath("r1")
	if got.Waypoints[0].Latitude != 1 {
		t.Errorf("path was not copied on assignment")
	}
}

func TestPositionTickMovesAlongSegment(t *testing.T) {
	g := newTestGenerator(t, nil)
	start := GPSCoordinate{Latitude: 37.0, Longitude: -122.0}
	end := GPSCoordinate{Latitude: 37.001, Longitude: -122.0}
	if err := g.InitializeRobot("r1", "f1", start, StatusIdle); err != nil {
		t.Fatal(err)
	}
	if err := g.SetRobotPath("r1", RobotPath{Waypoints: []GPSCoordinate{start, end}, Speed: 1, LoopPath: true}); err != nil {
		t.Fatal(err)
	}
	if err := g.SetRobotMotion("r1", ActivityTraveling, 1.0); err != nil {
		t.Fatal(err)
	}

	g.StepPositions(1)

	st, _ := g.RobotState("r1")
	if st.Position.Longitude != -122.0 {
		t.Errorf("expected longitude to stay on the segment, got %f", st.Position.Longitude)
	}
	if st.Position.Latitude <= start.Latitude || st.Position.Latitude >= end.Latitude {
		t.Fatalf("position %f not strictly between waypoints", st.Position.Latitude)
	}
	dStart := geo.Distance(start.Latitude, start.Longitude, st.Position.Latitude, st.Position.Longitude)
	dEnd := geo.Distance(end.Latitude, end.Longitude, st.Position.Latitude, st.Position.Longitude)
	if dEnd >= geo.Distance(start.Latitude, start.Longitude, end.Latitude, end.Longitude) {
		t.Errorf("expected robot closer to target than the start was, got %f", dEnd)
	}
	if dStart < 0.99 || dStart > 1.01 {
		t.Errorf("expected ~1m traveled, got %f", dStart)
	}
	if st.Heading > 0.01 && st.Heading < 359.99 {
		t.Errorf("expected northbound heading, got %f", st.Heading)
	}
	if st.Odometer != 1 {
		t.Errorf("expected odometer 1, got %f", st.Odometer)
	}

	updates := drain(g)
	if len(updates) != 1 || updates[0].Kind() != KindPosition {
		t.Fatalf("expected one position update, got %v", updates)
	}
	pu := updates[0].(PositionUpdate)
	if pu.RobotID != "r1" || pu.FleetID != "f1" {
		t.Errorf("unexpected header %+v", pu.Header)
	}
}

func TestPositionTickSkipsOfflineAndPathless(t *testing.T) {
	g := newTestGenerator(t, nil)
	_ = g.InitializeRobot("nopath", "f1", GPSCoordinate{}, StatusWorking)
	_ = g.InitializeRobot("down", "f1", GPSCoordinate{}, StatusOffline)
	_ = g.SetRobotPath("down", RobotPath{Waypoints: []GPSCoordinate{{}, {Latitude: 1}}, LoopPath: true})
	_ = g.SetRobotMotion("down", ActivityTraveling, 2)

	g.StepPositions(1)

	if n := len(drain(g)); n != 0 {
		t.Errorf("expected no updates, got %d", n)
	}
	st, _ := g.RobotState("down")
	if st.Odometer != 0 {
		t.Errorf("offline robot moved: %f", st.Odometer)
	}
}

func TestNonLoopingPathHoldsAtEnd(t *testing.T) {
	g := newTestGenerator(t, nil)
	a := GPSCoordinate{Latitude: 10, Longitude: 10}
	b := GPSCoordinate{Latitude: 10.0001, Longitude: 10}
	_ = g.InitializeRobot("r1", "f1", a, StatusWorking)
	_ = g.SetRobotPath("r1", RobotPath{Waypoints: []GPSCoordinate{a, b}, LoopPath: false})
	_ = g.SetRobotMotion("r1", ActivityTraveling, 100)

	g.StepPositions(1)
	g.StepPositions(1)

	st, _ := g.RobotState("r1")
	if st.Position.Latitude != b.Latitude || st.Position.Longitude != b.Longitude {
		t.Errorf("expected robot to hold at final waypoint, got %+v", st.Position)
	}
}

func TestPauseAtWaypoints(t *testing.T) {
	g := newTestGenerator(t, nil)
	a := GPSCoordinate{Latitude: 10, Longitude: 10}
	b := GPSCoordinate{Latitude: 10.00001, Longitude: 10}
	c := GPSCoordinate{Latitude: 10.00002, Longitude: 10}
	_ = g.InitializeRobot("r1", "f1", a, StatusWorking)
	_ = g.SetRobotPath("r1", RobotPath{Waypoints: []GPSCoordinate{a, b, c}, LoopPath: true, PauseAtWaypoints: true, PauseDuration: 2})
	_ = g.SetRobotMotion("r1", ActivityTraveling, 5)

	g.StepPositions(1) // snaps to b and starts pausing
	g.StepPositions(1)
	st, _ := g.RobotState("r1")
	if st.Position.Latitude != b.Latitude {
		t.Fatalf("expected robot paused at b, got %f", st.Position.Latitude)
	}
	g.StepPositions(1)
	g.StepPositions(1)
	st, _ = g.RobotState("r1")
	if st.Position.Latitude != c.Latitude {
		t.Errorf("expected robot to move on to c after pause, got %f", st.Position.Latitude)
	}
}

func TestChargingCycle(t *testing.T) {
	g := newTestGenerator(t, nil)
	_ = g.InitializeRobot("r1", "f1", GPSCoordinate{}, StatusWorking)
	e, _ := g.store.get("r1")
	e.state.BatteryLevel = 10

	g.StepStatuses(1)
	st, _ := g.RobotState("r1")
	if st.Status != StatusCharging || st.Activity != ActivityCharging {
		t.Fatalf("expected CHARGING, got %s/%s", st.Status, st.Activity)
	}
	if st.Speed != 0 {
		t.Errorf("expected speed 0 while charging, got %f", st.Speed)
	}
	if !hasEvent(drain(g), EventRobotStopped) {
		t.Errorf("expected ROBOT_STOPPED event")
	}

	for range 20 {
		g.StepStatuses(600)
		if st, _ = g.RobotState("r1"); st.Status == StatusWorking {
			break
		}
	}
	if st.Status != StatusWorking {
		t.Fatalf("expected WORKING after charging, got %s (battery %f)", st.Status, st.BatteryLevel)
	}
	if st.BatteryLevel < 95 {
		t.Errorf("resumed below threshold: %f", st.BatteryLevel)
	}
	if st.Speed < 0.5 || st.Speed >= 1.5 {
		t.Errorf("expected resume speed in [0.5,1.5), got %f", st.Speed)
	}
	if !hasEvent(drain(g), EventRobotStarted) {
		t.Errorf("expected ROBOT_STARTED event")
	}
}

func TestInvariantsOverManyTicks(t *testing.T) {
	g := newTestGenerator(t, func(c *Config) {
		c.NoiseLevel = 0.5
		c.FailureInjection = FailureInjection{
			Enabled:     true,
			FailureRate: 3600, // one failure per robot per simulated second on average
			Types: []FailureType{
				FailureBatteryDrain, FailureMotorOverheating, FailureGPSDrift,
				FailureSensorError, FailureObstacleCollision, FailureCommunicationLag,
			},
			MeanTimeToRecovery: time.Second,
		}
	})
	center := GPSCoordinate{Latitude: 37.4, Longitude: -122.1}
	for _, id := range []string{"a", "b", "c"} {
		_ = g.InitializeRobot(id, "f1", center, StatusWorking)
		_ = g.SetRobotPath(id, RobotPath{Waypoints: GenerateCircularPath(center, 20, 8), LoopPath: true})
		_ = g.SetRobotMotion(id, ActivityWorking, 1.2)
	}

	prev := g.RobotStates()
	for i := range 300 {
		g.StepPositions(0.1)
		if i%10 == 0 {
			g.StepStatuses(60)
		}
		if i%50 == 0 {
			g.StepMetrics(5)
		}
		drain(g)
		for id, st := range g.RobotStates() {
			if st.BatteryLevel < 0 || st.BatteryLevel > 100 {
				t.Fatalf("%s battery out of bounds: %f", id, st.BatteryLevel)
			}
			if st.HealthScore < 0 || st.HealthScore > 100 {
				t.Fatalf("%s health out of bounds: %f", id, st.HealthScore)
			}
			p := prev[id]
			if st.Odometer < p.Odometer || st.WorkHours < p.WorkHours || st.ErrorCount < p.ErrorCount {
				t.Fatalf("%s counters decreased: %+v -> %+v", id, p, st)
			}
		}
		prev = g.RobotStates()
	}
	if prev["a"].ErrorCount == 0 {
		t.Errorf("expected failures to be injected")
	}
}

func TestInjectedFailures(t *testing.T) {
	tests := []struct {
		name     string
		failure  FailureType
		event    EventType
		severity Severity
		check    func(t *testing.T, before, after RobotState)
	}{
		{"battery drain", FailureBatteryDrain, EventHardwareError, SeverityWarning, func(t *testing.T, b, a RobotState) {
			if a.BatteryLevel != b.BatteryLevel-20 {
				t.Errorf("expected battery %f, got %f", b.BatteryLevel-20, a.BatteryLevel)
			}
		}},
		{"connection loss", FailureConnectionLoss, EventConnectionLost, SeverityError, func(t *testing.T, _, a RobotState) {
			if a.Status != StatusOffline || a.Activity != ActivityError {
				t.Errorf("expected OFFLINE/ERROR, got %s/%s", a.Status, a.Activity)
			}
		}},
		{"motor overheating", FailureMotorOverheating, EventHardwareError, SeverityError, func(t *testing.T, b, a RobotState) {
			if a.Temperature != b.Temperature+20 {
				t.Errorf("expected temperature +20, got %f -> %f", b.Temperature, a.Temperature)
			}
			if a.Status != StatusError {
				t.Errorf("expected ERROR, got %s", a.Status)
			}
		}},
		{"gps drift", FailureGPSDrift, EventSoftwareError, SeverityWarning, func(t *testing.T, b, a RobotState) {
			d := geo.Distance(b.Position.Latitude, b.Position.Longitude, a.Position.Latitude, a.Position.Longitude)
			if d > gpsDriftM*1.5 {
				t.Errorf("drift too large: %f", d)
			}
		}},
		{"communication lag", FailureCommunicationLag, EventConnectionLost, SeverityWarning, func(t *testing.T, b, a RobotState) {
			if a.SignalStrength != b.SignalStrength-15 {
				t.Errorf("expected signal -15, got %f -> %f", b.SignalStrength, a.SignalStrength)
			}
		}},
		{"obstacle collision", FailureObstacleCollision, EventCollisionDetected, SeverityWarning, func(t *testing.T, _, a RobotState) {
			if a.Speed != 0 {
				t.Errorf("expected robot stopped, got %f", a.Speed)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, nil)
			_ = g.InitializeRobot("r1", "f1", GPSCoordinate{Latitude: 37, Longitude: -122}, StatusWorking)
			_ = g.SetRobotMotion("r1", ActivityWorking, 1)
			before, _ := g.RobotState("r1")
			if err := g.InjectFailure("r1", tt.failure); err != nil {
				t.Fatal(err)
			}
			after, _ := g.RobotState("r1")
			if after.ErrorCount != before.ErrorCount+1 {
				t.Errorf("expected error count to increment")
			}
			evs := eventsOf(drain(g))
			if len(evs) != 1 || evs[0].Type != tt.event || evs[0].Severity != tt.severity {
				t.Errorf("expected %s/%s event, got %+v", tt.event, tt.severity, evs)
			}
			tt.check(t, before, after)
		})
	}
}

func TestBatteryDrainNeverRaisesBattery(t *testing.T) {
	g := newTestGenerator(t, nil)
	_ = g.InitializeRobot("r1", "f1", GPSCoordinate{}, StatusWorking)
	e, _ := g.store.get("r1")
	e.state.BatteryLevel = 3
	_ = g.InjectFailure("r1", FailureBatteryDrain)
	if st, _ := g.RobotState("r1"); st.BatteryLevel != 3 {
		t.Errorf("expected battery to stay at 3, got %f", st.BatteryLevel)
	}
}

func TestInjectUnknownFailure(t *testing.T) {
	g := newTestGenerator(t, nil)
	_ = g.InitializeRobot("r1", "f1", GPSCoordinate{}, StatusWorking)
	drain(g)
	if err := g.InjectFailure("r1", "TYPO"); !errors.Is(err, ErrUnknownFailure) {
		t.Fatalf("expected ErrUnknownFailure, got %v", err)
	}
	if err := g.InjectFailure("nope", FailureGPSDrift); !errors.Is(err, ErrInvalidRobot) {
		t.Fatalf("expected ErrInvalidRobot, got %v", err)
	}
	st, _ := g.RobotState("r1")
	if st.ErrorCount != 0 || len(drain(g)) != 0 {
		t.Errorf("unknown failure changed state: errors=%d", st.ErrorCount)
	}
}

func TestEventRuleGating(t *testing.T) {
	rule := EventRule{
		Type:        EventMaintenanceRequired,
		Severity:    SeverityWarning,
		Probability: 1,
		Conditions:  Conditions{BatteryBelow: Below(20)},
		Message:     StaticMessage("low"),
	}
	g := newTestGenerator(t, nil, WithEventRules([]EventRule{rule}))
	_ = g.InitializeRobot("r1", "f1", GPSCoordinate{}, StatusIdle)
	e, _ := g.store.get("r1")

	e.state.BatteryLevel = 21
	for range 50 {
		g.StepMetrics(5)
	}
	if hasEvent(drain(g), EventMaintenanceRequired) {
		t.Fatal("rule fired above battery threshold")
	}

	e.state.BatteryLevel = 19
	g.StepMetrics(5)
	if !hasEvent(drain(g), EventMaintenanceRequired) {
		t.Error("rule did not fire below threshold")
	}
}

func TestEventRuleMatches(t *testing.T) {
	st := RobotState{BatteryLevel: 50, Temperature: 80, Speed: 2, Status: StatusWorking}
	tests := []struct {
		name string
		c    Conditions
		want bool
	}{
		{"no conditions", Conditions{}, true},
		{"temperature above", Conditions{TemperatureAbove: Above(70)}, true},
		{"temperature not above", Conditions{TemperatureAbove: Above(80)}, false},
		{"speed and status", Conditions{SpeedAbove: Above(1), StatusEquals: Equals(StatusWorking)}, true},
		{"status mismatch", Conditions{StatusEquals: Equals(StatusIdle)}, false},
		{"all must hold", Conditions{BatteryBelow: Below(60), TemperatureAbove: Above(90)}, false},
	}
	for _, tt := range tests {
		if got := (EventRule{Conditions: tt.c}).Matches(st); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestMetricsTick(t *testing.T) {
	g := newTestGenerator(t, nil, WithEventRules(nil))
	_ = g.InitializeRobot("r1", "f1", GPSCoordinate{}, StatusWorking)
	_ = g.SetRobotMotion("r1", ActivityWorking, 1)

	g.StepMetrics(5)
	updates := drain(g)
	if len(updates) != 1 {
		t.Fatalf("expected one metrics update, got %d", len(updates))
	}
	mu := updates[0].(MetricsUpdate)
	if len(mu.Metrics) != len(DefaultMetricRules()) {
		t.Fatalf("expected %d metrics, got %d", len(DefaultMetricRules()), len(mu.Metrics))
	}
	st, _ := g.RobotState("r1")
	for _, m := range mu.Metrics {
		switch m.Type {
		case MetricBatterySOC:
			if m.Value != st.BatteryLevel {
				t.Errorf("battery soc %f != state %f", m.Value, st.BatteryLevel)
			}
		case MetricSignalStrength:
			if m.Value >= 0 {
				t.Errorf("signal strength should stay negative, got %f", m.Value)
			}
		case MetricCPUUsage, MetricMemoryUsage:
			if m.Value < 0 || m.Value > 100 {
				t.Errorf("%s out of range: %f", m.Type, m.Value)
			}
		}
	}
}

func TestMetricsFeedBackIntoState(t *testing.T) {
	rules := []MetricRule{
		{Type: MetricMotorTemperature, BaseValue: 45, Unit: "°C"},
		{Type: MetricCPUUsage, BaseValue: 35, Unit: "%"},
		{Type: MetricMemoryUsage, BaseValue: 50, Unit: "%"},
	}
	g := newTestGenerator(t, nil, WithMetricRules(rules), WithEventRules(nil))
	_ = g.InitializeRobot("r1", "f1", GPSCoordinate{}, StatusWorking)
	_ = g.SetRobotMotion("r1", ActivityWorking, 1)
	e, _ := g.store.get("r1")
	e.state.Temperature = 80
	e.state.CPUUsage = 50
	e.state.MemoryUsage = 60

	g.StepMetrics(5)
	mu := drain(g)[0].(MetricsUpdate)
	reported := map[MetricType]float64{}
	for _, m := range mu.Metrics {
		reported[m.Type] = m.Value
	}
	if reported[MetricMotorTemperature] != 90 || reported[MetricCPUUsage] != 70 || reported[MetricMemoryUsage] != 60 {
		t.Fatalf("unexpected readings %v", reported)
	}
	st, _ := g.RobotState("r1")
	if st.Temperature != reported[MetricMotorTemperature] {
		t.Errorf("expected temperature %f, got %f", reported[MetricMotorTemperature], st.Temperature)
	}
	if st.CPUUsage != reported[MetricCPUUsage] {
		t.Errorf("expected cpu %f, got %f", reported[MetricCPUUsage], st.CPUUsage)
	}
	if st.MemoryUsage != reported[MetricMemoryUsage] {
		t.Errorf("expected memory %f, got %f", reported[MetricMemoryUsage], st.MemoryUsage)
	}
}

func TestRemoveAndClear(t *testing.T) {
	g := newTestGenerator(t, nil)
	_ = g.InitializeRobot("a", "f1", GPSCoordinate{}, StatusIdle)
	_ = g.InitializeRobot("b", "f1", GPSCoordinate{}, StatusIdle)
	_ = g.InjectFailure("a", FailureConnectionLoss)
	if g.PendingRecoveries() != 1 {
		t.Fatalf("expected pending recovery")
	}
	if !g.RemoveRobot("a") {
		t.Fatal("expected robot a removed")
	}
	if g.PendingRecoveries() != 0 {
		t.Errorf("expected recovery dropped with robot")
	}
	if g.RemoveRobot("a") {
		t.Error("second remove should report false")
	}
	g.Clear()
	if n := len(g.RobotStates()); n != 0 {
		t.Errorf("expected empty generator, got %d robots", n)
	}
}

func TestRecoveryTimerLifecycle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := newTestGenerator(t, func(c *Config) {
		c.FailureInjection.MeanTimeToRecovery = 30 * time.Second
		c.UpdateIntervals = UpdateIntervals{Position: time.Hour, Status: time.Hour, Metrics: time.Hour}
	}, WithClock(clock))
	_ = g.InitializeRobot("r1", "f1", GPSCoordinate{}, StatusWorking)

	g.Start()
	_ = g.InjectFailure("r1", FailureConnectionLoss)
	g.Stop()

	clock.Advance(time.Minute)
	if st, _ := g.RobotState("r1"); st.Status != StatusOffline {
		t.Fatalf("robot recovered while stopped: %s", st.Status)
	}
	if g.PendingRecoveries() != 1 {
		t.Fatalf("expected recovery to remain pending")
	}

	g.Start()
	defer g.Stop()
	clock.Advance(31 * time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for g.PendingRecoveries() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	st, _ := g.RobotState("r1")
	if st.Status != StatusIdle || st.Activity != ActivityIdle {
		t.Fatalf("expected IDLE after recovery, got %s/%s", st.Status, st.Activity)
	}
	if !hasEvent(drain(g), EventConnectionRestored) {
		t.Error("expected CONNECTION_RESTORED event")
	}
}

func TestStartStopAndUpdateConfig(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := newTestGenerator(t, nil, WithClock(clock))
	_ = g.InitializeRobot("r1", "f1", GPSCoordinate{}, StatusIdle)

	g.Start()
	g.Start() // no-op
	if !g.Running() {
		t.Fatal("expected running")
	}
	clock.Advance(time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for g.Stats().Emitted == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if g.Stats().Emitted == 0 {
		t.Fatal("expected scheduled ticks to emit updates")
	}

	accel := 10.0
	cfg := g.UpdateConfig(ConfigPatch{TimeAcceleration: &accel})
	if cfg.TimeAcceleration != 10 || !g.Running() {
		t.Errorf("expected restart with acceleration 10, got %+v running=%v", cfg.TimeAcceleration, g.Running())
	}

	g.Stop()
	g.Stop() // no-op
	if g.Running() {
		t.Fatal("expected stopped")
	}
	drain(g)
	clock.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	if n := len(drain(g)); n != 0 {
		t.Errorf("expected no updates after stop, got %d", n)
	}
}

func TestEmitDropsWhenFull(t *testing.T) {
	g := newTestGenerator(t, func(c *Config) { c.BufferSize = 2 })
	_ = g.InitializeRobot("r1", "f1", GPSCoordinate{}, StatusIdle)
	for range 5 {
		g.StepStatuses(1)
	}
	s := g.Stats()
	if s.Emitted != 2 || s.Dropped != 3 {
		t.Errorf("expected 2 emitted and 3 dropped, got %d/%d", s.Emitted, s.Dropped)
	}
}
