package telemetry

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"robofleet-sim/internal/geo"
)

// GPS drift displaces a robot by up to this many meters per axis.
const gpsDriftM = 5.0

// recovery tracks a robot waiting to come back from a connection loss. timer
// is nil while the generator is stopped; seq invalidates stale callbacks.
type recovery struct {
	timer clockwork.Timer
	seq   uint64
}

// InjectFailure applies a failure to a robot immediately, bypassing the
// random draw in the status loop.
func (g *Generator) InjectFailure(robotID string, ft FailureType) error {
	if !ft.Valid() {
		return fmt.Errorf("inject %q: %w", ft, ErrUnknownFailure)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.store.get(robotID)
	if !ok {
		return ErrInvalidRobot
	}
	g.injectFailure(e, ft)
	return nil
}

func (g *Generator) injectFailure(e *entry, ft FailureType) {
	st := &e.state
	g.log.Info("injecting failure", "robot_id", st.RobotID, "fleet_id", st.FleetID, "failure", ft)

	switch ft {
	case FailureBatteryDrain:
		st.BatteryLevel = max(min(st.BatteryLevel, 5), st.BatteryLevel-20)
		g.emitEvent(st, EventHardwareError, SeverityWarning, "Sudden battery drain detected")
	case FailureConnectionLoss:
		g.transition(e, StatusOffline, ActivityError)
		g.emitEvent(st, EventConnectionLost, SeverityError, "Connection lost")
		g.recoveries[st.RobotID] = &recovery{}
		if g.running {
			g.armRecovery(st.RobotID)
		}
	case FailureMotorOverheating:
		st.Temperature += 20
		g.transition(e, StatusError, ActivityError)
		g.emitEvent(st, EventHardwareError, SeverityError, "Motor overheating detected")
	case FailureGPSDrift:
		st.Position.Latitude, st.Position.Longitude = geo.Jitter(
			st.Position.Latitude, st.Position.Longitude, gpsDriftM, g.rng.Float64)
		g.emitEvent(st, EventSoftwareError, SeverityWarning, "GPS accuracy degraded")
	case FailureSensorError:
		st.Vibration += 2 + g.rng.Float64()*3
		g.emitEvent(st, EventHardwareError, SeverityWarning, "Sensor readings out of range")
	case FailureSoftwareCrash:
		g.transition(e, StatusError, ActivityError)
		g.emitEvent(st, EventSoftwareError, SeverityError, "Control software crashed")
	case FailureObstacleCollision:
		st.Speed = 0
		st.Vibration += 5
		g.emitEvent(st, EventCollisionDetected, SeverityWarning, "Collision with obstacle detected")
	case FailureCommunicationLag:
		st.SignalStrength -= 15
		g.emitEvent(st, EventConnectionLost, SeverityWarning, "Communication latency increased")
	default:
		g.log.Warn("unknown failure type", "robot_id", st.RobotID, "failure", ft)
		return
	}
	st.ErrorCount++
}

// armRecovery starts the recovery timer for a pending robot. Callers hold g.mu.
func (g *Generator) armRecovery(robotID string) {
	rec, ok := g.recoveries[robotID]
	if !ok {
		return
	}
	if rec.timer != nil {
		rec.timer.Stop()
	}
	g.recSeq++
	seq := g.recSeq
	rec.seq = seq
	delay := TickPeriod(g.cfg.FailureInjection.MeanTimeToRecovery, g.cfg.TimeAcceleration)
	rec.timer = g.clock.AfterFunc(delay, func() { g.recover(robotID, seq) })
}

func (g *Generator) recover(robotID string, seq uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.recoveries[robotID]
	if !ok || rec.seq != seq || !g.running {
		return
	}
	delete(g.recoveries, robotID)
	e, ok := g.store.get(robotID)
	if !ok {
		return
	}
	g.transition(e, StatusIdle, ActivityIdle)
	g.emitEvent(&e.state, EventConnectionRestored, SeverityInfo, "Connection restored")
	g.log.Info("robot recovered", "robot_id", robotID)
}

// cancelRecovery forgets any pending recovery. Callers hold g.mu.
func (g *Generator) cancelRecovery(robotID string) {
	rec, ok := g.recoveries[robotID]
	if !ok {
		return
	}
	if rec.timer != nil {
		rec.timer.Stop()
	}
	delete(g.recoveries, robotID)
}

// PendingRecoveries returns the number of robots waiting to recover.
func (g *Generator) PendingRecoveries() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.recoveries)
}
