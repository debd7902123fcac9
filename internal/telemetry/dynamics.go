package telemetry

import (
	"github.com/google/uuid"

	"robofleet-sim/internal/geo"
)

// Status loop constants. Rates are percent per simulated hour.
const (
	lowBatteryThreshold = 15.0
	resumeThreshold     = 95.0
	chargeRate          = 50.0
	taskProgressRate    = 0.1 // percent per simulated second
	taskCompletionProb  = 0.1
	maxGPSNoiseM        = 5.0
)

// drainRate returns battery drain in percent per hour for an activity.
// Charging is a negative drain.
func drainRate(a Activity, speed float64) float64 {
	switch a {
	case ActivityIdle:
		return 0.5
	case ActivityTraveling:
		return 2.0 + 0.5*speed
	case ActivityWorking:
		return 3.0 + 0.5*speed
	case ActivityCharging:
		return -20.0
	case ActivityReturningToBase:
		return 2.5
	case ActivityError:
		return 0.2
	case ActivityMaintenance:
		return 0.1
	default:
		return 1.0
	}
}

// healthScore derives a 0..100 score from battery, temperature and errors.
func healthScore(st *RobotState) float64 {
	score := 100.0
	score -= max(0, 20-st.BatteryLevel)
	score -= max(0, (st.Temperature-60)*2)
	score -= float64(st.ErrorCount) * 5
	return clamp(score, 0, 100)
}

func newTaskID() string { return "task-" + uuid.NewString()[:8] }

// transition sets status and activity and derives speed from the activity.
func (g *Generator) transition(e *entry, status RobotStatus, activity Activity) {
	st := &e.state
	if status == StatusWorking && st.Status != StatusWorking {
		st.CurrentTaskID = newTaskID()
	}
	st.Status = status
	st.Activity = activity
	st.LastStateChange = g.clock.Now().UTC()
	switch activity {
	case ActivityIdle, ActivityCharging:
		st.Speed = 0
	case ActivityWorking:
		st.Speed = 0.5 + g.rng.Float64()
	case ActivityTraveling:
		st.Speed = 1.0 + g.rng.Float64()*1.5
	}
	g.log.Debug("robot transition", "robot_id", st.RobotID, "status", status, "activity", activity)
}

func (g *Generator) stepPositions(dt float64) {
	noise := g.cfg.NoiseLevel
	g.store.each(func(e *entry) {
		st := &e.state
		if st.Status == StatusOffline || st.Status == StatusError {
			return
		}
		if e.path == nil || len(e.path.Waypoints) == 0 {
			return
		}
		if e.pauseLeft > 0 {
			e.pauseLeft = max(0, e.pauseLeft-dt)
		} else {
			g.move(e, st.Speed*dt)
		}
		if noise > 0 {
			st.Position.Latitude, st.Position.Longitude = geo.Jitter(
				st.Position.Latitude, st.Position.Longitude, noise*maxGPSNoiseM, g.rng.Float64)
		}
		g.emit(PositionUpdate{
			Header:   g.header(st),
			Position: st.Position,
			Heading:  st.Heading,
			Speed:    st.Speed,
		})
	})
}

// move advances a robot distance meters toward the waypoint after the one
// nearest to it.
func (g *Generator) move(e *entry, distance float64) {
	st := &e.state
	path := e.path
	pos := st.Position
	wps := path.Waypoints

	nearest := 0
	best := geo.Distance(pos.Latitude, pos.Longitude, wps[0].Latitude, wps[0].Longitude)
	for i := 1; i < len(wps); i++ {
		if d := geo.Distance(pos.Latitude, pos.Longitude, wps[i].Latitude, wps[i].Longitude); d < best {
			best, nearest = d, i
		}
	}
	next := (nearest + 1) % len(wps)
	if !path.LoopPath && nearest == len(wps)-1 {
		return
	}
	target := wps[next]
	toTarget := geo.Distance(pos.Latitude, pos.Longitude, target.Latitude, target.Longitude)

	var moved GPSCoordinate
	if distance >= toTarget {
		moved = GPSCoordinate{Latitude: target.Latitude, Longitude: target.Longitude, Altitude: target.Altitude}
		if path.PauseAtWaypoints && path.PauseDuration > 0 {
			e.pauseLeft = path.PauseDuration
		}
	} else {
		f := distance / toTarget
		moved = GPSCoordinate{
			Latitude:  pos.Latitude + (target.Latitude-pos.Latitude)*f,
			Longitude: pos.Longitude + (target.Longitude-pos.Longitude)*f,
			Altitude:  pos.Altitude,
		}
	}
	if distance > 0 && (moved.Latitude != pos.Latitude || moved.Longitude != pos.Longitude) {
		st.Heading = geo.Heading(pos.Latitude, pos.Longitude, moved.Latitude, moved.Longitude)
	}
	st.Position = moved
	st.Odometer += distance
}

func (g *Generator) stepStatuses(dt float64) {
	fi := g.cfg.FailureInjection
	hours := dt / 3600
	g.store.each(func(e *entry) {
		st := &e.state
		st.BatteryLevel = clamp(st.BatteryLevel-drainRate(st.Activity, st.Speed)*hours, 0, 100)

		if st.BatteryLevel < lowBatteryThreshold && st.Status != StatusCharging {
			g.transition(e, StatusCharging, ActivityCharging)
			g.emitEvent(st, EventRobotStopped, SeverityWarning, "Low battery - returning to charge")
		}

		if st.Status == StatusCharging {
			st.BatteryLevel = min(100, st.BatteryLevel+chargeRate*hours)
			st.Speed = 0
			if st.BatteryLevel >= resumeThreshold {
				g.transition(e, StatusWorking, ActivityWorking)
				g.emitEvent(st, EventRobotStarted, SeverityInfo, "Charging complete - resuming work")
			}
		}

		if st.Status == StatusWorking {
			st.TaskProgress = min(100, st.TaskProgress+taskProgressRate*dt)
			st.WorkHours += hours
			if st.TaskProgress >= 100 && g.rng.Float64() < taskCompletionProb {
				st.TaskProgress = 0
				g.emitEvent(st, EventTaskCompleted, SeverityInfo, "Task completed successfully")
				st.CurrentTaskID = newTaskID()
			}
		}

		if fi.Enabled && len(fi.Types) > 0 && g.rng.Float64() < fi.FailureRate*hours {
			g.injectFailure(e, fi.Types[g.rng.Intn(len(fi.Types))])
		}

		st.HealthScore = healthScore(st)
		g.emit(StatusUpdate{
			Header:       g.header(st),
			Status:       st.Status,
			Activity:     st.Activity,
			BatteryLevel: st.BatteryLevel,
			HealthScore:  st.HealthScore,
		})
	})
}

func (g *Generator) stepMetrics(float64) {
	noise := g.cfg.NoiseLevel
	g.store.each(func(e *entry) {
		st := &e.state
		metrics := make([]Metric, 0, len(g.metricRules))
		for _, rule := range g.metricRules {
			value, bonus := rule.BaseValue, 0.0
			switch rule.Type {
			case MetricBatterySOC:
				value = st.BatteryLevel
			case MetricVelocity:
				value = st.Speed
			case MetricBatteryVoltage:
				value = st.BatteryVoltage
			case MetricSignalStrength:
				value = st.SignalStrength
			case MetricVibration:
				value = st.Vibration
			case MetricCPUUsage:
				if st.Activity == ActivityWorking {
					bonus = 20
				}
				value = st.CPUUsage + bonus
			case MetricMotorTemperature:
				if st.Speed > 0 {
					bonus = 10
				}
				value = st.Temperature + bonus
			case MetricMemoryUsage:
				value = st.MemoryUsage
			}
			value += (g.rng.Float64() - 0.5) * 2 * (rule.Variance / 100) * value
			if noise > 0 {
				value += (g.rng.Float64() - 0.5) * noise * value
			}
			if rule.BaseValue >= 0 {
				value = max(0, value)
			}
			if rule.Unit == "%" {
				value = min(100, value)
			}
			metrics = append(metrics, Metric{Type: rule.Type, Value: value, Unit: rule.Unit})
			absorb(st, rule.Type, value)
		}

		var events []Event
		for _, rule := range g.eventRules {
			if g.rng.Float64() < rule.Probability && rule.Matches(*st) {
				events = append(events, g.event(st, rule.Type, rule.Severity, rule.message(*st)))
			}
		}
		st.Vibration += (0.2 - st.Vibration) * 0.5
		st.SignalStrength += (-65 - st.SignalStrength) * 0.2

		g.emit(MetricsUpdate{Header: g.header(st), Metrics: metrics, Events: events})
	})
}

// absorb writes an emitted reading back into state so the next status tick
// scores health from what was reported.
func absorb(st *RobotState, typ MetricType, v float64) {
	switch typ {
	case MetricMotorTemperature:
		st.Temperature = v
	case MetricCPUUsage:
		st.CPUUsage = v
	case MetricMemoryUsage:
		st.MemoryUsage = v
	}
}
