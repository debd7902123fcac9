package telemetry

import "fmt"

// MetricRule describes how one synthetic reading is produced each metrics tick.
type MetricRule struct {
	Type      MetricType
	BaseValue float64
	Variance  float64 // +/- percent of the value
	Unit      string
}

// Conditions are thresholds on robot state that must all hold for an event
// rule to fire. Nil fields are ignored.
type Conditions struct {
	BatteryBelow     *float64
	TemperatureAbove *float64
	SpeedAbove       *float64
	StatusEquals     *RobotStatus
}

// EventRule fires an event with the given probability per metrics tick when
// its conditions hold.
type EventRule struct {
	Type        EventType
	Severity    Severity
	Probability float64
	Conditions  Conditions
	Message     func(RobotState) string
}

// Matches reports whether every configured condition holds for st.
func (r EventRule) Matches(st RobotState) bool {
	c := r.Conditions
	if c.BatteryBelow != nil && st.BatteryLevel >= *c.BatteryBelow {
		return false
	}
	if c.TemperatureAbove != nil && st.Temperature <= *c.TemperatureAbove {
		return false
	}
	if c.SpeedAbove != nil && st.Speed <= *c.SpeedAbove {
		return false
	}
	if c.StatusEquals != nil && st.Status != *c.StatusEquals {
		return false
	}
	return true
}

func (r EventRule) message(st RobotState) string {
	if r.Message == nil {
		return string(r.Type)
	}
	return r.Message(st)
}

// Below, Above and Equals build optional rule thresholds.
func Below(v float64) *float64 { return &v }
func Above(v float64) *float64 { return &v }
func Equals(s RobotStatus) *RobotStatus { return &s }

// StaticMessage returns a message func that ignores robot state.
func StaticMessage(s string) func(RobotState) string {
	return func(RobotState) string { return s }
}

// DefaultMetricRules is the sensor table synthesized for every robot.
func DefaultMetricRules() []MetricRule {
	return []MetricRule{
		{Type: MetricBatterySOC, BaseValue: 85, Variance: 0, Unit: "%"},
		{Type: MetricBatteryVoltage, BaseValue: 48, Variance: 5, Unit: "V"},
		{Type: MetricBatteryCurrent, BaseValue: 10, Variance: 30, Unit: "A"},
		{Type: MetricMotorTemperature, BaseValue: 45, Variance: 15, Unit: "°C"},
		{Type: MetricCPUUsage, BaseValue: 35, Variance: 20, Unit: "%"},
		{Type: MetricMemoryUsage, BaseValue: 50, Variance: 15, Unit: "%"},
		{Type: MetricSignalStrength, BaseValue: -65, Variance: 10, Unit: "dBm"},
		{Type: MetricVelocity, BaseValue: 1.5, Variance: 40, Unit: "m/s"},
		{Type: MetricVibration, BaseValue: 0.5, Variance: 50, Unit: "m/s²"},
		{Type: MetricAmbientTemperature, BaseValue: 22, Variance: 5, Unit: "°C"},
	}
}

// DefaultEventRules is the probabilistic event table evaluated every metrics tick.
func DefaultEventRules() []EventRule {
	return []EventRule{
		{
			Type:        EventTaskCompleted,
			Severity:    SeverityInfo,
			Probability: 0.001,
			Conditions:  Conditions{StatusEquals: Equals(StatusWorking)},
			Message: func(st RobotState) string {
				id := st.CurrentTaskID
				if id == "" {
					id = "unknown"
				}
				return fmt.Sprintf("Task %s completed successfully", id)
			},
		},
		{
			Type:        EventMaintenanceRequired,
			Severity:    SeverityWarning,
			Probability: 0.0001,
			Conditions:  Conditions{BatteryBelow: Below(20)},
			Message:     StaticMessage("Battery low - maintenance required soon"),
		},
		{
			Type:        EventHardwareError,
			Severity:    SeverityError,
			Probability: 0.00005,
			Conditions:  Conditions{TemperatureAbove: Above(70)},
			Message: func(st RobotState) string {
				return fmt.Sprintf("Motor temperature critical: %.1f°C", st.Temperature)
			},
		},
	}
}
