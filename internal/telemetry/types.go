// Robot telemetry data model shared by the generator, scenarios and sinks.
package telemetry

import "time"

// GPSCoordinate is an immutable WGS84 position. Altitude defaults to 0.
type GPSCoordinate struct {
	Latitude  float64   `json:"latitude" yaml:"latitude"`
	Longitude float64   `json:"longitude" yaml:"longitude"`
	Altitude  float64   `json:"altitude,omitempty" yaml:"altitude,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero" yaml:"-"`
}

// RobotPath is a cyclic sequence of waypoints a robot follows.
type RobotPath struct {
	Waypoints        []GPSCoordinate `json:"waypoints"`
	Speed            float64         `json:"speed"` // meters per second
	LoopPath         bool            `json:"loop_path"`
	PauseAtWaypoints bool            `json:"pause_at_waypoints,omitempty"`
	PauseDuration    float64         `json:"pause_duration,omitempty"` // seconds
}

// RobotStatus is the coarse operational state reported to fleet operators.
type RobotStatus string

const (
	StatusIdle        RobotStatus = "IDLE"
	StatusWorking     RobotStatus = "WORKING"
	StatusCharging    RobotStatus = "CHARGING"
	StatusError       RobotStatus = "ERROR"
	StatusOffline     RobotStatus = "OFFLINE"
	StatusMaintenance RobotStatus = "MAINTENANCE"
)

// Statuses lists every RobotStatus in display order.
var Statuses = []RobotStatus{StatusIdle, StatusWorking, StatusCharging, StatusError, StatusOffline, StatusMaintenance}

// Activity is the finer grained behavioral mode of a robot.
type Activity string

const (
	ActivityIdle            Activity = "IDLE"
	ActivityTraveling       Activity = "TRAVELING"
	ActivityWorking         Activity = "WORKING"
	ActivityCharging        Activity = "CHARGING"
	ActivityReturningToBase Activity = "RETURNING_TO_BASE"
	ActivityError           Activity = "ERROR"
	ActivityMaintenance     Activity = "MAINTENANCE"
)

// FailureType names a fault the generator can inject.
type FailureType string

const (
	FailureBatteryDrain      FailureType = "BATTERY_DRAIN"
	FailureConnectionLoss    FailureType = "CONNECTION_LOSS"
	FailureSensorError       FailureType = "SENSOR_ERROR"
	FailureMotorOverheating  FailureType = "MOTOR_OVERHEATING"
	FailureGPSDrift          FailureType = "GPS_DRIFT"
	FailureSoftwareCrash     FailureType = "SOFTWARE_CRASH"
	FailureObstacleCollision FailureType = "OBSTACLE_COLLISION"
	FailureCommunicationLag  FailureType = "COMMUNICATION_LAG"
)

// Valid reports whether f is a failure the generator knows how to inject.
func (f FailureType) Valid() bool {
	switch f {
	case FailureBatteryDrain, FailureConnectionLoss, FailureSensorError, FailureMotorOverheating,
		FailureGPSDrift, FailureSoftwareCrash, FailureObstacleCollision, FailureCommunicationLag:
		return true
	}
	return false
}

// MetricType identifies a synthesized sensor reading.
type MetricType string

const (
	MetricBatterySOC         MetricType = "BATTERY_SOC"
	MetricBatteryVoltage     MetricType = "BATTERY_VOLTAGE"
	MetricBatteryCurrent     MetricType = "BATTERY_CURRENT"
	MetricMotorTemperature   MetricType = "MOTOR_TEMPERATURE"
	MetricCPUUsage           MetricType = "CPU_USAGE"
	MetricMemoryUsage        MetricType = "MEMORY_USAGE"
	MetricSignalStrength     MetricType = "SIGNAL_STRENGTH"
	MetricVelocity           MetricType = "VELOCITY"
	MetricVibration          MetricType = "VIBRATION"
	MetricAmbientTemperature MetricType = "AMBIENT_TEMPERATURE"
)

// EventType identifies a discrete telemetry event.
type EventType string

const (
	EventTaskCompleted       EventType = "TASK_COMPLETED"
	EventMaintenanceRequired EventType = "MAINTENANCE_REQUIRED"
	EventHardwareError       EventType = "HARDWARE_ERROR"
	EventSoftwareError       EventType = "SOFTWARE_ERROR"
	EventRobotStopped        EventType = "ROBOT_STOPPED"
	EventRobotStarted        EventType = "ROBOT_STARTED"
	EventConnectionLost      EventType = "CONNECTION_LOST"
	EventConnectionRestored  EventType = "CONNECTION_RESTORED"
	EventCollisionDetected   EventType = "COLLISION_DETECTED"
)

// Severity grades an event.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// RobotState is the mutable telemetry record kept per robot. Callers only ever
// receive copies; the generator's loops are the sole writers.
type RobotState struct {
	RobotID         string        `json:"robot_id"`
	FleetID         string        `json:"fleet_id"`
	Status          RobotStatus   `json:"status"`
	Activity        Activity      `json:"activity"`
	Position        GPSCoordinate `json:"position"`
	Heading         float64       `json:"heading"`
	Speed           float64       `json:"speed"`
	BatteryLevel    float64       `json:"battery_level"`
	BatteryVoltage  float64       `json:"battery_voltage"`
	BatteryCurrent  float64       `json:"battery_current"`
	HealthScore     float64       `json:"health_score"`
	TaskProgress    float64       `json:"task_progress"`
	CurrentTaskID   string        `json:"current_task_id,omitempty"`
	Temperature     float64       `json:"temperature"`
	CPUUsage        float64       `json:"cpu_usage"`
	MemoryUsage     float64       `json:"memory_usage"`
	SignalStrength  float64       `json:"signal_strength"`
	Vibration       float64       `json:"vibration"`
	ErrorCount      int           `json:"error_count"`
	LastStateChange time.Time     `json:"last_state_change"`
	Odometer        float64       `json:"odometer"`
	WorkHours       float64       `json:"work_hours"`
}
