package telemetry

import "os"

// Table names used when telemetry is persisted to GreptimeDB. Each defaults to
// a robot_* name and can be overridden through the environment.
var (
	PositionTableName = tableName("ROBOT_POSITION_TABLE", "robot_positions")
	StatusTableName   = tableName("ROBOT_STATUS_TABLE", "robot_status")
	MetricTableName   = tableName("ROBOT_METRIC_TABLE", "robot_metrics")
	EventTableName    = tableName("ROBOT_EVENT_TABLE", "robot_events")
)

func tableName(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}
