package telemetry

import (
	"encoding/json"
	"fmt"
	"time"
)

// UpdateKind tags the concrete type behind an Update.
type UpdateKind string

const (
	KindPosition UpdateKind = "position"
	KindStatus   UpdateKind = "status"
	KindMetrics  UpdateKind = "metrics"
)

// Update is a record emitted by the generator. The concrete type is one of
// PositionUpdate, StatusUpdate or MetricsUpdate.
type Update interface {
	Kind() UpdateKind
	Robot() string
	Fleet() string
	Time() time.Time
	isUpdate()
}

// Header carries the identity and time shared by every update.
type Header struct {
	RobotID   string    `json:"robot_id"`
	FleetID   string    `json:"fleet_id"`
	Timestamp time.Time `json:"ts"`
}

func (h Header) Robot() string   { return h.RobotID }
func (h Header) Fleet() string   { return h.FleetID }
func (h Header) Time() time.Time { return h.Timestamp }
func (Header) isUpdate()         {}

// PositionUpdate is emitted by the position loop.
type PositionUpdate struct {
	Header
	Position GPSCoordinate `json:"position"`
	Heading  float64       `json:"heading"`
	Speed    float64       `json:"speed"`
}

// StatusUpdate is emitted by the status loop.
type StatusUpdate struct {
	Header
	Status       RobotStatus `json:"status"`
	Activity     Activity    `json:"activity"`
	BatteryLevel float64     `json:"battery_level"`
	HealthScore  float64     `json:"health_score"`
}

// Metric is one synthesized reading.
type Metric struct {
	Type  MetricType `json:"type"`
	Value float64    `json:"value"`
	Unit  string     `json:"unit"`
}

// Event is a discrete occurrence such as a task completion or an injected fault.
type Event struct {
	Type     EventType      `json:"type"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data,omitempty"`
}

// MetricsUpdate carries a metrics batch and any events raised alongside it.
// Events raised outside the metrics loop are sent with no metrics.
type MetricsUpdate struct {
	Header
	Metrics []Metric `json:"metrics,omitempty"`
	Events  []Event  `json:"events,omitempty"`
}

func (PositionUpdate) Kind() UpdateKind { return KindPosition }
func (StatusUpdate) Kind() UpdateKind   { return KindStatus }
func (MetricsUpdate) Kind() UpdateKind  { return KindMetrics }

func (u PositionUpdate) MarshalJSON() ([]byte, error) {
	type plain PositionUpdate
	return json.Marshal(struct {
		Kind UpdateKind `json:"kind"`
		plain
	}{KindPosition, plain(u)})
}

func (u StatusUpdate) MarshalJSON() ([]byte, error) {
	type plain StatusUpdate
	return json.Marshal(struct {
		Kind UpdateKind `json:"kind"`
		plain
	}{KindStatus, plain(u)})
}

func (u MetricsUpdate) MarshalJSON() ([]byte, error) {
	type plain MetricsUpdate
	return json.Marshal(struct {
		Kind UpdateKind `json:"kind"`
		plain
	}{KindMetrics, plain(u)})
}

// DecodeUpdate parses a JSON record produced by marshaling an Update.
func DecodeUpdate(data []byte) (Update, error) {
	var head struct {
		Kind UpdateKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode update kind: %w", err)
	}
	switch head.Kind {
	case KindPosition:
		var u PositionUpdate
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("decode position update: %w", err)
		}
		return u, nil
	case KindStatus:
		var u StatusUpdate
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("decode status update: %w", err)
		}
		return u, nil
	case KindMetrics:
		var u MetricsUpdate
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("decode metrics update: %w", err)
		}
		return u, nil
	default:
		return nil, fmt.Errorf("unknown update kind %q", head.Kind)
	}
}
