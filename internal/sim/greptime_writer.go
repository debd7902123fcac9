package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
	"github.com/google/uuid"

	"robofleet-sim/internal/telemetry"
)

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes telemetry to GreptimeDB via the ingester client.
// Each update kind lands in its own table; events get a fourth table.
type GreptimeDBWriter struct {
	client   greptimeClient
	log      *slog.Logger
	timeout  time.Duration
	posTable string
	stTable  string
	metTable string
	evTable  string
}

// NewGreptimeDBWriter connects to GreptimeDB at host:port. Tables are created
// on first write by the server.
func NewGreptimeDBWriter(host string, port int, database string, log *slog.Logger) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &GreptimeDBWriter{
		client:   client,
		log:      log.With("component", "greptime"),
		timeout:  10 * time.Second,
		posTable: telemetry.PositionTableName,
		stTable:  telemetry.StatusTableName,
		metTable: telemetry.MetricTableName,
		evTable:  telemetry.EventTableName,
	}, nil
}

// Write inserts a single update.
func (w *GreptimeDBWriter) Write(u telemetry.Update) error {
	return w.WriteBatch([]telemetry.Update{u})
}

// WriteBatch splits updates by kind and writes one table per kind in a
// single request.
func (w *GreptimeDBWriter) WriteBatch(updates []telemetry.Update) error {
	if len(updates) == 0 {
		return nil
	}
	var (
		pos, st, met, ev *table.Table
		err              error
	)
	add := func(t **table.Table, build func() (*table.Table, error), vals ...any) error {
		if *t == nil {
			if *t, err = build(); err != nil {
				return err
			}
		}
		return (*t).AddRow(vals...)
	}

	for _, u := range updates {
		switch v := u.(type) {
		case telemetry.PositionUpdate:
			err = add(&pos, w.positionTable, v.FleetID, v.RobotID,
				v.Position.Latitude, v.Position.Longitude, v.Position.Altitude,
				v.Heading, v.Speed, v.Timestamp)
		case telemetry.StatusUpdate:
			err = add(&st, w.statusTable, v.FleetID, v.RobotID,
				string(v.Status), string(v.Activity), v.BatteryLevel, v.HealthScore, v.Timestamp)
		case telemetry.MetricsUpdate:
			for _, m := range v.Metrics {
				if err = add(&met, w.metricTable, v.FleetID, v.RobotID, string(m.Type), m.Value, m.Unit, v.Timestamp); err != nil {
					break
				}
			}
			for _, e := range v.Events {
				if err != nil {
					break
				}
				var data []byte
				if data, err = json.Marshal(e.Data); err != nil {
					break
				}
				err = add(&ev, w.eventTable, v.FleetID, v.RobotID, uuid.NewString(),
					string(e.Type), string(e.Severity), e.Message, string(data), v.Timestamp)
			}
		}
		if err != nil {
			return fmt.Errorf("build %s row: %w", u.Kind(), err)
		}
	}

	var tables []*table.Table
	for _, t := range []*table.Table{pos, st, met, ev} {
		if t != nil {
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tables...); err != nil {
		w.log.Error("write failed", "error", err)
		return err
	}
	w.log.Debug("wrote updates", "count", len(updates), "tables", len(tables))
	return nil
}

func (w *GreptimeDBWriter) positionTable() (*table.Table, error) {
	tbl, err := table.New(w.posTable)
	if err != nil {
		return nil, err
	}
	addTags(tbl)
	for _, c := range []string{"latitude", "longitude", "altitude", "heading", "speed"} {
		tbl.AddFieldColumn(c, types.FLOAT64)
	}
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	return tbl, nil
}

func (w *GreptimeDBWriter) statusTable() (*table.Table, error) {
	tbl, err := table.New(w.stTable)
	if err != nil {
		return nil, err
	}
	addTags(tbl)
	tbl.AddFieldColumn("status", types.STRING)
	tbl.AddFieldColumn("activity", types.STRING)
	tbl.AddFieldColumn("battery_level", types.FLOAT64)
	tbl.AddFieldColumn("health_score", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	return tbl, nil
}

func (w *GreptimeDBWriter) metricTable() (*table.Table, error) {
	tbl, err := table.New(w.metTable)
	if err != nil {
		return nil, err
	}
	addTags(tbl)
	tbl.AddTagColumn("metric_type", types.STRING)
	tbl.AddFieldColumn("value", types.FLOAT64)
	tbl.AddFieldColumn("unit", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	return tbl, nil
}

func (w *GreptimeDBWriter) eventTable() (*table.Table, error) {
	tbl, err := table.New(w.evTable)
	if err != nil {
		return nil, err
	}
	addTags(tbl)
	tbl.AddFieldColumn("event_id", types.STRING)
	tbl.AddFieldColumn("event_type", types.STRING)
	tbl.AddFieldColumn("severity", types.STRING)
	tbl.AddFieldColumn("message", types.STRING)
	tbl.AddFieldColumn("data", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	return tbl, nil
}

func addTags(tbl *table.Table) {
	tbl.AddTagColumn("fleet_id", types.STRING)
	tbl.AddTagColumn("robot_id", types.STRING)
}
