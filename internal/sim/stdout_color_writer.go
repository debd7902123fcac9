// ColorStdoutWriter prints human-friendly, colorized telemetry to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"robofleet-sim/internal/config"
	"robofleet-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorWhite   = "\x1b[37m"
	colorGray    = "\x1b[90m"
)

var fleetPalette = []string{colorGreen, colorYellow, colorBlue, colorMagenta, colorCyan, colorRed}

// fleetColors hands out palette colors per fleet id in first-seen order.
type fleetColors struct {
	colors map[string]string
	next   int
}

func (fc *fleetColors) get(id string) string {
	if fc.colors == nil {
		fc.colors = make(map[string]string)
	}
	if c, ok := fc.colors[id]; ok {
		return c
	}
	c := fleetPalette[fc.next%len(fleetPalette)]
	fc.colors[id] = c
	fc.next++
	return c
}

func statusColor(s telemetry.RobotStatus) string {
	switch s {
	case telemetry.StatusError, telemetry.StatusOffline:
		return colorRed
	case telemetry.StatusCharging, telemetry.StatusMaintenance:
		return colorYellow
	case telemetry.StatusIdle:
		return colorGray
	default:
		return colorGreen
	}
}

func severityColor(s telemetry.Severity) string {
	switch s {
	case telemetry.SeverityError, telemetry.SeverityCritical:
		return colorRed
	case telemetry.SeverityWarning:
		return colorYellow
	default:
		return colorCyan
	}
}

// ColorStdoutWriter prints updates using ANSI colors, one line per update
// and one per event.
type ColorStdoutWriter struct {
	cfg    *config.SimulationConfig
	out    io.Writer
	once   sync.Once
	mu     sync.Mutex
	fleets fleetColors
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

// NewStdoutWriter picks colorized output on a terminal and JSON lines otherwise.
func NewStdoutWriter(cfg *config.SimulationConfig) TelemetryWriter {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return NewColorStdoutWriter(cfg)
	}
	return NewJSONStdoutWriter()
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	g := w.cfg.Generator
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Cluster:\t%s\n", w.cfg.ClusterID)
	fmt.Fprintf(tw, "Time Acceleration:\t%gx\n", g.TimeAcceleration)
	fmt.Fprintf(tw, "Intervals:\tposition=%s status=%s metrics=%s\n",
		g.UpdateIntervals.Position, g.UpdateIntervals.Status, g.UpdateIntervals.Metrics)
	fmt.Fprintf(tw, "Failure Injection:\t%t (rate %.3f/h, mttr %s)\n",
		g.FailureInjection.Enabled, g.FailureInjection.FailureRate, g.FailureInjection.MeanTimeToRecovery)
	fmt.Fprintf(tw, "Noise Level:\t%.2f\n", g.NoiseLevel)
	tw.Flush()

	fmt.Fprintln(w.out, "\nFleets:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tName\tScenario\tRobots\n")
	for _, f := range w.cfg.Fleets {
		n := f.RobotCount
		if len(f.RobotIDs) > 0 {
			n = len(f.RobotIDs)
		}
		sc := f.Scenario
		if sc == "" {
			sc = "auto"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s\t%d\n", w.fleets.get(f.ID), f.ID, colorReset, f.Name, sc, n)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

// Write outputs a single update in colorized format.
func (w *ColorStdoutWriter) Write(u telemetry.Update) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()

	prefix := fmt.Sprintf("%s[%s]%s %sfleet=%s%s %srobot=%s%s",
		colorGray, u.Time().Format(time.RFC3339), colorReset,
		w.fleets.get(u.Fleet()), u.Fleet(), colorReset,
		colorWhite, u.Robot(), colorReset)

	switch v := u.(type) {
	case telemetry.PositionUpdate:
		fmt.Fprintf(w.out, "%s %sPOS%s %slat=%.6f%s %slon=%.6f%s %shdg=%.0f %s%s %sspd=%.2f%s\n", prefix,
			colorBlue, colorReset,
			colorGreen, v.Position.Latitude, colorReset,
			colorYellow, v.Position.Longitude, colorReset,
			colorCyan, v.Heading, headingIcon(v.Heading), colorReset,
			colorMagenta, v.Speed, colorReset)
	case telemetry.StatusUpdate:
		fmt.Fprintf(w.out, "%s %sSTATUS%s %s%s/%s%s %sbatt=%.1f%s %shealth=%.0f%s\n", prefix,
			colorBlue, colorReset,
			statusColor(v.Status), v.Status, v.Activity, colorReset,
			colorCyan, v.BatteryLevel, colorReset,
			colorGreen, v.HealthScore, colorReset)
	case telemetry.MetricsUpdate:
		if len(v.Metrics) > 0 {
			parts := make([]string, 0, len(v.Metrics))
			for _, m := range v.Metrics {
				parts = append(parts, fmt.Sprintf("%s=%.1f%s", strings.ToLower(string(m.Type)), m.Value, m.Unit))
			}
			fmt.Fprintf(w.out, "%s %sMETRICS%s %s%s%s\n", prefix, colorBlue, colorReset, colorGray, strings.Join(parts, " "), colorReset)
		}
		for _, e := range v.Events {
			fmt.Fprintf(w.out, "%s %s%s %s%s %s\n", prefix, severityColor(e.Severity), e.Severity, e.Type, colorReset, e.Message)
		}
	}
	return nil
}

// WriteBatch outputs multiple updates.
func (w *ColorStdoutWriter) WriteBatch(updates []telemetry.Update) error {
	for _, u := range updates {
		_ = w.Write(u)
	}
	return nil
}

// headingIcon maps a compass heading to an arrow.
func headingIcon(h float64) string {
	h = normalizeHeading(h)
	switch {
	case h >= 45 && h < 135:
		return ">"
	case h >= 135 && h < 225:
		return "v"
	case h >= 225 && h < 315:
		return "<"
	default:
		return "^"
	}
}

func normalizeHeading(h float64) float64 {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	return h
}
