package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"robofleet-sim/internal/config"
	"robofleet-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// updateMsg carries one telemetry update into the model.
type updateMsg struct{ telemetry.Update }

// adminMsg reports admin API status.
type adminMsg struct{ active bool }

const (
	maxLogLines  = 1000
	tableHeight  = 10
	chromeHeight = 6
)

// TUIWriter renders telemetry using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the TUI interrupts the process.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	m := newTUIModel(cfg)
	if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		m = m.resize(width, height)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(u telemetry.Update) error {
	w.program.Send(updateMsg{u})
	return nil
}

// WriteBatch forwards multiple updates.
func (w *TUIWriter) WriteBatch(updates []telemetry.Update) error {
	for _, u := range updates {
		w.program.Send(updateMsg{u})
	}
	return nil
}

// SetAdminStatus updates the admin API indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

// robotRow is the latest known view of one robot.
type robotRow struct {
	fleet    string
	status   telemetry.RobotStatus
	activity telemetry.Activity
	battery  float64
	health   float64
	speed    float64
	heading  float64
	lat, lon float64
	seen     time.Time
}

type tuiModel struct {
	cfg        *config.SimulationConfig
	table      table.Model
	vp         viewport.Model
	filter     textinput.Model
	filtering  bool
	fleetOnly  string
	robots     map[string]robotRow
	logs       []string
	updates    int
	events     int
	admin      bool
	wrap       bool
	autoscroll bool
	help       bool
	width      int
	height     int
	fleets     fleetColors
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	cols := []table.Column{
		{Title: "Robot", Width: 22},
		{Title: "Fleet", Width: 14},
		{Title: "Status", Width: 11},
		{Title: "Activity", Width: 17},
		{Title: "Batt%", Width: 6},
		{Title: "Health", Width: 6},
		{Title: "Spd", Width: 5},
		{Title: "Hdg", Width: 3},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(tableHeight))
	ti := textinput.New()
	ti.Placeholder = "fleet id (empty = all)"
	m := tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		filter:     ti,
		robots:     make(map[string]robotRow),
		autoscroll: true,
	}
	if cfg != nil {
		for _, f := range cfg.Fleets {
			m.fleets.get(f.ID)
		}
	}
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) resize(width, height int) tuiModel {
	m.width = width
	m.height = height
	m.table.SetWidth(width)
	m.vp.Width = width
	m.updateViewportHeight()
	m.refreshViewport()
	return m
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil
	case tea.KeyMsg:
		if m.filtering {
			switch msg.Type {
			case tea.KeyEnter:
				m.fleetOnly = strings.TrimSpace(m.filter.Value())
				m.filtering = false
				m.filter.Blur()
				m.refreshTable()
			case tea.KeyEsc:
				m.filtering = false
				m.filter.Blur()
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				return m, cmd
			}
			m.updateViewportHeight()
			return m, nil
		}
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "f", "/":
			m.filter.SetValue(m.fleetOnly)
			m.filter.CursorEnd()
			m.filter.Focus()
			m.filtering = true
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = true
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case updateMsg:
		m.apply(msg.Update)
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

// apply folds an update into the robot table and event log.
func (m *tuiModel) apply(u telemetry.Update) {
	m.updates++
	r := m.robots[u.Robot()]
	r.fleet = u.Fleet()
	r.seen = u.Time()
	switch v := u.(type) {
	case telemetry.PositionUpdate:
		r.lat, r.lon = v.Position.Latitude, v.Position.Longitude
		r.heading = v.Heading
		r.speed = v.Speed
	case telemetry.StatusUpdate:
		r.status = v.Status
		r.activity = v.Activity
		r.battery = v.BatteryLevel
		r.health = v.HealthScore
	case telemetry.MetricsUpdate:
		for _, e := range v.Events {
			m.events++
			m.logs = append(m.logs, fmt.Sprintf("%s[%s]%s %s%s%s %s%s %s%s %s",
				colorGray, u.Time().Format(time.TimeOnly), colorReset,
				m.fleets.get(u.Fleet()), u.Fleet(), colorReset,
				colorWhite, u.Robot(),
				severityColor(e.Severity), e.Type, colorReset+e.Message))
		}
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		if len(v.Events) > 0 {
			m.refreshViewport()
		}
	}
	m.robots[u.Robot()] = r
	m.refreshTable()
}

func (m *tuiModel) refreshTable() {
	ids := make([]string, 0, len(m.robots))
	for id, r := range m.robots {
		if m.fleetOnly != "" && r.fleet != m.fleetOnly {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := m.robots[ids[i]], m.robots[ids[j]]
		if a.fleet != b.fleet {
			return a.fleet < b.fleet
		}
		return ids[i] < ids[j]
	})
	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		r := m.robots[id]
		rows = append(rows, table.Row{
			id, r.fleet, string(r.status), string(r.activity),
			fmt.Sprintf("%.1f", r.battery),
			fmt.Sprintf("%.0f", r.health),
			fmt.Sprintf("%.1f", r.speed),
			headingIcon(r.heading),
		})
	}
	m.table.SetRows(rows)
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - lipgloss.Height(m.table.View()) - lipgloss.Height(m.renderBottom()) - chromeHeight
	if m.filtering {
		h--
	}
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := m.logs
	if m.wrap && m.vp.Width > 0 {
		lines = make([]string, len(m.logs))
		for i, l := range m.logs {
			lines[i] = wordwrap.String(l, m.vp.Width)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.width)
	sections := []string{
		m.renderSummary(),
		divider,
		m.table.View(),
		divider,
		"Events:",
		m.vp.View(),
		divider,
	}
	if m.filtering {
		sections = append(sections, "Filter fleet: "+m.filter.View())
	}
	sections = append(sections, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderSummary() string {
	counts := make(map[telemetry.RobotStatus]int)
	var batt float64
	for _, r := range m.robots {
		counts[r.status]++
		batt += r.battery
	}
	avg := 0.0
	if len(m.robots) > 0 {
		avg = batt / float64(len(m.robots))
	}
	parts := []string{fmt.Sprintf("%sFLEET%s %srobots=%d%s %savg_batt=%.1f%s",
		colorBlue, colorReset, colorGreen, len(m.robots), colorReset, colorCyan, avg, colorReset)}
	for _, s := range telemetry.Statuses {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s%s=%d%s", statusColor(s), strings.ToLower(string(s)), n, colorReset))
		}
	}
	parts = append(parts, fmt.Sprintf("%supdates=%d events=%d%s", colorGray, m.updates, m.events, colorReset))
	if m.fleetOnly != "" {
		parts = append(parts, fmt.Sprintf("%sfilter=%s%s", m.fleets.get(m.fleetOnly), m.fleetOnly, colorReset))
	}
	return strings.Join(parts, " ")
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	cluster := ""
	if m.cfg != nil {
		cluster = m.cfg.ClusterID
	}
	return fmt.Sprintf("%scluster=%s%s | Admin API %s | Wrap %s | Scroll %s | Filter %s | h help",
		colorBlue, cluster, colorReset,
		indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.fleetOnly != ""))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q    quit",
		" w    toggle wrap for the event log",
		" s    toggle auto-scroll",
		" f,/  filter robots by fleet",
		" h/?  toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
