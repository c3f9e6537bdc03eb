// Package tui is an interactive terminal tuner: edit the FOPDT model and the
// IMC closed-loop time constant, then compare the IMC and ITAE responses.
package tui

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/process"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type param struct {
	name string
	step float64
	min  float64
}

var params = []param{
	{"k", 0.1, 0.01},
	{"tau", 0.5, 0.01},
	{"theta", 0.1, 0},
	{"lambda", 0.1, 0.01},
	{"sim_time", 5, 1},
}

type model struct {
	cfg    pipeline.Config
	values map[string]float64
	cursor int

	editing bool
	editBuf string

	busy     bool
	outcomes []pipeline.Outcome
	err      error

	width  int
	height int
}

// New returns a tuner seeded with m and the lambda and grid from cfg.
func New(m process.FOPDT, cfg pipeline.Config) *model {
	return &model{
		cfg: cfg,
		values: map[string]float64{
			"k":        m.Gain,
			"tau":      m.TimeConstant,
			"theta":    m.DeadTime,
			"lambda":   cfg.Lambda,
			"sim_time": cfg.SimTime,
		},
		width:  80,
		height: 24,
	}
}

func (m model) Init() tea.Cmd { return m.simulate() }

type resultMsg struct {
	outcomes []pipeline.Outcome
	err      error
}

func (m model) fopdt() process.FOPDT {
	return process.FOPDT{
		Gain:         m.values["k"],
		TimeConstant: m.values["tau"],
		DeadTime:     m.values["theta"],
	}
}

// simulate tunes both rules and runs them off the UI goroutine.
func (m model) simulate() tea.Cmd {
	fm := m.fopdt()
	lambda := m.values["lambda"]
	simTime := m.values["sim_time"]
	cfg := m.cfg
	return func() tea.Msg {
		pids, err := pipeline.TuneAll(fm, lambda)
		if err != nil {
			return resultMsg{err: err}
		}
		outcomes, err := pipeline.SimulateAndAnalyze(context.Background(), fm, pids, simTime, cfg.NumPoints, cfg.Simulation)
		return resultMsg{outcomes: outcomes, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case resultMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.outcomes = msg.outcomes
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		return m.editKey(msg)
	}

	p := params[m.cursor]
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(params)-1 {
			m.cursor++
		}
	case "left", "h":
		m.values[p.name] = math.Max(p.min, m.values[p.name]-p.step)
		return m.rerun()
	case "right", "l":
		m.values[p.name] += p.step
		return m.rerun()
	case "enter":
		m.editing = true
		m.editBuf = strconv.FormatFloat(m.values[p.name], 'g', -1, 64)
	case "s", "r":
		return m.rerun()
	}
	return m, nil
}

func (m model) editKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		v, err := strconv.ParseFloat(m.editBuf, 64)
		m.editBuf = ""
		if err != nil {
			return m, nil
		}
		p := params[m.cursor]
		m.values[p.name] = math.Max(p.min, v)
		return m.rerun()
	case "esc":
		m.editing = false
		m.editBuf = ""
	case "backspace":
		if len(m.editBuf) > 0 {
			m.editBuf = m.editBuf[:len(m.editBuf)-1]
		}
	default:
		if len(msg.String()) == 1 {
			c := msg.String()[0]
			if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
				m.editBuf += string(c)
			}
		}
	}
	return m, nil
}

func (m model) rerun() (model, tea.Cmd) {
	m.busy = true
	return m, m.simulate()
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("p i d t u n e") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	for i, p := range params {
		val := fmt.Sprintf("%8.3f", m.values[p.name])
		if m.editing && i == m.cursor {
			val = fmt.Sprintf("%8s", m.editBuf+"▋")
		}
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", p.name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", p.name)) + dim.Render(val) + "\n")
		}
	}
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString("   " + yellow.Render("○ simulating") + "\n")
	case m.err != nil:
		b.WriteString("   " + red.Render("✗ "+m.err.Error()) + "\n")
	case len(m.outcomes) > 0:
		b.WriteString(m.viewOutcomes())
	}

	b.WriteString("\n" + dim.Render("   ↑↓ select  ←→ adjust  enter edit  r rerun  q quit") + "\n")
	return b.String()
}

func (m model) viewOutcomes() string {
	var b strings.Builder

	b.WriteString(dim.Render(fmt.Sprintf("   %-6s %8s %8s %8s %8s %9s %8s %8s", "rule", "Kp", "Ti", "Td", "rise", "overshoot", "settle", "IAE")) + "\n")
	for _, o := range m.outcomes {
		status := green.Render("●")
		if !o.Response.Stable {
			status = red.Render("●")
		}
		perf := o.Performance
		b.WriteString(fmt.Sprintf(" %s %s %8.3f %8.3f %8.3f %8.2f %8.1f%% %8.2f %8.3f\n",
			status, white.Render(fmt.Sprintf("%-6s", o.PID.Rule)),
			o.PID.Kp, o.PID.Ti, o.PID.Td,
			perf.RiseTime, perf.OvershootPercent, perf.SettlingTime, perf.IAE))
	}

	w := m.width - 14
	if w < 40 {
		w = 40
	}
	h := m.height - 20
	if h < 8 {
		h = 8
	}
	b.WriteString("\n" + Chart(m.outcomes, w, h, "closed-loop step response") + "\n")
	b.WriteString("   " + Legend(m.outcomes) + "\n")

	for _, o := range m.outcomes {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render(fmt.Sprintf("%-5s e", o.PID.Rule)), cyan.Render(sparkline(o.Response.TrackingError(), 40))))
	}
	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func Run(m process.FOPDT, cfg pipeline.Config) error {
	p := tea.NewProgram(New(m, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
