package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/process"
)

func testModel() model {
	cfg := pipeline.DefaultConfig()
	cfg.NumPoints = 200
	cfg.Simulation.PadeOrder = 6
	return *New(process.FOPDT{Gain: 2, TimeConstant: 5, DeadTime: 1}, cfg)
}

func press(m model, key string) (model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func TestTuner_InitialSimulation(t *testing.T) {
	m := testModel()
	cmd := m.Init()
	require.NotNil(t, cmd)

	msg := cmd()
	res, ok := msg.(resultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	require.Len(t, res.outcomes, 2)

	next, _ := m.Update(res)
	m = next.(model)
	view := m.View()
	assert.Contains(t, view, "IMC")
	assert.Contains(t, view, "ITAE")
	assert.Contains(t, view, "closed-loop step response")
}

func TestTuner_AdjustAndEdit(t *testing.T) {
	m := testModel()

	m, _ = press(m, "down")
	m, _ = press(m, "down")
	m, _ = press(m, "down")
	assert.Equal(t, "lambda", params[m.cursor].name)

	m, cmd := press(m, "right")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.InDelta(t, 1.1, m.values["lambda"], 1e-12)

	m, _ = press(m, "enter")
	assert.True(t, m.editing)
	m.editBuf = ""
	m, _ = press(m, "2")
	m, _ = press(m, ".")
	m, _ = press(m, "5")
	m, cmd = press(m, "enter")
	require.NotNil(t, cmd)
	assert.False(t, m.editing)
	assert.Equal(t, 2.5, m.values["lambda"])

	res := cmd().(resultMsg)
	require.NoError(t, res.err)
	assert.Equal(t, 2.5, res.outcomes[0].PID.Lambda)
}

func TestTuner_ClampsAtMinimum(t *testing.T) {
	m := testModel()
	m, _ = press(m, "down")
	m, _ = press(m, "down")
	assert.Equal(t, "theta", params[m.cursor].name)
	for i := 0; i < 20; i++ {
		m, _ = press(m, "left")
	}
	assert.Equal(t, 0.0, m.values["theta"])
}

func TestTuner_ShowsErrors(t *testing.T) {
	m := testModel()
	m.values["theta"] = 0
	res := m.simulate()().(resultMsg)
	require.Error(t, res.err)

	next, _ := m.Update(res)
	assert.Contains(t, next.(model).View(), "theta")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", sparkline(nil, 10))
	assert.Equal(t, "▁▁▁", sparkline([]float64{1, 1, 1}, 10))
	assert.Equal(t, "▁█", sparkline([]float64{0, 1}, 10))
}
