package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"

	"github.com/san-kum/pidtune/internal/analysis"
	"github.com/san-kum/pidtune/internal/identify"
	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/process"
)

func outcomes() []pipeline.Outcome {
	t := []float64{0, 1, 2, 3}
	return []pipeline.Outcome{
		{
			PID:      process.PID{Kp: 1.8, Ti: 5.5, Td: 0.45, Rule: process.RuleIMC, Lambda: 1},
			Response: process.Response{Time: t, Output: []float64{0.2, 0.7, 1.05, 1.0}, Stable: true},
		},
		{
			PID:      process.PID{Kp: 1.9, Ti: 3.8, Td: 0.35, Rule: process.RuleITAE},
			Response: process.Response{Time: t, Output: []float64{0.25, 0.8, 1.1, 0.99}, Stable: true},
		},
	}
}

func TestComparisonJSON(t *testing.T) {
	m := process.FOPDT{Gain: 2, TimeConstant: 5, DeadTime: 1}
	data := NewComparison(m, outcomes())
	assert.Equal(t, 4, data.Steps)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, data))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2.0, decoded["model"].(map[string]any)["k"])
	ctrls := decoded["controllers"].([]any)
	require.Len(t, ctrls, 2)
	first := ctrls[0].(map[string]any)
	assert.Equal(t, "IMC", first["pid"].(map[string]any)["rule"])
	assert.InDeltaSlice(t, []any{0.8, 0.3, -0.05, 0.0}, first["error"], 1e-12)
}

func TestExportJSON_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, ExportJSON(path, map[string]int{"a": 1}))
	assert.FileExists(t, path)
}

func TestWriteResponsesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponsesCSV(&buf, outcomes()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"time", "y_IMC", "e_IMC", "y_ITAE", "e_ITAE"}, records[0])
	assert.Equal(t, []string{"2.000000", "1.050000", "-0.050000", "1.100000", "-0.100000"}, records[3])

	assert.Error(t, WriteResponsesCSV(&buf, nil))

	bad := outcomes()
	bad[1].Response.Time = bad[1].Response.Time[:2]
	assert.Error(t, WriteResponsesCSV(&buf, bad))
}

func TestSeriesToSVG(t *testing.T) {
	svg := SeriesToSVG(ResponsesToSeries(outcomes()), 400, 300)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Equal(t, 2, strings.Count(svg, "<path"))
	assert.Contains(t, svg, `data-name="ITAE"`)
	assert.True(t, strings.HasSuffix(svg, "</svg>"))

	assert.Empty(t, SeriesToSVG(nil, 10, 10))
}

func isPNG(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	require.Greater(t, buf.Len(), 8)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), buf.Bytes()[:8])
}

func TestPlots(t *testing.T) {
	exp := process.Experiment{
		Time:   []float64{0, 1, 2, 3, 4, 5},
		Output: []float64{0, 0, 1, 3, 4, 4},
		Input:  []float64{0, 1, 1, 1, 1, 1},
	}
	id := pipeline.Identification{
		Result: identify.Result{
			Crossing: identify.Crossing{Method: process.MethodSmith, T1: 2, T2: 3, Y1: 1.1, Y2: 2.5},
			Model:    process.FOPDT{Gain: 4, TimeConstant: 1.5, DeadTime: 1.5},
		},
		Smoothed: exp.Output,
	}

	raw, err := RawPlot(exp)
	require.NoError(t, err)
	idp, err := IdentificationPlot(exp, id)
	require.NoError(t, err)
	resp, err := ResponsePlot(outcomes())
	require.NoError(t, err)
	errp, err := ErrorPlot(outcomes())
	require.NoError(t, err)
	filt, err := FilterPlot(exp.Time, exp.Output, []analysis.FilterResult{{WindowLength: 3, PolynomialOrder: 1, Smoothed: exp.Output}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(resp, &buf))
	isPNG(t, &buf)

	path := filepath.Join(t.TempDir(), "plots", "id.png")
	require.NoError(t, SavePNG(idp, path))
	assert.FileExists(t, path)

	for _, p := range []*plot.Plot{raw, errp, filt} {
		buf.Reset()
		require.NoError(t, WritePNG(p, &buf))
		isPNG(t, &buf)
	}
}
