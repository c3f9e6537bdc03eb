package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidtune/internal/pipeline"
)

var seriesColors = []asciigraph.AnsiColor{asciigraph.DodgerBlue, asciigraph.Red, asciigraph.Green, asciigraph.Orange}

// Chart plots the outputs of every outcome on one ASCII graph.
func Chart(outcomes []pipeline.Outcome, width, height int, caption string) string {
	data := make([][]float64, 0, len(outcomes))
	colors := make([]asciigraph.AnsiColor, 0, len(outcomes))
	for i, o := range outcomes {
		if len(o.Response.Output) == 0 {
			continue
		}
		data = append(data, clip(o.Response.Output))
		colors = append(colors, seriesColors[i%len(seriesColors)])
	}
	if len(data) == 0 {
		return ""
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	)
}

// Legend names each plotted rule in its chart color.
func Legend(outcomes []pipeline.Outcome) string {
	parts := make([]string, len(outcomes))
	for i, o := range outcomes {
		c := seriesColors[i%len(seriesColors)]
		parts[i] = fmt.Sprintf("%s■%s %s", c, asciigraph.Default, o.PID.Rule)
	}
	return strings.Join(parts, "  ")
}

// clip replaces non-finite samples so a diverging loop still renders.
func clip(y []float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		switch {
		case math.IsNaN(v):
			out[i] = 0
		case v > 1e6 || math.IsInf(v, 1):
			out[i] = 1e6
		case v < -1e6 || math.IsInf(v, -1):
			out[i] = -1e6
		default:
			out[i] = v
		}
	}
	return out
}
