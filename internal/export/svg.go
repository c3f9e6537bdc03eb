package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/pidtune/internal/pipeline"
)

// Series is one polyline on a shared chart.
type Series struct {
	Name  string
	X, Y  []float64
	Color string
}

var palette = []string{"#1f77b4", "#d62728", "#2ca02c", "#ff7f0e", "#9467bd"}

// SeriesToSVG draws every series on common axes scaled to the union of
// their bounds, with 10% padding.
func SeriesToSVG(series []Series, width, height int) string {
	first := true
	var minX, maxX, minY, maxY float64
	for _, s := range series {
		for i := range s.X {
			x, y := s.X[i], s.Y[i]
			if first {
				minX, maxX, minY, maxY = x, x, y, y
				first = false
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if first {
		return ""
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, width, height, width, height))

	for k, s := range series {
		if len(s.X) < 2 {
			continue
		}
		color := s.Color
		if color == "" {
			color = palette[k%len(palette)]
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" data-name="%s" d="M`, color, s.Name))
		for i := range s.X {
			x := (s.X[i] - minX) / rangeX * float64(width)
			y := float64(height) - (s.Y[i]-minY)/rangeY*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ResponsesToSeries maps each outcome's response to a named series.
func ResponsesToSeries(outcomes []pipeline.Outcome) []Series {
	series := make([]Series, len(outcomes))
	for i, o := range outcomes {
		series[i] = Series{
			Name: string(o.PID.Rule),
			X:    o.Response.Time,
			Y:    o.Response.Output,
		}
	}
	return series
}
