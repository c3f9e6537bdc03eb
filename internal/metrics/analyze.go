package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pidtune/internal/process"
)

const (
	RiseLow         = 0.1
	RiseHigh        = 0.9
	SettlingPercent = 5.0
)

// Analyze computes the performance figures of a unit-step response. It never
// fails: a flat signal counts as already settled and a series shorter than
// the time base is analyzed over the common prefix.
func Analyze(t, y []float64) process.Performance {
	n := len(t)
	if len(y) < n {
		n = len(y)
	}
	if n == 0 {
		return process.Performance{}
	}
	t, y = t[:n], y[:n]

	yn := Normalize(y)

	i10 := firstAtOrAbove(yn, RiseLow)
	i90 := firstAtOrAbove(yn, RiseHigh)

	band := NewBand(SettlingPercent / 100)
	iae, ise, itae := NewIAE(), NewISE(), NewITAE()
	for i := range t {
		band.Observe(t[i], yn[i])
		e := 1 - y[i]
		for _, m := range []Metric{iae, ise, itae} {
			m.Observe(t[i], e)
		}
	}

	return process.Performance{
		RiseTime:         t[i90] - t[i10],
		OvershootPercent: Overshoot(y),
		SettlingTime:     band.Value(),
		IAE:              iae.Value(),
		ISE:              ise.Value(),
		ITAE:             itae.Value(),
	}
}

func AnalyzeResponse(r process.Response) process.Performance {
	return Analyze(r.Time, r.Output)
}

// Normalize maps y[0] to 0 and y[-1] to 1. A flat signal maps to all ones.
func Normalize(y []float64) []float64 {
	out := make([]float64, len(y))
	if len(y) == 0 {
		return out
	}
	span := y[len(y)-1] - y[0]
	if span == 0 {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, v := range y {
		out[i] = (v - y[0]) / span
	}
	return out
}

// Overshoot is the peak above the final value in percent, 0 when the final
// value is not positive.
func Overshoot(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	final := y[len(y)-1]
	if final <= 0 {
		return 0
	}
	return math.Max(0, (floats.Max(y)/final-1)*100)
}

// firstAtOrAbove falls back to the last index when level is never reached.
func firstAtOrAbove(y []float64, level float64) int {
	for i, v := range y {
		if v >= level {
			return i
		}
	}
	return len(y) - 1
}
