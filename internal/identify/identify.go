// Package identify recovers a first-order-plus-dead-time model from a smoothed
// step response with the Smith or Sundaresan two-point graphical methods.
package identify

import (
	"github.com/san-kum/pidtune/internal/process"
	"gonum.org/v1/gonum/floats"
)

// DefaultOffsetPercent is the leading share of samples skipped by default.
const DefaultOffsetPercent = 15.0

// twoPoint describes one graphical method: the response fractions at which
// t1 and t2 are read and how (τ, θ) follow from them.
type twoPoint struct {
	frac1, frac2 float64
	tau          func(t1, t2 float64) float64
	theta        func(t1, t2, tau float64) float64
}

var methods = map[process.Method]twoPoint{
	process.MethodSmith: {
		frac1: 0.283,
		frac2: 0.632,
		tau:   func(t1, t2 float64) float64 { return 1.5 * (t2 - t1) },
		theta: func(t1, t2, tau float64) float64 { return t2 - tau },
	},
	process.MethodSundaresan: {
		frac1: 0.353,
		frac2: 0.853,
		tau:   func(t1, t2 float64) float64 { return 2.0 / 3.0 * (t2 - t1) },
		theta: func(t1, t2, tau float64) float64 { return 1.3*t1 - 0.29*t2 },
	},
}

// Fractions returns the two response fractions used by method m.
func Fractions(m process.Method) (frac1, frac2 float64, ok bool) {
	tp, ok := methods[m]
	return tp.frac1, tp.frac2, ok
}

// Crossing is the outcome of the two-point search.
type Crossing struct {
	Method       process.Method `json:"method"`
	T1           float64        `json:"t1"`
	T2           float64        `json:"t2"`
	Y1           float64        `json:"y1"`
	Y2           float64        `json:"y2"`
	Offset       int            `json:"offset"`
	TimeConstant float64        `json:"tau"`
	DeadTime     float64        `json:"theta"`
}

// Offset converts offsetPercent into the number of leading samples excluded
// from the search (truncated, at least one).
func Offset(n int, offsetPercent float64) int {
	off := int(float64(n) * offsetPercent / 100)
	if off < 1 {
		off = 1
	}
	return off
}

// Crossings locates the first samples at or after the offset where y reaches
// y1 and y2 and derives the time constant and dead time.
func Crossings(t, y []float64, m process.Method, offsetPercent float64) (Crossing, error) {
	tp, ok := methods[m]
	if !ok {
		_, err := process.ParseMethod(string(m))
		return Crossing{}, err
	}
	if len(t) != len(y) {
		return Crossing{}, &process.SeriesError{Index: -1, Reason: "time and output length differ"}
	}
	if len(y) == 0 {
		return Crossing{}, &process.InsufficientDataError{Len: 0, Min: 1}
	}

	y0 := y[0]
	dy := y[len(y)-1] - y0
	c := Crossing{
		Method: m,
		Y1:     y0 + tp.frac1*dy,
		Y2:     y0 + tp.frac2*dy,
		Offset: Offset(len(y), offsetPercent),
	}

	i1 := firstAtOrAbove(y, c.Offset, c.Y1)
	if i1 < 0 {
		return c, &process.LevelNotReachedError{Name: "y1", Level: c.Y1, Offset: c.Offset}
	}
	i2 := firstAtOrAbove(y, c.Offset, c.Y2)
	if i2 < 0 {
		return c, &process.LevelNotReachedError{Name: "y2", Level: c.Y2, Offset: c.Offset}
	}

	c.T1, c.T2 = t[i1], t[i2]
	if c.T1 >= c.T2 {
		return c, &process.InvertedCrossingError{T1: c.T1, T2: c.T2}
	}

	c.TimeConstant = tp.tau(c.T1, c.T2)
	c.DeadTime = tp.theta(c.T1, c.T2, c.TimeConstant)
	return c, nil
}

// Gain is the static gain Δy over the peak-to-peak excursion of the raw input.
func Gain(dy float64, input []float64) (float64, error) {
	if len(input) == 0 {
		return 0, &process.InsufficientDataError{Len: 0, Min: 1}
	}
	lo, hi := floats.Min(input), floats.Max(input)
	if hi-lo == 0 {
		return 0, &process.ZeroExcitationError{Value: lo}
	}
	return dy / (hi - lo), nil
}

// Result is a complete identification: the crossing details and the model.
type Result struct {
	Crossing
	Model process.FOPDT `json:"model"`
}

// Identify applies method m to the smoothed output ys and the raw input u.
func Identify(t, ys, u []float64, m process.Method, offsetPercent float64) (Result, error) {
	c, err := Crossings(t, ys, m, offsetPercent)
	if err != nil {
		return Result{Crossing: c}, err
	}

	k, err := Gain(ys[len(ys)-1]-ys[0], u)
	if err != nil {
		return Result{Crossing: c}, err
	}

	return Result{
		Crossing: c,
		Model: process.FOPDT{
			Gain:         k,
			TimeConstant: c.TimeConstant,
			DeadTime:     c.DeadTime,
		},
	}, nil
}

func firstAtOrAbove(y []float64, from int, level float64) int {
	for i := from; i < len(y); i++ {
		if y[i] >= level {
			return i
		}
	}
	return -1
}
