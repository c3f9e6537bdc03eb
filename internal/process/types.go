package process

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Experiment is a captured step test. Output and Input share the Time base.
type Experiment struct {
	Time   []float64
	Output []float64
	Input  []float64
}

func (e Experiment) Len() int { return len(e.Time) }

// Validate checks that the three series are non-empty, equally long, finite
// and that time is strictly increasing.
func (e Experiment) Validate() error {
	n := len(e.Time)
	if n == 0 {
		return &SeriesError{Index: -1, Reason: "empty series"}
	}
	if len(e.Output) != n || len(e.Input) != n {
		return &SeriesError{Index: -1, Reason: fmt.Sprintf("length mismatch (time=%d output=%d input=%d)", n, len(e.Output), len(e.Input))}
	}
	for i := 0; i < n; i++ {
		if !finite(e.Time[i]) || !finite(e.Output[i]) || !finite(e.Input[i]) {
			return &SeriesError{Index: i, Reason: "non-finite value"}
		}
		if i > 0 && e.Time[i] <= e.Time[i-1] {
			return &SeriesError{Index: i, Reason: "time not strictly increasing"}
		}
	}
	return nil
}

// Summary describes the ranges of an experiment.
type Summary struct {
	Samples     int        `json:"samples" yaml:"samples"`
	TimeRange   [2]float64 `json:"time_range" yaml:"time_range"`
	OutputRange [2]float64 `json:"output_range" yaml:"output_range"`
	InputRange  [2]float64 `json:"input_range" yaml:"input_range"`
}

func (e Experiment) Summary() Summary {
	if e.Len() == 0 {
		return Summary{}
	}
	return Summary{
		Samples:     e.Len(),
		TimeRange:   [2]float64{floats.Min(e.Time), floats.Max(e.Time)},
		OutputRange: [2]float64{floats.Min(e.Output), floats.Max(e.Output)},
		InputRange:  [2]float64{floats.Min(e.Input), floats.Max(e.Input)},
	}
}

// Method selects the two-point graphical identification method.
type Method string

const (
	MethodSmith      Method = "smith"
	MethodSundaresan Method = "sundaresan"
)

func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodSmith:
		return MethodSmith, nil
	case MethodSundaresan:
		return MethodSundaresan, nil
	}
	return "", fmt.Errorf("unknown identification method %q (use smith or sundaresan)", s)
}

// Rule tags the tuning rule a PID was synthesized with.
type Rule string

const (
	RuleIMC  Rule = "IMC"
	RuleITAE Rule = "ITAE"
)

func ParseRule(s string) (Rule, error) {
	switch Rule(strings.ToUpper(strings.TrimSpace(s))) {
	case RuleIMC:
		return RuleIMC, nil
	case RuleITAE:
		return RuleITAE, nil
	}
	return "", fmt.Errorf("unknown tuning rule %q (use IMC or ITAE)", s)
}

// FOPDT is the first-order-plus-dead-time model K·e^{-θs}/(τs+1).
type FOPDT struct {
	Gain         float64 `json:"k" yaml:"k"`
	TimeConstant float64 `json:"tau" yaml:"tau"`
	DeadTime     float64 `json:"theta" yaml:"theta"`
}

// Validate enforces K>0, τ>0 and θ≥0.
func (m FOPDT) Validate() error {
	switch {
	case !finite(m.Gain) || m.Gain <= 0:
		return &InvalidModelError{Param: "k", Value: m.Gain, Reason: "must be positive"}
	case !finite(m.TimeConstant) || m.TimeConstant <= 0:
		return &InvalidModelError{Param: "tau", Value: m.TimeConstant, Reason: "must be positive"}
	case !finite(m.DeadTime) || m.DeadTime < 0:
		return &InvalidModelError{Param: "theta", Value: m.DeadTime, Reason: "must be non-negative"}
	}
	return nil
}

func (m FOPDT) String() string {
	return fmt.Sprintf("K=%.4g tau=%.4g theta=%.4g", m.Gain, m.TimeConstant, m.DeadTime)
}

// PID holds ideal-form parameters Kp·(1 + 1/(Ti·s) + Td·s).
// Lambda is only meaningful for IMC.
type PID struct {
	Kp     float64 `json:"Kp" yaml:"kp"`
	Ti     float64 `json:"Ti" yaml:"ti"`
	Td     float64 `json:"Td" yaml:"td"`
	Rule   Rule    `json:"rule" yaml:"rule"`
	Lambda float64 `json:"lambda,omitempty" yaml:"lambda,omitempty"`
}

// Ki returns the parallel-form integral gain.
func (p PID) Ki() float64 { return p.Kp / p.Ti }

// Kd returns the parallel-form derivative gain.
func (p PID) Kd() float64 { return p.Kp * p.Td }

func (p PID) IsFinite() bool {
	return finite(p.Kp) && finite(p.Ti) && finite(p.Td)
}

// Response is a unit-step response sampled on an evenly spaced grid.
type Response struct {
	Time   []float64 `json:"time"`
	Output []float64 `json:"output"`
	Stable bool      `json:"stable"`
}

// TrackingError returns e = 1 - y for the unit setpoint.
func (r Response) TrackingError() []float64 {
	e := make([]float64, len(r.Output))
	for i, y := range r.Output {
		e[i] = 1 - y
	}
	return e
}

// Performance holds the metrics extracted from one response.
type Performance struct {
	RiseTime         float64 `json:"rise_time"`
	OvershootPercent float64 `json:"overshoot"`
	SettlingTime     float64 `json:"settling_time"`
	IAE              float64 `json:"iae"`
	ISE              float64 `json:"ise"`
	ITAE             float64 `json:"itae"`
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
