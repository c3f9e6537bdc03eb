// Package tuning synthesizes PID parameters from an FOPDT model.
//
//   - [IMC]: Internal Model Control with closed-loop speed factor λ
//   - [ITAE]: ITAE-optimal set-point tuning (power-law table)
//
// Both return ideal-form parameters Kp·(1 + 1/(Ti·s) + Td·s).
package tuning

import (
	"math"

	"github.com/san-kum/pidtune/internal/process"
)

// DefaultLambda is the IMC closed-loop speed factor used when none is given.
const DefaultLambda = 1.0

// itaeTable holds the set-point ITAE coefficients:
// Kp = (A/K)·r^B, Ti = τ·(C + D·r), Td = τ·E·r^F with r = θ/τ.
var itaeTable = struct {
	A, B, C, D, E, F float64
}{
	A: 0.965, B: -0.85,
	C: 0.796, D: -0.147,
	E: 0.308, F: 0.929,
}

// IMC tunes for a first-order closed loop with time constant λ:
// Kp = (2τ+θ)/(K(2λ+θ)), Ti = τ+θ/2, Td = τθ/(2τ+θ).
func IMC(m process.FOPDT, lambda float64) (process.PID, error) {
	if err := m.Validate(); err != nil {
		return process.PID{}, err
	}
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) || lambda <= 0 {
		return process.PID{}, &process.InvalidModelError{Param: "lambda", Value: lambda, Reason: "must be positive"}
	}

	k, tau, theta := m.Gain, m.TimeConstant, m.DeadTime
	p := process.PID{
		Kp:     (2*tau + theta) / (k * (2*lambda + theta)),
		Ti:     tau + theta/2,
		Td:     (tau * theta) / (2*tau + theta),
		Rule:   process.RuleIMC,
		Lambda: lambda,
	}
	return p, checkFinite(p)
}

// ITAE applies the power-law table. θ = 0 is rejected: r^B with B < 0 has no
// finite value there. Ratios for which Ti would not be positive (θ/τ ≳ 5.4)
// are rejected as well.
func ITAE(m process.FOPDT) (process.PID, error) {
	if err := m.Validate(); err != nil {
		return process.PID{}, err
	}
	if m.DeadTime == 0 {
		return process.PID{}, &process.InvalidModelError{Param: "theta", Value: 0, Reason: "must be positive for ITAE (r^B diverges at r=0)"}
	}

	r := m.DeadTime / m.TimeConstant
	c := itaeTable
	p := process.PID{
		Kp:   (c.A / m.Gain) * math.Pow(r, c.B),
		Ti:   m.TimeConstant * (c.C + c.D*r),
		Td:   m.TimeConstant * c.E * math.Pow(r, c.F),
		Rule: process.RuleITAE,
	}
	if p.Ti <= 0 {
		return process.PID{}, &process.InvalidModelError{Param: "theta/tau", Value: r, Reason: "outside the ITAE table range (Ti <= 0)"}
	}
	return p, checkFinite(p)
}

// Tune dispatches on rule; lambda is ignored for ITAE.
func Tune(m process.FOPDT, rule process.Rule, lambda float64) (process.PID, error) {
	fn, err := DefaultRegistry.Get(rule)
	if err != nil {
		return process.PID{}, err
	}
	return fn(m, lambda)
}

func checkFinite(p process.PID) error {
	switch {
	case math.IsNaN(p.Kp) || math.IsInf(p.Kp, 0):
		return &process.InvalidModelError{Param: "Kp", Value: p.Kp, Reason: "is not finite"}
	case math.IsNaN(p.Ti) || math.IsInf(p.Ti, 0):
		return &process.InvalidModelError{Param: "Ti", Value: p.Ti, Reason: "is not finite"}
	case math.IsNaN(p.Td) || math.IsInf(p.Td, 0):
		return &process.InvalidModelError{Param: "Td", Value: p.Td, Reason: "is not finite"}
	}
	return nil
}
