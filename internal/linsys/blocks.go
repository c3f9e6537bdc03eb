package linsys

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/pidtune/internal/pade"
	"github.com/san-kum/pidtune/internal/process"
)

// Delay realizes the order-n Padé approximant of e^{-θs} as a cascade of
// all-pass sections. θ == 0 returns nil.
func Delay(theta float64, order int) (*StateSpace, error) {
	sections, err := pade.Sections(theta, order)
	if err != nil {
		return nil, err
	}

	var out *StateSpace
	for _, sec := range sections {
		s := section(sec)
		if out == nil {
			out = s
			continue
		}
		out = Series(out, s)
	}
	return out, nil
}

func section(sec pade.Section) *StateSpace {
	a := sec.Re
	if sec.IsReal() {
		// -(s+p)/(s-p) = -1 - 2p/(s-p)
		return &StateSpace{
			A: mat.NewDense(1, 1, []float64{a}),
			B: mat.NewVecDense(1, []float64{1}),
			C: mat.NewVecDense(1, []float64{-2 * a}),
			D: -1,
		}
	}
	// (s²+2as+|p|²)/(s²-2as+|p|²) = 1 + 4as/(s²-2as+|p|²), modal form.
	b := sec.Im
	return &StateSpace{
		A: mat.NewDense(2, 2, []float64{a, b, -b, a}),
		B: mat.NewVecDense(2, []float64{0, 1}),
		C: mat.NewVecDense(2, []float64{4 * a * a / b, 4 * a}),
		D: 1,
	}
}

// Plant realizes K·e^{-θs}/(τs+1) with the delay approximated to padeOrder.
// The result is strictly proper.
func Plant(m process.FOPDT, padeOrder int) (*StateSpace, error) {
	g := FirstOrder(m.Gain, m.TimeConstant)
	delay, err := Delay(m.DeadTime, padeOrder)
	if err != nil {
		return nil, err
	}
	if delay == nil {
		return g, nil
	}
	return Series(delay, g), nil
}

// Loop realizes the open loop Kp·(1 + 1/(Ti·s) + Td·s)·P(s) for a strictly
// proper plant P. The derivative term acts on y' = C·(A·x + B·u) and the
// integral term adds one state z' = y.
func Loop(pid process.PID, plant *StateSpace) *StateSpace {
	np := plant.Order()
	n := np + 1

	A := mat.NewDense(n, n, nil)
	block(A, 0, 0, np, np).Copy(plant.A)
	B := mat.NewVecDense(n, nil)
	C := mat.NewVecDense(n, nil)

	var ca mat.VecDense
	ca.MulVec(plant.A.T(), plant.C)
	for j := 0; j < np; j++ {
		A.Set(np, j, plant.C.AtVec(j))
		B.SetVec(j, plant.B.AtVec(j))
		C.SetVec(j, pid.Kp*plant.C.AtVec(j)+pid.Kp*pid.Td*ca.AtVec(j))
	}
	C.SetVec(np, pid.Kp/pid.Ti)

	return &StateSpace{
		A: A,
		B: B,
		C: C,
		D: pid.Kp * pid.Td * mat.Dot(plant.C, plant.B),
	}
}

// ClosedLoop builds the unity-feedback loop of pid around the FOPDT plant.
func ClosedLoop(pid process.PID, m process.FOPDT, padeOrder int) (*StateSpace, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := validatePID(pid); err != nil {
		return nil, err
	}

	plant, err := Plant(m, padeOrder)
	if err != nil {
		return nil, &process.UnstableModelError{Reason: err.Error()}
	}
	cl, err := UnityFeedback(Loop(pid, plant))
	if err != nil {
		return nil, &process.UnstableModelError{Reason: err.Error()}
	}
	if !cl.Finite() {
		return nil, &process.UnstableModelError{Reason: "closed-loop realization has non-finite entries"}
	}
	return cl, nil
}

func validatePID(p process.PID) error {
	switch {
	case !finite(p.Kp):
		return &process.InvalidModelError{Param: "Kp", Value: p.Kp, Reason: "must be finite"}
	case !finite(p.Ti) || p.Ti <= 0:
		return &process.InvalidModelError{Param: "Ti", Value: p.Ti, Reason: "must be positive"}
	case !finite(p.Td) || p.Td < 0:
		return &process.InvalidModelError{Param: "Td", Value: p.Td, Reason: "must be non-negative"}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
