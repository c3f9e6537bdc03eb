package linsys

import (
	"context"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/pidtune/internal/pade"
	"github.com/san-kum/pidtune/internal/process"
)

// Method selects how the continuous loop is stepped between samples.
type Method string

const (
	// MethodZOH propagates the exact solution for a held step input.
	MethodZOH Method = "zoh"
	// MethodRK4 integrates with classical Runge-Kutta, sub-stepping as needed.
	MethodRK4 Method = "rk4"
)

func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodZOH, "":
		return MethodZOH, nil
	case MethodRK4:
		return MethodRK4, nil
	}
	return "", fmt.Errorf("unknown simulation method %q (use zoh or rk4)", s)
}

type Options struct {
	PadeOrder int
	Method    Method
}

func DefaultOptions() Options {
	return Options{PadeOrder: pade.DefaultOrder, Method: MethodZOH}
}

// Simulate returns the unit-step response of the unity-feedback loop of pid
// around m, sampled at numPoints evenly spaced instants in [0, simTime].
func Simulate(ctx context.Context, pid process.PID, m process.FOPDT, simTime float64, numPoints int, opts Options) (process.Response, error) {
	if err := validateGrid(simTime, numPoints); err != nil {
		return process.Response{}, err
	}
	if opts.PadeOrder == 0 {
		opts.PadeOrder = pade.DefaultOrder
	}

	cl, err := ClosedLoop(pid, m, opts.PadeOrder)
	if err != nil {
		return process.Response{}, err
	}
	return Step(ctx, cl, simTime, numPoints, opts.Method)
}

// Step returns the unit-step response of s from rest.
func Step(ctx context.Context, s *StateSpace, simTime float64, numPoints int, method Method) (process.Response, error) {
	if err := validateGrid(simTime, numPoints); err != nil {
		return process.Response{}, err
	}

	t := floats.Span(make([]float64, numPoints), 0, simTime)
	dt := simTime / float64(numPoints-1)

	var stepper func(x *mat.VecDense)
	switch method {
	case MethodZOH, "":
		ad, bd := discretize(s, dt)
		next := mat.NewVecDense(s.Order(), nil)
		stepper = func(x *mat.VecDense) {
			next.MulVec(ad, x)
			next.AddVec(next, bd)
			x.CopyVec(next)
		}
	case MethodRK4:
		sub, err := substeps(s, dt, numPoints)
		if err != nil {
			return process.Response{}, err
		}
		integ := newRK4()
		h := dt / float64(sub)
		stepper = func(x *mat.VecDense) {
			for k := 0; k < sub; k++ {
				integ.step(s, x, h)
			}
		}
	default:
		return process.Response{}, fmt.Errorf("linsys: unknown method %q", method)
	}

	y := make([]float64, numPoints)
	x := mat.NewVecDense(s.Order(), nil)
	for i := 0; i < numPoints; i++ {
		select {
		case <-ctx.Done():
			return process.Response{}, ctx.Err()
		default:
		}

		y[i] = mat.Dot(s.C, x) + s.D
		if !finite(y[i]) {
			return process.Response{}, &process.UnstableModelError{
				Reason: fmt.Sprintf("response diverged at t=%.4g", t[i]),
			}
		}
		if i < numPoints-1 {
			stepper(x)
		}
	}

	return process.Response{Time: t, Output: y, Stable: s.IsStable()}, nil
}

// discretize returns Ad = e^{A·dt} and Bd = ∫e^{A·τ}dτ·B from the exponential
// of the augmented matrix [[A, B], [0, 0]]·dt.
func discretize(s *StateSpace, dt float64) (*mat.Dense, *mat.VecDense) {
	n := s.Order()
	m := mat.NewDense(n+1, n+1, nil)
	block(m, 0, 0, n, n).Scale(dt, s.A)
	for i := 0; i < n; i++ {
		m.Set(i, n, dt*s.B.AtVec(i))
	}

	var e mat.Dense
	e.Exp(m)

	ad := mat.DenseCopyOf(e.Slice(0, n, 0, n))
	bd := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		bd.SetVec(i, e.At(i, n))
	}
	return ad, bd
}

func validateGrid(simTime float64, numPoints int) error {
	if !finite(simTime) || simTime <= 0 {
		return fmt.Errorf("linsys: sim_time must be positive, got %v", simTime)
	}
	if numPoints < 2 {
		return fmt.Errorf("linsys: num_points must be >= 2, got %d", numPoints)
	}
	return nil
}
