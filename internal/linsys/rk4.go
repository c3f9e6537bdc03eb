package linsys

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// h·‖A‖∞ stays under this bound, well inside the RK4 stability region.
	rk4StepBound = 0.25
	maxRK4Steps  = 5_000_000
)

// rk4 integrates x' = A·x + B for a unit step input.
type rk4 struct {
	k1, k2, k3, k4 *mat.VecDense
	scratch        *mat.VecDense
}

func newRK4() *rk4 {
	return &rk4{}
}

func (r *rk4) ensureScratch(n int) {
	if r.k1 == nil || r.k1.Len() != n {
		r.k1 = mat.NewVecDense(n, nil)
		r.k2 = mat.NewVecDense(n, nil)
		r.k3 = mat.NewVecDense(n, nil)
		r.k4 = mat.NewVecDense(n, nil)
		r.scratch = mat.NewVecDense(n, nil)
	}
}

func (r *rk4) derive(dst *mat.VecDense, s *StateSpace, x *mat.VecDense) {
	dst.MulVec(s.A, x)
	dst.AddVec(dst, s.B)
}

// step advances x in place by h.
func (r *rk4) step(s *StateSpace, x *mat.VecDense, h float64) {
	r.ensureScratch(x.Len())

	r.derive(r.k1, s, x)

	r.scratch.AddScaledVec(x, h*0.5, r.k1)
	r.derive(r.k2, s, r.scratch)

	r.scratch.AddScaledVec(x, h*0.5, r.k2)
	r.derive(r.k3, s, r.scratch)

	r.scratch.AddScaledVec(x, h, r.k3)
	r.derive(r.k4, s, r.scratch)

	h6 := h / 6.0
	x.AddScaledVec(x, h6, r.k1)
	x.AddScaledVec(x, 2*h6, r.k2)
	x.AddScaledVec(x, 2*h6, r.k3)
	x.AddScaledVec(x, h6, r.k4)
}

func substeps(s *StateSpace, dt float64, numPoints int) (int, error) {
	norm := mat.Norm(s.A, math.Inf(1))
	sub := int(math.Ceil(dt * norm / rk4StepBound))
	if sub < 1 {
		sub = 1
	}
	if total := sub * (numPoints - 1); total > maxRK4Steps {
		return 0, fmt.Errorf("linsys: rk4 would need %d steps for a %d-state loop, use zoh", total, s.Order())
	}
	return sub, nil
}
