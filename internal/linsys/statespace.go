// Package linsys builds and simulates single-input single-output linear
// systems in state-space form: the FOPDT plant with its rational delay, the
// ideal PID around it and the unity-feedback loop.
package linsys

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StateSpace is x' = A·x + B·u, y = C·x + D·u with n >= 1 states.
type StateSpace struct {
	A *mat.Dense
	B *mat.VecDense
	C *mat.VecDense
	D float64
}

func (s *StateSpace) Order() int { return s.B.Len() }

// NewStateSpace copies its arguments.
func NewStateSpace(a *mat.Dense, b, c []float64, d float64) (*StateSpace, error) {
	r, cols := a.Dims()
	if r != cols || len(b) != r || len(c) != r || r == 0 {
		return nil, fmt.Errorf("linsys: inconsistent dimensions A=%dx%d B=%d C=%d", r, cols, len(b), len(c))
	}
	return &StateSpace{
		A: mat.DenseCopyOf(a),
		B: mat.NewVecDense(r, append([]float64(nil), b...)),
		C: mat.NewVecDense(r, append([]float64(nil), c...)),
		D: d,
	}, nil
}

// FirstOrder realizes K/(τs+1).
func FirstOrder(gain, tau float64) *StateSpace {
	return &StateSpace{
		A: mat.NewDense(1, 1, []float64{-1 / tau}),
		B: mat.NewVecDense(1, []float64{gain / tau}),
		C: mat.NewVecDense(1, []float64{1}),
	}
}

// Series connects a's output to b's input.
func Series(a, b *StateSpace) *StateSpace {
	na, nb := a.Order(), b.Order()
	n := na + nb

	A := mat.NewDense(n, n, nil)
	block(A, 0, 0, na, na).Copy(a.A)
	block(A, na, na, n, n).Copy(b.A)
	block(A, na, 0, n, na).Outer(1, b.B, a.C)

	B := mat.NewVecDense(n, nil)
	C := mat.NewVecDense(n, nil)
	for i := 0; i < na; i++ {
		B.SetVec(i, a.B.AtVec(i))
		C.SetVec(i, b.D*a.C.AtVec(i))
	}
	for i := 0; i < nb; i++ {
		B.SetVec(na+i, b.B.AtVec(i)*a.D)
		C.SetVec(na+i, b.C.AtVec(i))
	}

	return &StateSpace{A: A, B: B, C: C, D: b.D * a.D}
}

// UnityFeedback closes y = L·(r − y).
func UnityFeedback(l *StateSpace) (*StateSpace, error) {
	den := 1 + l.D
	if den == 0 {
		return nil, fmt.Errorf("linsys: algebraic loop is singular (D = -1)")
	}
	n := l.Order()

	A := mat.NewDense(n, n, nil)
	A.Outer(-1/den, l.B, l.C)
	A.Add(A, l.A)

	B := mat.NewVecDense(n, nil)
	B.ScaleVec(1/den, l.B)
	C := mat.NewVecDense(n, nil)
	C.ScaleVec(1/den, l.C)

	return &StateSpace{A: A, B: B, C: C, D: l.D / den}, nil
}

// Poles returns the eigenvalues of A.
func (s *StateSpace) Poles() ([]complex128, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(s.A, mat.EigenNone); !ok {
		return nil, fmt.Errorf("linsys: eigen decomposition of %d-state system failed", s.Order())
	}
	return eig.Values(nil), nil
}

// IsStable reports whether every pole lies in the open left half-plane.
func (s *StateSpace) IsStable() bool {
	poles, err := s.Poles()
	if err != nil {
		return false
	}
	for _, p := range poles {
		if real(p) >= 0 {
			return false
		}
	}
	return true
}

// Finite reports whether every entry of the realization is finite.
func (s *StateSpace) Finite() bool {
	if !finite(s.D) {
		return false
	}
	n := s.Order()
	for i := 0; i < n; i++ {
		if !finite(s.B.AtVec(i)) || !finite(s.C.AtVec(i)) {
			return false
		}
		for j := 0; j < n; j++ {
			if !finite(s.A.At(i, j)) {
				return false
			}
		}
	}
	return true
}

func block(m *mat.Dense, i, j, k, l int) *mat.Dense {
	return m.Slice(i, k, j, l).(*mat.Dense)
}
