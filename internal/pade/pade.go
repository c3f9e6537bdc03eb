// Package pade approximates the pure delay e^{-θs} by a rational transfer
// function of equal numerator and denominator degree.
//
// [Coefficients] returns the polynomial form. [Sections] factors the same
// approximant into first- and second-order all-pass sections, which stay
// well conditioned at high orders where the polynomial coefficients span
// many decades.
package pade

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DefaultOrder keeps the approximated delay visually indistinguishable from a
// true delay for θ up to several time constants.
const DefaultOrder = 20

// Coefficients returns numerator and denominator coefficients in descending
// powers of s, normalized so den[0] == 1. θ == 0 yields the identity.
func Coefficients(theta float64, order int) (num, den []float64, err error) {
	if err := check(theta, order); err != nil {
		return nil, nil, err
	}
	if theta == 0 {
		return []float64{1}, []float64{1}, nil
	}

	n := order
	num = make([]float64, n+1)
	den = make([]float64, n+1)
	num[n], den[n] = 1, 1

	cn, cd := 1.0, 1.0
	for k := 1; k <= n; k++ {
		ratio := float64(n-k+1) / float64(2*n-k+1) / float64(k)
		cn *= -theta * ratio
		cd *= theta * ratio
		num[n-k] = cn
		den[n-k] = cd
	}

	lead := den[0]
	for i := range den {
		num[i] /= lead
		den[i] /= lead
	}
	return num, den, nil
}

// Section is one all-pass factor with pole p = Re + i·Im.
// A real section (Im == 0) is -(s+p)/(s-p); a complex section stands for the
// conjugate pair (s+p)(s+p̄)/((s-p)(s-p̄)).
type Section struct {
	Re float64
	Im float64
}

func (s Section) IsReal() bool { return s.Im == 0 }

// Order is the number of states the section contributes.
func (s Section) Order() int {
	if s.IsReal() {
		return 1
	}
	return 2
}

// Eval evaluates the section's transfer function at z.
func (s Section) Eval(z complex128) complex128 {
	p := complex(s.Re, s.Im)
	if s.IsReal() {
		return -(z + p) / (z - p)
	}
	q := cmplx.Conj(p)
	return (z + p) * (z + q) / ((z - p) * (z - q))
}

// Sections factors the order-n approximant of e^{-θs}. θ == 0 yields no
// sections (identity).
func Sections(theta float64, order int) ([]Section, error) {
	if err := check(theta, order); err != nil {
		return nil, err
	}
	if theta == 0 {
		return nil, nil
	}

	roots, err := normalizedRoots(order)
	if err != nil {
		return nil, err
	}

	sections := make([]Section, 0, (order+1)/2)
	states := 0
	for _, r := range roots {
		if real(r) >= 0 {
			return nil, fmt.Errorf("pade: order %d root %v not in the left half-plane", order, r)
		}
		tol := 1e-9 * cmplx.Abs(r)
		switch {
		case math.Abs(imag(r)) <= tol:
			sections = append(sections, Section{Re: real(r) / theta})
			states++
		case imag(r) > 0:
			sections = append(sections, Section{Re: real(r) / theta, Im: imag(r) / theta})
			states += 2
		}
	}
	if states != order {
		return nil, fmt.Errorf("pade: order %d factored into %d states", order, states)
	}

	sort.Slice(sections, func(i, j int) bool {
		if sections[i].Re != sections[j].Re {
			return sections[i].Re > sections[j].Re
		}
		return sections[i].Im < sections[j].Im
	})
	return sections, nil
}

// Eval evaluates the product of sections, the approximant itself, at z.
func Eval(sections []Section, z complex128) complex128 {
	h := complex(1, 0)
	for _, s := range sections {
		h *= s.Eval(z)
	}
	return h
}

// normalizedRoots returns the roots of D(x) = Σ d_k x^k, the θ = 1
// denominator, via the eigenvalues of its companion matrix.
func normalizedRoots(n int) ([]complex128, error) {
	d := make([]float64, n+1)
	d[0] = 1
	for k := 1; k <= n; k++ {
		d[k] = d[k-1] * float64(n-k+1) / float64(2*n-k+1) / float64(k)
	}

	c := mat.NewDense(n, n, nil)
	for i := 0; i < n-1; i++ {
		c.Set(i, i+1, 1)
	}
	for k := 0; k < n; k++ {
		c.Set(n-1, k, -d[k]/d[n])
	}

	var eig mat.Eigen
	if ok := eig.Factorize(c, mat.EigenNone); !ok {
		return nil, fmt.Errorf("pade: eigen decomposition failed for order %d", n)
	}
	return eig.Values(nil), nil
}

func check(theta float64, order int) error {
	if order < 1 {
		return fmt.Errorf("pade: order must be >= 1, got %d", order)
	}
	if math.IsNaN(theta) || math.IsInf(theta, 0) || theta < 0 {
		return fmt.Errorf("pade: delay must be finite and non-negative, got %v", theta)
	}
	return nil
}
