// Package smoothing implements local least-squares polynomial smoothing
// (Savitzky–Golay) of a sampled signal.
//
// Edges follow the "interp" convention: the first and last half-windows are
// taken from a polynomial fitted to the first and last full window instead of
// padding the signal.
package smoothing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Smooth returns a smoothed copy of y with the same length.
func Smooth(y []float64, cfg Config) ([]float64, error) {
	cfg, err := cfg.Normalize(len(y))
	if err != nil {
		return nil, err
	}

	proj, err := projection(cfg.WindowLength, cfg.PolynomialOrder)
	if err != nil {
		return nil, err
	}

	n := len(y)
	w := cfg.WindowLength
	half := w / 2
	out := make([]float64, n)

	center := proj.RawRowView(0)
	for i := half; i < n-half; i++ {
		window := y[i-half : i+half+1]
		sum := 0.0
		for k, h := range center {
			sum += h * window[k]
		}
		out[i] = sum
	}

	head := fitCoefficients(proj, y[:w])
	for i := 0; i < half; i++ {
		out[i] = evalPoly(head, position(i, half))
	}

	tail := fitCoefficients(proj, y[n-w:])
	for i := w - half; i < w; i++ {
		out[n-w+i] = evalPoly(tail, position(i, half))
	}

	return out, nil
}

// projection returns the (order+1)×window least-squares operator mapping a
// window of samples to polynomial coefficients in the scaled abscissa.
func projection(window, order int) (*mat.Dense, error) {
	half := window / 2
	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := position(i, half)
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}

	ones := make([]float64, window)
	for i := range ones {
		ones[i] = 1
	}

	var qr mat.QR
	qr.Factorize(a)

	var proj mat.Dense
	if err := qr.SolveTo(&proj, false, mat.NewDiagDense(window, ones)); err != nil {
		return nil, fmt.Errorf("smoothing: window=%d order=%d: %w", window, order, err)
	}
	return &proj, nil
}

// position maps window index i to [-1, 1] to keep the Vandermonde matrix
// well conditioned.
func position(i, half int) float64 {
	if half == 0 {
		return 0
	}
	return float64(i-half) / float64(half)
}

func fitCoefficients(proj *mat.Dense, window []float64) []float64 {
	var c mat.VecDense
	c.MulVec(proj, mat.NewVecDense(len(window), window))
	return c.RawVector().Data
}

func evalPoly(c []float64, x float64) float64 {
	v := 0.0
	for j := len(c) - 1; j >= 0; j-- {
		v = v*x + c[j]
	}
	return v
}
