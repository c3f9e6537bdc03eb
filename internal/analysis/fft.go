package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the one-sided spectrum, bins 0..n/2.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	spec := fft.FFTReal(data)
	ps := make([]float64, len(spec)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantFrequency returns the frequency of the strongest non-DC bin of
// data sampled on t, assuming near-uniform spacing.
func DominantFrequency(t, data []float64) float64 {
	n := len(data)
	if n < 2 || len(t) != n || t[n-1] <= t[0] {
		return 0
	}
	ps := PowerSpectrum(data)

	peak := 0
	for k := 1; k < len(ps); k++ {
		if peak == 0 || ps[k] > ps[peak] {
			peak = k
		}
	}
	if peak == 0 {
		return 0
	}
	dt := (t[n-1] - t[0]) / float64(n-1)
	return float64(peak) / (float64(n) * dt)
}
