package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func slowWithRipple(n int, dt float64) (t, y []float64) {
	t = floats.Span(make([]float64, n), 0, dt*float64(n-1))
	y = make([]float64, n)
	for i, ti := range t {
		y[i] = math.Sin(2*math.Pi*0.05*ti) + 0.2*math.Sin(2*math.Pi*2*ti)
	}
	return t, y
}

func TestPowerSpectrum_PeakAtBin(t *testing.T) {
	n := 64
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Cos(2 * math.Pi * 5 * float64(i) / float64(n))
	}
	ps := PowerSpectrum(data)
	require.Len(t, ps, n/2+1)
	assert.Equal(t, 5, floats.MaxIdx(ps))
	assert.InDelta(t, float64(n)/2, ps[5], 1e-9)
}

func TestDominantFrequency(t *testing.T) {
	tt, y := slowWithRipple(1000, 0.1)
	assert.InDelta(t, 0.05, DominantFrequency(tt, y), 0.011)

	assert.Zero(t, DominantFrequency([]float64{0}, []float64{1}))
	assert.Zero(t, DominantFrequency([]float64{0, 1}, []float64{1}))
}

func TestAnalyzeFilters_Ripple(t *testing.T) {
	tt, y := slowWithRipple(1000, 0.1)

	results, err := AnalyzeFilters(tt, y, nil, DefaultPolynomialOrder)
	require.NoError(t, err)
	require.Len(t, results, len(DefaultWindows))

	for i, r := range results {
		assert.Equal(t, DefaultWindows[i], r.WindowLength)
		assert.Equal(t, 2, r.PolynomialOrder)
		assert.Greater(t, r.NoiseReduction, 0.0)
		assert.Less(t, r.NoiseReduction, 1.0)
		assert.Greater(t, r.SignalPreservation, 0.9)
		assert.Len(t, r.Smoothed, len(y))
	}
	// The 11-sample window removes most of the 2 Hz ripple.
	assert.InDelta(t, 2.0, results[0].ResidualFrequency, 0.02)
}

func TestAnalyzeFilters_WindowCorrection(t *testing.T) {
	tt, y := slowWithRipple(200, 0.1)

	results, err := AnalyzeFilters(tt, y, []int{1, 2, 4, 10}, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 3, results[0].WindowLength)
	assert.Equal(t, 2, results[0].PolynomialOrder)
	assert.Equal(t, 5, results[1].WindowLength)
	assert.Equal(t, 4, results[1].PolynomialOrder)
	assert.Equal(t, 11, results[2].WindowLength)
	assert.Equal(t, 5, results[2].PolynomialOrder)
}

func TestAnalyzeFilters_ConstantSeries(t *testing.T) {
	tt := floats.Span(make([]float64, 20), 0, 19)
	y := make([]float64, 20)
	for i := range y {
		y[i] = 3
	}
	results, err := AnalyzeFilters(tt, y, []int{5}, 2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].NoiseReduction)
	assert.Equal(t, 1.0, results[0].SignalPreservation)
}

func TestAnalyzeFilters_TooShort(t *testing.T) {
	_, err := AnalyzeFilters([]float64{0, 1}, []float64{1, 2}, nil, 2)
	assert.Error(t, err)
}
