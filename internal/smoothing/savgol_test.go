package smoothing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/pidtune/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		n        int
		expected Config
	}{
		{"already valid", Config{11, 3}, 100, Config{11, 3}},
		{"even window", Config{10, 3}, 100, Config{11, 3}},
		{"tiny window", Config{1, 0}, 100, Config{3, 0}},
		{"zero window", Config{0, 2}, 100, Config{3, 2}},
		{"order too high", Config{5, 7}, 100, Config{5, 4}},
		{"order equal window", Config{7, 7}, 100, Config{7, 6}},
		{"negative order", Config{5, -2}, 100, Config{5, 0}},
		{"window longer than odd series", Config{51, 3}, 21, Config{21, 3}},
		{"window longer than even series", Config{51, 3}, 20, Config{19, 3}},
		{"shrunk window clamps order", Config{51, 5}, 4, Config{3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.Normalize(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConfig_NormalizeIdempotent(t *testing.T) {
	cfg, err := Config{WindowLength: 8, PolynomialOrder: 12}.Normalize(50)
	require.NoError(t, err)
	again, err := cfg.Normalize(50)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestSmooth_InsufficientData(t *testing.T) {
	for _, y := range [][]float64{nil, {1}, {1, 2}} {
		_, err := Smooth(y, DefaultConfig())
		require.Error(t, err)
		assert.ErrorIs(t, err, process.ErrInsufficientData)
	}
}

func TestSmooth_PreservesLength(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{3, 4, 10, 11, 12, 101, 1000} {
		y := make([]float64, n)
		for i := range y {
			y[i] = rng.NormFloat64()
		}
		out, err := Smooth(y, Config{WindowLength: 11, PolynomialOrder: 3})
		require.NoError(t, err)
		assert.Len(t, out, n)
	}
}

func TestSmooth_ReproducesPolynomials(t *testing.T) {
	// A least-squares fit of order p is exact for polynomials of degree <= p,
	// including the interpolated edges.
	n := 40
	y := make([]float64, n)
	for i := range y {
		x := float64(i) * 0.1
		y[i] = 2 - 3*x + 0.5*x*x + 0.25*x*x*x
	}

	out, err := Smooth(y, Config{WindowLength: 9, PolynomialOrder: 3})
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, y[i], out[i], 1e-9, "sample %d", i)
	}
}

func TestSmooth_InterpolatingOrderIsIdentity(t *testing.T) {
	y := []float64{0, 3, -1, 4, 1, 5, 9}
	out, err := Smooth(y, Config{WindowLength: 7, PolynomialOrder: 6})
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, y[i], out[i], 1e-9)
	}
}

func TestSmooth_MovingAverageWeights(t *testing.T) {
	// Order 0 and 1 reduce to a centered moving average in the interior.
	y := []float64{0, 0, 3, 0, 0, 6, 0, 0}
	out, err := Smooth(y, Config{WindowLength: 3, PolynomialOrder: 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out[1], 1e-12)
	assert.InDelta(t, 1.0, out[2], 1e-12)
	assert.InDelta(t, 1.0, out[3], 1e-12)
	assert.InDelta(t, 2.0, out[4], 1e-12)
}

func TestSmooth_ReducesNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 500
	clean := make([]float64, n)
	noisy := make([]float64, n)
	for i := range clean {
		clean[i] = 1 - math.Exp(-float64(i)/80)
		noisy[i] = clean[i] + 0.05*rng.NormFloat64()
	}

	out, err := Smooth(noisy, Config{WindowLength: 31, PolynomialOrder: 2})
	require.NoError(t, err)

	rms := func(a, b []float64) float64 {
		s := 0.0
		for i := range a {
			d := a[i] - b[i]
			s += d * d
		}
		return math.Sqrt(s / float64(len(a)))
	}
	assert.Less(t, rms(out, clean), rms(noisy, clean)/2)
}

func TestSmooth_DoesNotMutateInput(t *testing.T) {
	y := []float64{1, 5, 2, 8, 3, 9, 4}
	orig := append([]float64(nil), y...)
	_, err := Smooth(y, Config{WindowLength: 5, PolynomialOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, orig, y)
}
