package identify

import (
	"testing"

	"github.com/san-kum/pidtune/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rampThenFlat returns t = 0..29 and an output that is 0 until t=5, ramps
// linearly to 10 at t=15 and stays flat afterwards.
func rampThenFlat() (t, y, u []float64) {
	n := 30
	t = make([]float64, n)
	y = make([]float64, n)
	u = make([]float64, n)
	for i := 0; i < n; i++ {
		t[i] = float64(i)
		switch {
		case i < 5:
			y[i] = 0
		case i <= 15:
			y[i] = float64(i - 5)
		default:
			y[i] = 10
		}
		if i >= 2 {
			u[i] = 2
		}
	}
	return t, y, u
}

func TestIdentify_SmithRamp(t *testing.T) {
	tt, y, u := rampThenFlat()

	res, err := Identify(tt, y, u, process.MethodSmith, 0)
	require.NoError(t, err)

	assert.InDelta(t, 2.83, res.Y1, 1e-12)
	assert.InDelta(t, 6.32, res.Y2, 1e-12)
	assert.Equal(t, 8.0, res.T1)
	assert.Equal(t, 12.0, res.T2)
	assert.InDelta(t, 6.0, res.Model.TimeConstant, 1e-12)
	assert.InDelta(t, 6.0, res.Model.DeadTime, 1e-12)
	assert.InDelta(t, 5.0, res.Model.Gain, 1e-12)
	assert.Equal(t, 1, res.Offset)
}

func TestIdentify_SundaresanRamp(t *testing.T) {
	tt, y, u := rampThenFlat()

	res, err := Identify(tt, y, u, process.MethodSundaresan, 0)
	require.NoError(t, err)

	assert.InDelta(t, 3.53, res.Y1, 1e-12)
	assert.InDelta(t, 8.53, res.Y2, 1e-12)
	assert.Equal(t, 9.0, res.T1)
	assert.Equal(t, 14.0, res.T2)
	assert.InDelta(t, 10.0/3.0, res.Model.TimeConstant, 1e-12)
	assert.InDelta(t, 1.3*9-0.29*14, res.Model.DeadTime, 1e-12)
}

func TestIdentify_Idempotent(t *testing.T) {
	tt, y, u := rampThenFlat()
	a, err := Identify(tt, y, u, process.MethodSmith, 10)
	require.NoError(t, err)
	b, err := Identify(tt, y, u, process.MethodSmith, 10)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIdentify_ZeroExcitation(t *testing.T) {
	tt, y, _ := rampThenFlat()
	u := make([]float64, len(tt))
	for i := range u {
		u[i] = 3
	}

	_, err := Identify(tt, y, u, process.MethodSmith, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, process.ErrZeroExcitation)
}

func TestIdentify_InvertedCrossing(t *testing.T) {
	// An ideal step reaches both levels on the same sample.
	tt := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	y := []float64{0, 0, 0, 10, 10, 10, 10, 10}
	u := []float64{0, 0, 1, 1, 1, 1, 1, 1}

	_, err := Identify(tt, y, u, process.MethodSmith, 0)
	var ice *process.InvertedCrossingError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, 3.0, ice.T1)
	assert.Equal(t, 3.0, ice.T2)
}

func TestIdentify_LevelNotReachedAfterOffset(t *testing.T) {
	tt, y, u := rampThenFlat()

	// Skipping 90% of the samples leaves only the flat tail; its first sample
	// is already above both levels, so the crossing times collapse.
	_, err := Identify(tt, y, u, process.MethodSmith, 90)
	assert.ErrorIs(t, err, process.ErrInvertedCrossing)

	// Skipping everything leaves nothing to search.
	_, err = Identify(tt, y, u, process.MethodSmith, 100)
	var lnr *process.LevelNotReachedError
	require.ErrorAs(t, err, &lnr)
	assert.Equal(t, "y1", lnr.Name)
	assert.Equal(t, len(tt), lnr.Offset)
}

func TestIdentify_OffsetSkipsEarlySpike(t *testing.T) {
	tt, y, u := rampThenFlat()
	y[1] = 9.5 // spurious spike above y2

	_, err := Identify(tt, y, u, process.MethodSmith, 0)
	assert.ErrorIs(t, err, process.ErrInvertedCrossing)

	res, err := Identify(tt, y, u, process.MethodSmith, 10)
	require.NoError(t, err)
	assert.Equal(t, 8.0, res.T1)
	assert.Equal(t, 12.0, res.T2)
}

func TestIdentify_UnknownMethod(t *testing.T) {
	tt, y, u := rampThenFlat()
	_, err := Identify(tt, y, u, process.Method("broida"), 0)
	assert.Error(t, err)
}

func TestOffset(t *testing.T) {
	tests := []struct {
		n        int
		percent  float64
		expected int
	}{
		{100, 15, 15},
		{100, 0, 1},
		{10, 5.5, 1},
		{1000, 15, 150},
		{7, 50, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Offset(tt.n, tt.percent), "n=%d percent=%v", tt.n, tt.percent)
	}
}

func TestGain_NegativeResponse(t *testing.T) {
	k, err := Gain(-4, []float64{1, 1, 3, 3})
	require.NoError(t, err)
	assert.Equal(t, -2.0, k)
}

func TestFractions(t *testing.T) {
	f1, f2, ok := Fractions(process.MethodSundaresan)
	require.True(t, ok)
	assert.Equal(t, 0.353, f1)
	assert.Equal(t, 0.853, f2)

	_, _, ok = Fractions("nope")
	assert.False(t, ok)
}
