package process

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExperiment_Validate(t *testing.T) {
	tests := []struct {
		name string
		exp  Experiment
		ok   bool
	}{
		{"valid", Experiment{Time: []float64{0, 1, 2}, Output: []float64{0, 1, 2}, Input: []float64{0, 1, 1}}, true},
		{"empty", Experiment{}, false},
		{"length mismatch", Experiment{Time: []float64{0, 1}, Output: []float64{0}, Input: []float64{0, 1}}, false},
		{"repeated time", Experiment{Time: []float64{0, 1, 1}, Output: []float64{0, 1, 2}, Input: []float64{0, 1, 1}}, false},
		{"decreasing time", Experiment{Time: []float64{0, 2, 1}, Output: []float64{0, 1, 2}, Input: []float64{0, 1, 1}}, false},
		{"nan output", Experiment{Time: []float64{0, 1}, Output: []float64{0, math.NaN()}, Input: []float64{0, 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.exp.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSeries))
		})
	}
}

func TestExperiment_Summary(t *testing.T) {
	exp := Experiment{
		Time:   []float64{0, 0.5, 1},
		Output: []float64{2, 5, 4},
		Input:  []float64{0, 1, 1},
	}
	s := exp.Summary()
	assert.Equal(t, 3, s.Samples)
	assert.Equal(t, [2]float64{0, 1}, s.TimeRange)
	assert.Equal(t, [2]float64{2, 5}, s.OutputRange)
	assert.Equal(t, [2]float64{0, 1}, s.InputRange)
}

func TestFOPDT_Validate(t *testing.T) {
	tests := []struct {
		name  string
		model FOPDT
		param string
	}{
		{"valid", FOPDT{Gain: 2, TimeConstant: 5, DeadTime: 1}, ""},
		{"zero dead time", FOPDT{Gain: 2, TimeConstant: 5, DeadTime: 0}, ""},
		{"negative gain", FOPDT{Gain: -1, TimeConstant: 5, DeadTime: 1}, "k"},
		{"zero tau", FOPDT{Gain: 1, TimeConstant: 0, DeadTime: 1}, "tau"},
		{"negative theta", FOPDT{Gain: 1, TimeConstant: 1, DeadTime: -0.1}, "theta"},
		{"nan gain", FOPDT{Gain: math.NaN(), TimeConstant: 1, DeadTime: 0}, "k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if tt.param == "" {
				assert.NoError(t, err)
				return
			}
			var me *InvalidModelError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.param, me.Param)
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}
}

func TestParseMethodAndRule(t *testing.T) {
	m, err := ParseMethod(" Smith ")
	require.NoError(t, err)
	assert.Equal(t, MethodSmith, m)

	m, err = ParseMethod("sundaresan")
	require.NoError(t, err)
	assert.Equal(t, MethodSundaresan, m)

	_, err = ParseMethod("ziegler")
	assert.Error(t, err)

	r, err := ParseRule("itae")
	require.NoError(t, err)
	assert.Equal(t, RuleITAE, r)

	_, err = ParseRule("cohen-coon")
	assert.Error(t, err)
}

func TestErrorsCarryValues(t *testing.T) {
	err := error(&InvertedCrossingError{T1: 4, T2: 3})
	assert.ErrorIs(t, err, ErrInvertedCrossing)
	assert.Contains(t, err.Error(), "t1 (4)")

	err = &LevelNotReachedError{Name: "y2", Level: 6.32, Offset: 1}
	assert.ErrorIs(t, err, ErrLevelNotReached)
	assert.Contains(t, err.Error(), "y2=6.32")

	err = &ZeroExcitationError{Value: 3}
	assert.ErrorIs(t, err, ErrZeroExcitation)
	assert.False(t, errors.Is(err, ErrInvalidModel))
}

func TestResponse_TrackingError(t *testing.T) {
	r := Response{Time: []float64{0, 1}, Output: []float64{0.25, 1.5}}
	assert.Equal(t, []float64{0.75, -0.5}, r.TrackingError())
}

func TestPID_ParallelGains(t *testing.T) {
	p := PID{Kp: 2, Ti: 4, Td: 0.5}
	assert.InDelta(t, 0.5, p.Ki(), 1e-12)
	assert.InDelta(t, 1.0, p.Kd(), 1e-12)
	assert.True(t, p.IsFinite())
	assert.False(t, PID{Kp: math.Inf(1), Ti: 1}.IsFinite())
}
