package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pidtune/internal/smoothing"
)

// DefaultWindows are the window lengths compared when none are given.
var DefaultWindows = []int{11, 21, 31, 51}

const DefaultPolynomialOrder = 2

type FilterResult struct {
	WindowLength       int       `json:"window_length"`
	PolynomialOrder    int       `json:"polyorder"`
	NoiseReduction     float64   `json:"noise_reduction"`
	SignalPreservation float64   `json:"signal_preservation"`
	ResidualFrequency  float64   `json:"residual_frequency"`
	Smoothed           []float64 `json:"-"`
}

// AnalyzeFilters smooths y once per window. Even windows are bumped to the
// next odd length, windows below 3 are skipped and the order is clamped to
// window−1 per window.
func AnalyzeFilters(t, y []float64, windows []int, order int) ([]FilterResult, error) {
	if len(windows) == 0 {
		windows = DefaultWindows
	}

	results := make([]FilterResult, 0, len(windows))
	for _, w := range windows {
		if w%2 == 0 {
			w++
		}
		if w < smoothing.MinWindow {
			continue
		}
		po := order
		if po >= w {
			po = w - 1
		}

		cfg, err := smoothing.Config{WindowLength: w, PolynomialOrder: po}.Normalize(len(y))
		if err != nil {
			return nil, err
		}
		yf, err := smoothing.Smooth(y, cfg)
		if err != nil {
			return nil, err
		}

		noise, keep := score(y, yf)
		residual := make([]float64, len(y))
		floats.SubTo(residual, y, yf)

		results = append(results, FilterResult{
			WindowLength:       cfg.WindowLength,
			PolynomialOrder:    cfg.PolynomialOrder,
			NoiseReduction:     noise,
			SignalPreservation: keep,
			ResidualFrequency:  DominantFrequency(t, residual),
			Smoothed:           yf,
		})
	}
	return results, nil
}

// score returns (noise reduction, signal preservation). A constant series is
// reproduced exactly by any window, which scores (0, 1).
func score(y, yf []float64) (float64, float64) {
	sy := stat.StdDev(y, nil)
	if sy == 0 || math.IsNaN(sy) {
		return 0, 1
	}
	residual := make([]float64, len(y))
	floats.SubTo(residual, y, yf)

	corr := stat.Correlation(y, yf, nil)
	if math.IsNaN(corr) {
		corr = 0
	}
	return stat.StdDev(residual, nil) / sy, corr
}
