package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pidtune/internal/identify"
	"github.com/san-kum/pidtune/internal/linsys"
	"github.com/san-kum/pidtune/internal/metrics"
	"github.com/san-kum/pidtune/internal/process"
	"github.com/san-kum/pidtune/internal/smoothing"
	"github.com/san-kum/pidtune/internal/tuning"
)

// Smooth normalizes cfg against the series length and applies the filter.
func Smooth(series []float64, cfg smoothing.Config) ([]float64, error) {
	return smoothing.Smooth(series, cfg)
}

// Identification is an identification result together with the smoothing
// actually applied.
type Identification struct {
	identify.Result
	Smoothing     smoothing.Config `json:"smoothing"`
	OffsetPercent float64          `json:"offset_percent"`
	Smoothed      []float64        `json:"-"`
}

// Identify validates exp, smooths its output and identifies the model.
func Identify(exp process.Experiment, method process.Method, offsetPercent float64, cfg smoothing.Config) (Identification, error) {
	if err := exp.Validate(); err != nil {
		return Identification{}, err
	}
	norm, err := cfg.Normalize(exp.Len())
	if err != nil {
		return Identification{}, err
	}
	ys, err := smoothing.Smooth(exp.Output, norm)
	if err != nil {
		return Identification{}, err
	}
	res, err := identify.Identify(exp.Time, ys, exp.Input, method, offsetPercent)
	if err != nil {
		return Identification{}, err
	}
	return Identification{
		Result:        res,
		Smoothing:     norm,
		OffsetPercent: offsetPercent,
		Smoothed:      ys,
	}, nil
}

func Tune(m process.FOPDT, rule process.Rule, lambda float64) (process.PID, error) {
	return tuning.Tune(m, rule, lambda)
}

// TuneAll returns the IMC and ITAE controllers for m, in that order.
func TuneAll(m process.FOPDT, lambda float64) ([]process.PID, error) {
	imc, err := tuning.IMC(m, lambda)
	if err != nil {
		return nil, err
	}
	itae, err := tuning.ITAE(m)
	if err != nil {
		return nil, err
	}
	return []process.PID{imc, itae}, nil
}

// Outcome is one simulated controller.
type Outcome struct {
	PID         process.PID         `json:"pid"`
	Response    process.Response    `json:"response"`
	Performance process.Performance `json:"performance"`
}

// SimulateAndAnalyze runs every controller concurrently on the same grid.
// Results keep the order of pids.
func SimulateAndAnalyze(ctx context.Context, m process.FOPDT, pids []process.PID, simTime float64, numPoints int, opts linsys.Options) ([]Outcome, error) {
	out := make([]Outcome, len(pids))
	g, ctx := errgroup.WithContext(ctx)
	for i, pid := range pids {
		i, pid := i, pid
		g.Go(func() error {
			resp, err := linsys.Simulate(ctx, pid, m, simTime, numPoints, opts)
			if err != nil {
				return err
			}
			out[i] = Outcome{
				PID:         pid,
				Response:    resp,
				Performance: metrics.AnalyzeResponse(resp),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
