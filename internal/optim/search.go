// Package optim searches the IMC closed-loop time constant for the value
// that minimizes a performance criterion on the simulated loop.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pidtune/internal/linsys"
	"github.com/san-kum/pidtune/internal/metrics"
	"github.com/san-kum/pidtune/internal/process"
	"github.com/san-kum/pidtune/internal/tuning"
)

// Criterion names the performance figure to minimize.
type Criterion string

const (
	CriterionIAE      Criterion = "iae"
	CriterionISE      Criterion = "ise"
	CriterionITAE     Criterion = "itae"
	CriterionSettling Criterion = "settling"
)

func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(strings.ToLower(strings.TrimSpace(s))); c {
	case CriterionIAE, CriterionISE, CriterionITAE, CriterionSettling:
		return c, nil
	}
	return "", fmt.Errorf("unknown criterion %q (use iae, ise, itae or settling)", s)
}

func (c Criterion) value(p process.Performance) float64 {
	switch c {
	case CriterionISE:
		return p.ISE
	case CriterionITAE:
		return p.ITAE
	case CriterionSettling:
		return p.SettlingTime
	}
	return p.IAE
}

// Grid returns n lambdas spaced logarithmically over [lo, hi].
func Grid(lo, hi float64, n int) []float64 {
	if n < 2 || lo <= 0 || hi <= lo {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := math.Log(hi/lo) / float64(n-1)
	for i := range out {
		out[i] = lo * math.Exp(step*float64(i))
	}
	return out
}

// Point is one evaluated lambda.
type Point struct {
	Lambda      float64             `json:"lambda"`
	PID         process.PID         `json:"pid"`
	Performance process.Performance `json:"performance"`
	Stable      bool                `json:"stable"`
	Score       float64             `json:"score"`
}

// Result holds every evaluated point, sorted by lambda, and the best one.
type Result struct {
	Criterion Criterion `json:"criterion"`
	Points    []Point   `json:"points"`
	Best      Point     `json:"best"`
}

type Search struct {
	SimTime   float64
	NumPoints int
	Options   linsys.Options
	Workers   int
}

func NewSearch(simTime float64, numPoints int, opts linsys.Options) *Search {
	return &Search{
		SimTime:   simTime,
		NumPoints: numPoints,
		Options:   opts,
		Workers:   runtime.NumCPU(),
	}
}

// Run tunes and simulates an IMC loop for every lambda. Unstable loops,
// including ones that diverge before the end of the grid, are kept in Points
// with an infinite score but never chosen as Best.
func (s *Search) Run(ctx context.Context, m process.FOPDT, lambdas []float64, c Criterion) (*Result, error) {
	if len(lambdas) == 0 {
		return nil, fmt.Errorf("no lambdas to search")
	}

	points := make([]Point, len(lambdas))
	g, ctx := errgroup.WithContext(ctx)
	if s.Workers > 0 {
		g.SetLimit(s.Workers)
	}
	for i, l := range lambdas {
		i, l := i, l
		g.Go(func() error {
			pid, err := tuning.IMC(m, l)
			if err != nil {
				return err
			}
			resp, err := linsys.Simulate(ctx, pid, m, s.SimTime, s.NumPoints, s.Options)
			if errors.Is(err, process.ErrUnstableModel) {
				points[i] = Point{Lambda: l, PID: pid, Score: math.Inf(1)}
				return nil
			}
			if err != nil {
				return err
			}
			perf := metrics.AnalyzeResponse(resp)
			points[i] = Point{
				Lambda:      l,
				PID:         pid,
				Performance: perf,
				Stable:      resp.Stable,
				Score:       c.value(perf),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Lambda < points[j].Lambda })

	res := &Result{Criterion: c, Points: points}
	best := math.Inf(1)
	found := false
	for _, p := range points {
		if p.Stable && p.Score < best {
			best = p.Score
			res.Best = p
			found = true
		}
	}
	if !found {
		return res, &process.UnstableModelError{Reason: "no lambda in the grid gives a stable loop"}
	}
	return res, nil
}
