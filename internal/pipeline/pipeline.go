// Package pipeline runs the identification workflow end to end:
// smoothing, FOPDT identification, PID tuning, closed-loop simulation and
// performance analysis.
//
// Every call is independent and holds no shared mutable state, so a single
// Pipeline may serve concurrent callers.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/pidtune/internal/identify"
	"github.com/san-kum/pidtune/internal/linsys"
	"github.com/san-kum/pidtune/internal/process"
	"github.com/san-kum/pidtune/internal/smoothing"
	"github.com/san-kum/pidtune/internal/tuning"
)

const (
	DefaultSimTime   = 50.0
	DefaultNumPoints = 1000
)

type Config struct {
	Smoothing     smoothing.Config
	Method        process.Method
	OffsetPercent float64
	Lambda        float64
	SimTime       float64
	NumPoints     int
	Simulation    linsys.Options
}

func DefaultConfig() Config {
	return Config{
		Smoothing:     smoothing.DefaultConfig(),
		Method:        process.MethodSmith,
		OffsetPercent: identify.DefaultOffsetPercent,
		Lambda:        tuning.DefaultLambda,
		SimTime:       DefaultSimTime,
		NumPoints:     DefaultNumPoints,
		Simulation:    linsys.DefaultOptions(),
	}
}

type Pipeline struct {
	cfg Config
	log *logrus.Entry
}

func New(cfg Config) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		log: logrus.WithField("component", "pipeline"),
	}
}

func (p *Pipeline) Config() Config { return p.cfg }

// RunReport is the outcome of a full run on one experiment.
type RunReport struct {
	Summary        process.Summary `json:"summary"`
	Identification Identification  `json:"identification"`
	Controllers    []Outcome       `json:"controllers"`
}

// Run identifies the experiment, tunes both rules and simulates them.
func (p *Pipeline) Run(ctx context.Context, exp process.Experiment) (*RunReport, error) {
	id, err := Identify(exp, p.cfg.Method, p.cfg.OffsetPercent, p.cfg.Smoothing)
	if err != nil {
		p.log.WithError(err).WithField("method", p.cfg.Method).Warn("identification failed")
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"method": id.Method,
		"k":      id.Model.Gain,
		"tau":    id.Model.TimeConstant,
		"theta":  id.Model.DeadTime,
		"window": id.Smoothing.WindowLength,
	}).Info("model identified")

	pids, err := TuneAll(id.Model, p.cfg.Lambda)
	if err != nil {
		return nil, err
	}

	outcomes, err := p.Compare(ctx, id.Model, pids)
	if err != nil {
		return nil, err
	}

	return &RunReport{
		Summary:        exp.Summary(),
		Identification: id,
		Controllers:    outcomes,
	}, nil
}

// Compare simulates and analyzes every controller on the configured grid.
func (p *Pipeline) Compare(ctx context.Context, m process.FOPDT, pids []process.PID) ([]Outcome, error) {
	outcomes, err := SimulateAndAnalyze(ctx, m, pids, p.cfg.SimTime, p.cfg.NumPoints, p.cfg.Simulation)
	if err != nil {
		p.log.WithError(err).WithField("model", m.String()).Error("simulation failed")
		return nil, err
	}
	for _, o := range outcomes {
		entry := p.log.WithFields(logrus.Fields{
			"rule":      o.PID.Rule,
			"kp":        o.PID.Kp,
			"rise":      o.Performance.RiseTime,
			"overshoot": o.Performance.OvershootPercent,
			"settling":  o.Performance.SettlingTime,
		})
		if !o.Response.Stable {
			entry.Warn("closed loop is unstable")
			continue
		}
		entry.Debug("closed loop simulated")
	}
	return outcomes, nil
}

func (c Config) Validate() error {
	if _, err := process.ParseMethod(string(c.Method)); err != nil {
		return err
	}
	if c.OffsetPercent < 0 || c.OffsetPercent >= 100 {
		return fmt.Errorf("offset_percent must be in [0, 100), got %v", c.OffsetPercent)
	}
	if c.Lambda <= 0 {
		return fmt.Errorf("lambda must be positive, got %v", c.Lambda)
	}
	if c.SimTime <= 0 {
		return fmt.Errorf("sim_time must be positive, got %v", c.SimTime)
	}
	if c.NumPoints < 2 {
		return fmt.Errorf("num_points must be >= 2, got %d", c.NumPoints)
	}
	return nil
}
