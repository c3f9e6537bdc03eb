package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidtune/internal/identify"
	"github.com/san-kum/pidtune/internal/linsys"
	"github.com/san-kum/pidtune/internal/pade"
	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/process"
	"github.com/san-kum/pidtune/internal/smoothing"
	"github.com/san-kum/pidtune/internal/tuning"
)

const (
	DefaultAddr         = ":8000"
	DefaultDataDir      = ".pidtune"
	DefaultCacheEntries = 1024
	DefaultLogLevel     = "info"
)

type Config struct {
	Smoothing      smoothing.Config     `yaml:"smoothing"`
	Identification IdentificationConfig `yaml:"identification"`
	Tuning         TuningConfig         `yaml:"tuning"`
	Simulation     SimulationConfig     `yaml:"simulation"`
	Server         ServerConfig         `yaml:"server"`
	LogLevel       string               `yaml:"log_level"`
}

type IdentificationConfig struct {
	Method        string  `yaml:"method"`
	OffsetPercent float64 `yaml:"offset_percent"`
}

type TuningConfig struct {
	Lambda float64 `yaml:"lambda"`
}

type SimulationConfig struct {
	SimTime   float64 `yaml:"sim_time"`
	NumPoints int     `yaml:"num_points"`
	PadeOrder int     `yaml:"pade_order"`
	Method    string  `yaml:"method"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	DataDir      string `yaml:"data_dir"`
	CacheEntries int64  `yaml:"cache_entries"`
}

func DefaultConfig() *Config {
	return &Config{
		Smoothing: smoothing.DefaultConfig(),
		Identification: IdentificationConfig{
			Method:        string(process.MethodSmith),
			OffsetPercent: identify.DefaultOffsetPercent,
		},
		Tuning: TuningConfig{
			Lambda: tuning.DefaultLambda,
		},
		Simulation: SimulationConfig{
			SimTime:   pipeline.DefaultSimTime,
			NumPoints: pipeline.DefaultNumPoints,
			PadeOrder: pade.DefaultOrder,
			Method:    string(linsys.MethodZOH),
		},
		Server: ServerConfig{
			Addr:         DefaultAddr,
			DataDir:      DefaultDataDir,
			CacheEntries: DefaultCacheEntries,
		},
		LogLevel: DefaultLogLevel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Pipeline converts the file settings into a validated pipeline.Config.
func (c *Config) Pipeline() (pipeline.Config, error) {
	method, err := process.ParseMethod(c.Identification.Method)
	if err != nil {
		return pipeline.Config{}, err
	}
	simMethod, err := linsys.ParseMethod(c.Simulation.Method)
	if err != nil {
		return pipeline.Config{}, err
	}

	pc := pipeline.Config{
		Smoothing:     c.Smoothing,
		Method:        method,
		OffsetPercent: c.Identification.OffsetPercent,
		Lambda:        c.Tuning.Lambda,
		SimTime:       c.Simulation.SimTime,
		NumPoints:     c.Simulation.NumPoints,
		Simulation: linsys.Options{
			PadeOrder: c.Simulation.PadeOrder,
			Method:    simMethod,
		},
	}
	if err := pc.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return pc, nil
}

// Level parses LogLevel; an empty value means DefaultLogLevel.
func (c *Config) Level() (logrus.Level, error) {
	name := strings.TrimSpace(c.LogLevel)
	if name == "" {
		name = DefaultLogLevel
	}
	return logrus.ParseLevel(name)
}
