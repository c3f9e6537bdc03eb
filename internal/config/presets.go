package config

import "sort"

type Preset struct {
	Description string
	apply       func(*Config)
}

var Presets = map[string]Preset{
	"default": {
		Description: "window 11, order 3, offset 15%, lambda 1",
		apply:       func(*Config) {},
	},
	"noisy": {
		Description: "wide smoothing for noisy plant data",
		apply: func(c *Config) {
			c.Smoothing.WindowLength = 51
			c.Smoothing.PolynomialOrder = 2
			c.Identification.OffsetPercent = 20
		},
	},
	"clean": {
		Description: "light smoothing for clean or simulated data",
		apply: func(c *Config) {
			c.Smoothing.WindowLength = 5
			c.Smoothing.PolynomialOrder = 2
			c.Identification.OffsetPercent = 5
		},
	},
	"aggressive": {
		Description: "fast IMC closed loop (lambda 0.5)",
		apply: func(c *Config) {
			c.Tuning.Lambda = 0.5
		},
	},
	"conservative": {
		Description: "slow, robust IMC closed loop (lambda 3)",
		apply: func(c *Config) {
			c.Tuning.Lambda = 3
		},
	},
}

// GetPreset returns the default configuration with the named preset applied,
// or nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

// Apply overlays the named preset on c.
func (c *Config) Apply(name string) bool {
	p, ok := Presets[name]
	if !ok {
		return false
	}
	p.apply(c)
	return true
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
