package tuning

import (
	"fmt"
	"sort"

	"github.com/san-kum/pidtune/internal/process"
)

// RuleFunc tunes a model; lambda is passed through to rules that use it.
type RuleFunc func(m process.FOPDT, lambda float64) (process.PID, error)

type Registry struct {
	rules map[process.Rule]RuleFunc
}

// DefaultRegistry knows IMC and ITAE. It is read-only after init.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	r := &Registry{rules: make(map[process.Rule]RuleFunc)}

	r.rules[process.RuleIMC] = IMC
	r.rules[process.RuleITAE] = func(m process.FOPDT, _ float64) (process.PID, error) { return ITAE(m) }

	return r
}

func (r *Registry) Get(rule process.Rule) (RuleFunc, error) {
	fn, ok := r.rules[rule]
	if !ok {
		return nil, fmt.Errorf("unknown tuning rule: %s", rule)
	}
	return fn, nil
}

// Rules lists the registered rule names in sorted order.
func (r *Registry) Rules() []process.Rule {
	names := make([]process.Rule, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
