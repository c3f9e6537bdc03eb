// Package metrics extracts step-response performance figures: rise time,
// overshoot, settling time and the integral error criteria.
package metrics

// Metric accumulates a scalar over successive samples.
type Metric interface {
	Name() string
	Observe(t, v float64)
	Value() float64
	Reset()
}
