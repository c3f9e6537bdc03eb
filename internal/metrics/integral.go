package metrics

import "math"

// Integral accumulates ∫f(t, e)dt by the trapezoidal rule.
type Integral struct {
	name    string
	f       func(t, e float64) float64
	sum     float64
	prevT   float64
	prevF   float64
	samples int
}

func NewIAE() *Integral {
	return &Integral{name: "iae", f: func(_, e float64) float64 { return math.Abs(e) }}
}

func NewISE() *Integral {
	return &Integral{name: "ise", f: func(_, e float64) float64 { return e * e }}
}

func NewITAE() *Integral {
	return &Integral{name: "itae", f: func(t, e float64) float64 { return t * math.Abs(e) }}
}

func (m *Integral) Name() string { return m.name }

func (m *Integral) Observe(t, e float64) {
	v := m.f(t, e)
	if m.samples > 0 {
		m.sum += 0.5 * (t - m.prevT) * (v + m.prevF)
	}
	m.prevT, m.prevF = t, v
	m.samples++
}

func (m *Integral) Value() float64 { return m.sum }

func (m *Integral) Reset() {
	m.sum = 0
	m.prevT, m.prevF = 0, 0
	m.samples = 0
}
