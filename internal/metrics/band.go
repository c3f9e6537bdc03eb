package metrics

import "math"

// Band tracks when a normalized signal last re-entered [1−tol, 1+tol] for
// good. Value is the time of the sample after the last out-of-band sample,
// the first sample time if the signal never left the band, or the last
// sample time if it ends outside.
type Band struct {
	name       string
	tolerance  float64
	settle     float64
	pending    bool
	violations int
	samples    int
}

func NewBand(tolerance float64) *Band {
	return &Band{
		name:      "settling_time",
		tolerance: tolerance,
	}
}

func (b *Band) Name() string { return b.name }

func (b *Band) Observe(t, v float64) {
	if b.samples == 0 || b.pending {
		b.settle = t
		b.pending = false
	}
	if !(math.Abs(v-1) <= b.tolerance) {
		b.settle = t
		b.pending = true
		b.violations++
	}
	b.samples++
}

func (b *Band) Value() float64 { return b.settle }

// Violations counts the out-of-band samples seen.
func (b *Band) Violations() int { return b.violations }

func (b *Band) Reset() {
	b.settle = 0
	b.pending = false
	b.violations = 0
	b.samples = 0
}
