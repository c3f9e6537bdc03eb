package smoothing

import "github.com/san-kum/pidtune/internal/process"

const (
	MinWindow = 3

	DefaultWindowLength    = 11
	DefaultPolynomialOrder = 3
)

// Config selects the Savitzky–Golay window and polynomial order.
type Config struct {
	WindowLength    int `yaml:"window_length" json:"window_length"`
	PolynomialOrder int `yaml:"polynomial_order" json:"polyorder"`
}

func DefaultConfig() Config {
	return Config{
		WindowLength:    DefaultWindowLength,
		PolynomialOrder: DefaultPolynomialOrder,
	}
}

// Normalize corrects a config for a series of n samples instead of rejecting
// it: an even window grows to the next odd length, windows below MinWindow
// become MinWindow, windows longer than the series shrink to the longest odd
// length that fits, and the order is clamped to [0, window-1].
func (c Config) Normalize(n int) (Config, error) {
	if n < MinWindow {
		return c, &process.InsufficientDataError{Len: n, Min: MinWindow}
	}

	w := c.WindowLength
	if w%2 == 0 {
		w++
	}
	if w < MinWindow {
		w = MinWindow
	}
	if w > n {
		w = n
		if w%2 == 0 {
			w--
		}
	}

	p := c.PolynomialOrder
	if p >= w {
		p = w - 1
	}
	if p < 0 {
		p = 0
	}

	return Config{WindowLength: w, PolynomialOrder: p}, nil
}
