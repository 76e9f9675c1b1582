package dynamo

import "math"

// TrigTable provides precomputed sin/cos values for fast lookup.
// Uses linear interpolation for values between table entries.
type TrigTable struct {
	sin []float64
	cos []float64
	n   int
}

// Global default trig table (4096 entries = ~0.0015 rad resolution)
var DefaultTrigTable = NewTrigTable(4096)

// NewTrigTable creates a precomputed trig lookup table
func NewTrigTable(n int) *TrigTable {
	t := &TrigTable{
		sin: make([]float64, n+1),
		cos: make([]float64, n+1),
		n:   n,
	}

	// one extra entry so interpolation never wraps the index
	for i := 0; i <= n; i++ {
		angle := float64(i) * 2 * math.Pi / float64(n)
		t.sin[i] = math.Sin(angle)
		t.cos[i] = math.Cos(angle)
	}

	return t
}

func (t *TrigTable) index(x float64) (int, float64) {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	idx := x * float64(t.n) / (2 * math.Pi)
	i := int(idx)
	if i >= t.n {
		i = t.n - 1
	}
	return i, idx - float64(i)
}

// Sin returns approximate sin using table lookup with interpolation
func (t *TrigTable) Sin(x float64) float64 {
	i, frac := t.index(x)
	return t.sin[i]*(1-frac) + t.sin[i+1]*frac
}

// Cos returns approximate cos using table lookup with interpolation
func (t *TrigTable) Cos(x float64) float64 {
	i, frac := t.index(x)
	return t.cos[i]*(1-frac) + t.cos[i+1]*frac
}
