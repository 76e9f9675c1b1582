// Package animate advances the field coefficients and the vertical
// projection offset once per completed frame.
package animate

import (
	"github.com/san-kum/popcorn/internal/dynamo"
	"github.com/san-kum/popcorn/internal/integrators"
)

// Animator owns the coefficient vector between frames.
type Animator struct {
	Coeffs     dynamo.Coefficients
	Rates      dynamo.Coefficients
	OffsetY    float64
	OffsetRate float64
	Dt         float64
	Frame      int
}

func New(c, rates dynamo.Coefficients, offsetY, offsetRate, dt float64) *Animator {
	return &Animator{Coeffs: c, Rates: rates, OffsetY: offsetY, OffsetRate: offsetRate, Dt: dt}
}

// Snapshot returns the values workers read during the current frame.
func (a *Animator) Snapshot() (dynamo.Coefficients, float64) {
	return a.Coeffs, a.OffsetY
}

// Step advances every coefficient and the offset by one Euler step.
func (a *Animator) Step() {
	for i := range a.Coeffs {
		a.Coeffs[i] = integrators.Advance(a.Coeffs[i], a.Rates[i], a.Dt)
	}
	a.OffsetY = integrators.Advance(a.OffsetY, a.OffsetRate, a.Dt)
	a.Frame++
}

// Steps applies n steps.
func (a *Animator) Steps(n int) {
	for i := 0; i < n; i++ {
		a.Step()
	}
}

// Static reports whether stepping changes nothing.
func (a *Animator) Static() bool {
	return (a.Rates == (dynamo.Coefficients{}) && a.OffsetRate == 0) || a.Dt == 0
}
