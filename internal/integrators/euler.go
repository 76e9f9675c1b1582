package integrators

import "github.com/san-kum/popcorn/internal/dynamo"

// Euler advances a position by one explicit Euler step: p + dt*f(p).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(f dynamo.Field, p dynamo.Vec2, c dynamo.Coefficients, dt float64) dynamo.Vec2 {
	d := f.Velocity(p, c)
	return dynamo.Vec2{X: p.X + dt*d.X, Y: p.Y + dt*d.Y}
}

// Advance applies an explicit Euler step to a plain scalar: x + dt*rate.
func Advance(x, rate, dt float64) float64 {
	return x + dt*rate
}
