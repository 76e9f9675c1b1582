package field

import (
	"math"

	"github.com/san-kum/popcorn/internal/dynamo"
)

// Popcorn is the reference field. Scale multiplies π inside the inner
// trig terms; 1 gives the classic shape.
type Popcorn struct{ scale float64 }

func NewPopcorn() *Popcorn { return &Popcorn{scale: 1} }

func (p *Popcorn) Velocity(v dynamo.Vec2, c dynamo.Coefficients) dynamo.Vec2 {
	k := math.Pi * p.scale * v.X
	return dynamo.Vec2{
		X: math.Cos(c[0] + v.Y + math.Sin(c[1]+k)),
		Y: math.Cos(c[2] + v.Y + math.Cos(c[3]+k)),
	}
}

func (p *Popcorn) GetParams() map[string]float64 {
	return map[string]float64{"scale": p.scale}
}

func (p *Popcorn) SetParam(n string, v float64) error {
	if n != "scale" {
		return &dynamo.ConfigError{Field: "field." + n, Reason: "unknown parameter"}
	}
	p.scale = v
	return nil
}

// FastPopcorn trades accuracy for speed with table lookups.
type FastPopcorn struct{ table *dynamo.TrigTable }

func NewFastPopcorn() *FastPopcorn { return &FastPopcorn{table: dynamo.DefaultTrigTable} }

func (p *FastPopcorn) Velocity(v dynamo.Vec2, c dynamo.Coefficients) dynamo.Vec2 {
	k := math.Pi * v.X
	t := p.table
	return dynamo.Vec2{
		X: t.Cos(c[0] + v.Y + t.Sin(c[1]+k)),
		Y: t.Cos(c[2] + v.Y + t.Cos(c[3]+k)),
	}
}

// Zero never moves a point.
type Zero struct{}

func (Zero) Velocity(dynamo.Vec2, dynamo.Coefficients) dynamo.Vec2 { return dynamo.Vec2{} }
