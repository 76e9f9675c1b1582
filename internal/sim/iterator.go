package sim

import (
	"iter"
	"math/rand"

	"github.com/san-kum/popcorn/internal/density"
	"github.com/san-kum/popcorn/internal/dynamo"
	"github.com/san-kum/popcorn/internal/integrators"
)

// Iterator walks short trajectories of a field under a frozen coefficient
// snapshot. Copies are cheap and safe to share read-only across workers.
type Iterator struct {
	Field   dynamo.Field
	Coeffs  dynamo.Coefficients
	Proj    density.Projector
	IterMax int
	Delta   float64

	euler integrators.Euler
}

// Seed draws a start point uniformly from the domain window.
func (it *Iterator) Seed(rng *rand.Rand) dynamo.Vec2 {
	w := it.Proj.Window()
	x := (rng.Float64()*2 - 1) * w.Width
	y := (rng.Float64()*2 - 1) * w.Height
	return dynamo.Vec2{X: x, Y: y}
}

// Seq yields up to IterMax positions starting from a seed drawn on first
// use. The sequence is single use; ranging over it again yields nothing.
func (it *Iterator) Seq(rng *rand.Rand) iter.Seq[dynamo.Vec2] {
	used := false
	return func(yield func(dynamo.Vec2) bool) {
		if used {
			return
		}
		used = true
		it.walk(it.Seed(rng), yield)
	}
}

// From yields the IterMax positions following p.
func (it *Iterator) From(p dynamo.Vec2) iter.Seq[dynamo.Vec2] {
	return func(yield func(dynamo.Vec2) bool) {
		it.walk(p, yield)
	}
}

func (it *Iterator) walk(p dynamo.Vec2, yield func(dynamo.Vec2) bool) {
	for i := 0; i < it.IterMax; i++ {
		p = it.euler.Step(it.Field, p, it.Coeffs, it.Delta)
		if !yield(p) {
			return
		}
	}
}

// Trace walks one random trajectory into dst and returns the number of
// points that landed inside the grid.
func (it *Iterator) Trace(rng *rand.Rand, dst *density.Buffer) int {
	hits := 0
	for p := range it.Seq(rng) {
		if dst.Insert(it.Proj, p) {
			hits++
		}
	}
	return hits
}

// Trace4 walks four random trajectories in lock step.
func (it *Iterator) Trace4(rng *rand.Rand, dst *density.Buffer) int {
	var ps [4]dynamo.Vec2
	for l := range ps {
		ps[l] = it.Seed(rng)
	}

	f, c, dt := it.Field, it.Coeffs, it.Delta
	hits := 0
	for i := 0; i < it.IterMax; i++ {
		var ds [4]dynamo.Vec2
		for l := range ds {
			ds[l] = f.Velocity(ps[l], c)
		}
		for l := range ps {
			ps[l].X += dt * ds[l].X
			ps[l].Y += dt * ds[l].Y
		}
		for l := range ps {
			px, py := it.Proj.Project(ps[l])
			if dst.Splat(px, py) {
				hits++
			}
		}
	}
	return hits
}
