// Package dynamo provides the core value types shared by the attractor
// engine.
//
// The package defines the vocabulary every other package speaks:
//
//   - [Vec2]: a position or displacement in the continuous plane
//   - [Coefficients]: the four animated parameters t0..t3 of a field
//   - [Field]: a velocity field (f(x,y), g(x,y)) driving the recurrence
//   - [Window]: the domain window positions are projected from
//
// # Example
//
//	f := field.NewPopcorn()
//	c := dynamo.Coefficients{0, 1, 2, 3}
//	d := f.Velocity(dynamo.Vec2{X: 0.1, Y: -0.2}, c)
//
// # Thread Safety
//
// Fields must be pure. A single Field value is called concurrently by every
// sampling worker with the same read-only Coefficients snapshot.
package dynamo
