// Package field provides the velocity fields that drive the popcorn
// recurrence.
//
// Each field implements [dynamo.Field], returning the displacement
// (f(x,y), g(x,y)) for a position under the current coefficients:
//
//   - [Popcorn]: f = cos(t0 + y + sin(t1 + πx)), g = cos(t2 + y + cos(t3 + πx))
//   - [FastPopcorn]: the same pair evaluated through a trig lookup table
//   - [Zero]: no displacement; every step stays where it started
//
// Any other bounded, continuous pair can be plugged in with
// [dynamo.FieldFunc] or registered by name with [Register].
package field
