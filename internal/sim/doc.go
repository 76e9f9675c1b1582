// Package sim runs the attractor: trajectory iteration, the fork-join
// sampling pool and the frame loop that ties them to the tone mappers,
// the display surface and the frame exporter.
//
// # Frame structure
//
// A frame clears every density buffer, then runs a fixed number of ticks.
// Each tick splits its share of the frame's sample budget across the pool,
// waits for all workers, folds their buffers and pushes a preview. After
// the last tick the radiance frame is exported and the animator advances
// the coefficients. Coefficients never change while workers run.
//
// # Cancellation
//
// The context and the surface are polled between ticks only; a running
// tick always finishes.
package sim
