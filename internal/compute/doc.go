// Package compute selects how sampling workers walk trajectories.
//
// Two backends share one contract, deposit n trajectories into a private
// density buffer:
//
//   - scalar: one trajectory at a time; the reference path
//   - batch4: four trajectories advanced in lock step, which keeps four
//     independent dependency chains in flight per step
//
// The batched path is statistically equivalent to the scalar one but
// consumes random numbers in a different order, so results are not bit
// identical for the same seed.
//
//	backend := compute.AutoSelectBackend()
//	backend.Sample(iter, rng, 1000, buf)
package compute
