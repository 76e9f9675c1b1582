// Package density implements the visit-density histogram: a row-major
// grid of float64 accumulators and the bilinear splat that deposits unit
// mass from a continuous position onto its four neighbouring cells.
//
// Buffers are sized once and reused; [Buffer.Clear] resets them between
// frames. A Buffer is not safe for concurrent writes, each sampling worker
// owns its own and the scheduler folds them with [Buffer.Add].
package density
