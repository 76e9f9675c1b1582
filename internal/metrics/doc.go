// Package metrics tracks run performance: per-tick calculation and
// drawing time and sampling throughput.
package metrics
