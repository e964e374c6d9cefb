// Package distance provides the distance primitive consumed by the graph
// index (C1).
//
// The only hard contract is d²(x, y) → f32: nonnegative, zero on identity,
// symmetric, defined for any two equal-length float32 slices. Everything
// above this package treats distance as an opaque ordering; SIMD kernels,
// product quantization, and other performance variants are explicitly out
// of scope (see spec §1) and are not implemented here — the scalar loops
// below are sufficient to satisfy the recall properties in spec §8.
package distance
