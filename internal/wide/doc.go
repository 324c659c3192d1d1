// Package wide provides SIMD-friendly wide types for lockstep pixel kernels.
//
// F32x8 holds eight float32 lanes in a fixed-size array. Simple loops over
// fixed-size arrays give the Go compiler a chance to auto-vectorize (SSE,
// AVX, NEON) without unsafe or assembly.
//
// The escape-time kernel runs eight horizontally adjacent pixels through the
// recurrence together, the CPU counterpart of a GPU warp: lanes retire as
// they escape and the group finishes when the last active lane is done.
//
// # Rounding
//
// Every lane operation rounds its result to float32 through an explicit
// conversion. That keeps the compiler from fusing a multiply and an add
// into one FMA, so a lane produces exactly the bits the scalar float32
// kernel produces for the same pixel.
//
// # Usage Example
//
//	zx := wide.SplatF32(0)
//	x2 := zx.Mul(zx)
//	escaped := x2.Add(y2).Greater(4) // bit i set when lane i escaped
package wide
