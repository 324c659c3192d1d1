// Package escape implements the escape-time iteration kernel for the
// Mandelbrot and Julia sets.
//
// The kernel is written once against a capability set, Arith, and
// instantiated for each numeric back-end:
//
//   - F32: native single precision
//   - DS:  double-single emulation (see internal/dsfloat)
//   - F64: native double precision
//
// Instantiation is resolved at compile time through generics; there is no
// interface dispatch per arithmetic operation.
package escape

import "github.com/gogpu/fractal/internal/dsfloat"

// EscapeRadiusSq is the squared escape radius. Comparing |z|^2 against it
// avoids a square root per iteration.
const EscapeRadiusSq = 4

// Arith is the capability set the kernel needs from a numeric back-end.
// T is the back-end's scalar representation.
type Arith[T any] interface {
	// FromFloat64 converts a host value to T.
	FromFloat64(d float64) T

	// FromInt converts a small integer to T.
	FromInt(n int) T

	Add(a, b T) T
	Sub(a, b T) T
	Mul(a, b T) T

	// Escaped reports whether x2 + y2 exceeds EscapeRadiusSq.
	Escaped(x2, y2 T) bool

	// Float64 converts v back to the host representation.
	Float64(v T) float64
}

// F32 is the native single precision back-end.
type F32 struct{}

// FromFloat64 implements Arith.
func (F32) FromFloat64(d float64) float32 { return float32(d) }

// FromInt implements Arith.
func (F32) FromInt(n int) float32 { return float32(n) }

// Add implements Arith.
func (F32) Add(a, b float32) float32 { return float32(a + b) }

// Sub implements Arith.
func (F32) Sub(a, b float32) float32 { return float32(a - b) }

// Mul implements Arith.
func (F32) Mul(a, b float32) float32 { return float32(a * b) }

// Escaped implements Arith.
func (F32) Escaped(x2, y2 float32) bool { return float32(x2+y2) > EscapeRadiusSq }

// Float64 implements Arith.
func (F32) Float64(v float32) float64 { return float64(v) }

// F64 is the native double precision back-end.
type F64 struct{}

// FromFloat64 implements Arith.
func (F64) FromFloat64(d float64) float64 { return d }

// FromInt implements Arith.
func (F64) FromInt(n int) float64 { return float64(n) }

// Add implements Arith.
func (F64) Add(a, b float64) float64 { return a + b }

// Sub implements Arith.
func (F64) Sub(a, b float64) float64 { return a - b }

// Mul implements Arith.
func (F64) Mul(a, b float64) float64 { return a * b }

// Escaped implements Arith.
func (F64) Escaped(x2, y2 float64) bool { return x2+y2 > EscapeRadiusSq }

// Float64 implements Arith.
func (F64) Float64(v float64) float64 { return v }

// DS is the double-single back-end.
type DS struct{}

// FromFloat64 implements Arith.
func (DS) FromFloat64(d float64) dsfloat.Float { return dsfloat.Split(d) }

// FromInt implements Arith.
func (DS) FromInt(n int) dsfloat.Float { return dsfloat.FromInt(n) }

// Add implements Arith.
func (DS) Add(a, b dsfloat.Float) dsfloat.Float { return dsfloat.Add(a, b) }

// Sub implements Arith.
func (DS) Sub(a, b dsfloat.Float) dsfloat.Float { return dsfloat.Sub(a, b) }

// Mul implements Arith.
func (DS) Mul(a, b dsfloat.Float) dsfloat.Float { return dsfloat.Mul(a, b) }

// Escaped implements Arith. Only the high words take part: the low words are
// below one ulp of the high words and cannot move the comparison.
func (DS) Escaped(x2, y2 dsfloat.Float) bool {
	return float32(x2.Hi+y2.Hi) > EscapeRadiusSq
}

// Float64 implements Arith.
func (DS) Float64(v dsfloat.Float) float64 { return v.Float64() }

var (
	_ Arith[float32]       = F32{}
	_ Arith[float64]       = F64{}
	_ Arith[dsfloat.Float] = DS{}
)
