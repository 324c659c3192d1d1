// Package dsfloat implements double-single arithmetic: an extended precision
// scalar stored as an unevaluated sum of two float32 values.
//
// A Float carries roughly 46 bits of mantissa (two 23+1 bit halves) using
// only single precision operations. It is the numeric back-end for zoom
// depths where float32 has run out of bits but native float64 is either
// slow or, on the GPU, unavailable.
//
// The algorithms are the classic error-free transformations:
//
//   - two-sum (Knuth) for addition
//   - two-product with Dekker splitting for multiplication
//
// Every intermediate float32 result is passed through an explicit float32
// conversion. The Go specification allows x*y+z to be fused into a single
// FMA instruction unless a conversion intervenes, and fusion destroys the
// rounding error these transformations are built to capture.
package dsfloat

// splitter is 2^12+1, the Dekker splitting constant for a 24-bit significand.
const splitter = 4097

// Float is a double-single value. The represented number is Hi + Lo.
//
// After every normalizing operation |Lo| <= ulp(Hi)/2.
type Float struct {
	Hi float32
	Lo float32
}

// Split decomposes a float64 into a double-single pair.
// Hi is the nearest float32 to d and Lo holds the rounding residue.
//
// Split is meant to run once per axis per frame on the host, not per pixel.
func Split(d float64) Float {
	hi := float32(d)
	lo := float32(d - float64(hi))
	return Float{Hi: hi, Lo: lo}
}

// FromFloat32 returns f as a double-single value with a zero tail.
func FromFloat32(f float32) Float {
	return Float{Hi: f}
}

// FromInt converts n. The conversion is exact for |n| < 2^24; larger values
// keep their low bits in Lo.
func FromInt(n int) Float {
	return Split(float64(n))
}

// Float64 reconstructs the value in double precision.
// The sum is exact because both halves fit in a float64 significand.
func (a Float) Float64() float64 {
	return float64(a.Hi) + float64(a.Lo)
}

// Neg returns -a.
func (a Float) Neg() Float {
	return Float{Hi: -a.Hi, Lo: -a.Lo}
}

// Add returns a + b.
func Add(a, b Float) Float {
	// two-sum of the leading parts
	t1 := float32(a.Hi + b.Hi)
	e := float32(t1 - a.Hi)
	t2 := float32(float32(b.Hi-e) + float32(a.Hi-float32(t1-e)))

	// fold in the tails
	t2 = float32(float32(t2+a.Lo) + b.Lo)

	return renormalize(t1, t2)
}

// Sub returns a - b.
func Sub(a, b Float) Float {
	return Add(a, b.Neg())
}

// Mul returns a * b.
func Mul(a, b Float) Float {
	// Dekker split of both leading parts into 12-bit halves
	cona := float32(a.Hi * splitter)
	conb := float32(b.Hi * splitter)
	sa1 := float32(cona - float32(cona-a.Hi))
	sb1 := float32(conb - float32(conb-b.Hi))
	sa2 := float32(a.Hi - sa1)
	sb2 := float32(b.Hi - sb1)

	// exact product of the leading parts: c11 + c21
	c11 := float32(a.Hi * b.Hi)
	c21 := float32(float32(sa1*sb1) - c11)
	c21 = float32(c21 + float32(sa1*sb2))
	c21 = float32(c21 + float32(sa2*sb1))
	c21 = float32(c21 + float32(sa2*sb2))

	// cross terms
	c2 := float32(float32(a.Hi*b.Lo) + float32(a.Lo*b.Hi))

	// two-sum of c11 and c2, then gather all low order terms
	t1 := float32(c11 + c2)
	e := float32(t1 - c11)
	t2 := float32(float32(c2-e) + float32(c11-float32(t1-e)))
	t2 = float32(t2 + c21)
	t2 = float32(t2 + float32(a.Lo*b.Lo))

	return renormalize(t1, t2)
}

// Sqr returns a * a.
func Sqr(a Float) Float {
	return Mul(a, a)
}

// renormalize is fast-two-sum: it folds t2 into t1 so that the result
// satisfies the |Lo| <= ulp(Hi)/2 invariant. It requires |t1| >= |t2|
// or t1 == 0, which holds for the callers above.
func renormalize(t1, t2 float32) Float {
	hi := float32(t1 + t2)
	lo := float32(t2 - float32(hi-t1))
	return Float{Hi: hi, Lo: lo}
}
