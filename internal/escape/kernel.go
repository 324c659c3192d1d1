package escape

import "math"

// Result is the outcome of iterating one point.
type Result struct {
	// Count is the iteration at which |z| left the escape radius, or the
	// iteration budget when the point did not escape.
	Count int

	// Escaped is false when the budget ran out first.
	Escaped bool

	// Mag2 is |z|^2 at the escaping iteration. Zero when not escaped.
	Mag2 float64
}

// Iterate runs z <- z^2 + c from z0 = (zx, zy) until |z| exceeds the escape
// radius or crunch iterations have run.
//
// Iterate is a pure function of its arguments. A point that never escapes
// costs exactly crunch iterations; an escaping point stops on the iteration
// the escape test fires. crunch <= 0 yields Count 0.
func Iterate[T any, A Arith[T]](a A, zx, zy, cx, cy T, crunch int) Result {
	for i := 0; i < crunch; i++ {
		x2 := a.Mul(zx, zx)
		y2 := a.Mul(zy, zy)
		if a.Escaped(x2, y2) {
			return Result{
				Count:   i,
				Escaped: true,
				Mag2:    a.Float64(x2) + a.Float64(y2),
			}
		}
		zy = a.Add(a.Mul(a.Add(zx, zx), zy), cy)
		zx = a.Add(a.Sub(x2, y2), cx)
	}
	return Result{Count: max(crunch, 0)}
}

// Point iterates the pixel whose complex coordinate is (x, y).
//
// In Mandelbrot mode the coordinate is c and z starts at 0. In Julia mode
// the coordinate is z0 and c is the fixed (jx, jy).
func Point[T any, A Arith[T]](a A, x, y, jx, jy T, julia bool, crunch int) Result {
	if julia {
		return Iterate(a, x, y, jx, jy, crunch)
	}
	zero := a.FromInt(0)
	return Iterate(a, zero, zero, x, y, crunch)
}

// Coord maps a pixel offset from the image center to a complex coordinate:
// origin + offset*scale. origin and scale are already in the back-end's
// representation, so the double-single split of the viewport happens once
// per frame and only the small offset is converted per pixel.
func Coord[T any, A Arith[T]](a A, origin, scale T, offset float64) T {
	return a.Add(origin, a.Mul(a.FromFloat64(offset), scale))
}

// Smooth returns a continuous escape value for r:
//
//	mu = n + 1 - log2(ln |z_n|)
//
// which removes the banding of integer counts. Non-escaped results return
// their count unchanged.
func Smooth(r Result) float64 {
	if !r.Escaped || r.Mag2 <= 1 {
		return float64(r.Count)
	}
	// ln|z| = ln(|z|^2)/2
	mu := float64(r.Count) + 1 - math.Log2(math.Log(r.Mag2)/2)
	return max(mu, 0)
}
