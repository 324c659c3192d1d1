package escape

import "github.com/gogpu/fractal/internal/wide"

// IterateLanes runs the single precision recurrence for eight points in
// lockstep. Lanes outside active are ignored and report 0.
//
// Lanes retire individually: once a lane escapes, its state is pinned at
// the fixed point z = c = 0 so it neither overflows nor affects the loop,
// and the group stops as soon as no active lane is left. Each lane's count
// is bit-identical to Iterate with F32 for the same inputs.
func IterateLanes(zx, zy, cx, cy wide.F32x8, active wide.Mask8, crunch int) [wide.Lanes]int32 {
	var counts [wide.Lanes]int32

	idle := ^active
	zx, zy = zx.Zero(idle), zy.Zero(idle)
	cx, cy = cx.Zero(idle), cy.Zero(idle)

	live := active
	for i := 0; i < crunch && live != 0; i++ {
		x2 := zx.Mul(zx)
		y2 := zy.Mul(zy)

		if out := x2.Add(y2).Greater(EscapeRadiusSq) & live; out != 0 {
			for l := 0; l < wide.Lanes; l++ {
				if out.Has(l) {
					counts[l] = int32(i) //nolint:gosec // i < crunch, which fits int32 after Params validation
				}
			}
			live &^= out
			zx, zy = zx.Zero(out), zy.Zero(out)
			cx, cy = cx.Zero(out), cy.Zero(out)
			x2, y2 = x2.Zero(out), y2.Zero(out)
		}

		zy = zx.Add(zx).Mul(zy).Add(cy)
		zx = x2.Sub(y2).Add(cx)
	}

	if crunch > 0 {
		for l := 0; l < wide.Lanes; l++ {
			if live.Has(l) {
				counts[l] = int32(crunch) //nolint:gosec // bounded by Params validation
			}
		}
	}
	return counts
}
