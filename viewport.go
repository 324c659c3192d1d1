package fractal

import (
	"github.com/gogpu/fractal/internal/dsfloat"
	"github.com/gogpu/fractal/internal/escape"
)

// axes is the viewport in one back-end's representation.
type axes[T any] struct {
	x, y   T
	scale  T
	jx, jy T
}

func decompose[T any, A escape.Arith[T]](a A, p Params) axes[T] {
	return axes[T]{
		x:     a.FromFloat64(p.X),
		y:     a.FromFloat64(p.Y),
		scale: a.FromFloat64(p.Scale),
		jx:    a.FromFloat64(p.JuliaX),
		jy:    a.FromFloat64(p.JuliaY),
	}
}

// viewport is the per-launch decomposition of Params. It is built once
// before any tile runs and shared read-only by all of them; in
// double-single mode this is where the float64 origin and scale are split,
// so no pixel ever repeats the split.
type viewport struct {
	width, height    int
	halfW, halfH     int
	jitterX, jitterY float64

	// Only the axes of the selected precision are populated.
	f32 axes[float32]
	ds  axes[dsfloat.Float]
	f64 axes[float64]
}

func newViewport(w, h int, p Params, jx, jy float64) viewport {
	vp := viewport{
		width:   w,
		height:  h,
		halfW:   w / 2,
		halfH:   h / 2,
		jitterX: jx,
		jitterY: jy,
	}
	switch p.Precision {
	case PrecisionDoubleSingle:
		vp.ds = decompose(escape.DS{}, p)
	case PrecisionDouble:
		vp.f64 = decompose(escape.F64{}, p)
	default:
		vp.f32 = decompose(escape.F32{}, p)
	}
	return vp
}

// offX is the horizontal distance in pixels from the image center to the
// sample point of column col.
func (vp *viewport) offX(col int) float64 {
	return float64(col-vp.halfW) + vp.jitterX
}

// offY is the vertical counterpart of offX.
func (vp *viewport) offY(row int) float64 {
	return float64(row-vp.halfH) + vp.jitterY
}
