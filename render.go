package fractal

import (
	"image/color"

	"github.com/gogpu/fractal/internal/escape"
	"github.com/gogpu/fractal/internal/palette"
	"github.com/gogpu/fractal/internal/parallel"
	"github.com/gogpu/fractal/internal/wide"
)

// frame is one launch: the output slots, the decomposed viewport and the
// coloring inputs. Tiles read it concurrently and write disjoint pixels.
type frame struct {
	dst []uint8
	vp  viewport

	precision Precision
	coloring  Coloring
	julia     bool
	crunch    int
	anim      int
	base      color.RGBA

	index int // accumulation pass
	blend blendFunc
}

func newFrame(dst []uint8, w, h int, p Params, jx, jy float64, blend blendFunc) *frame {
	return &frame{
		dst:       dst,
		vp:        newViewport(w, h, p, jx, jy),
		precision: p.Precision,
		coloring:  p.Coloring,
		julia:     p.Julia,
		crunch:    p.Crunch,
		anim:      p.AnimationFrame,
		base:      p.BaseColor,
		index:     p.Frame,
		blend:     blend,
	}
}

// store writes or blends the color of pixel (col, row).
func (f *frame) store(col, row int, c color.RGBA) {
	i := (row*f.vp.width + col) * 4
	px := f.dst[i : i+4 : i+4]
	if f.blend != nil {
		prev := color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
		c = f.blend(prev, c, f.index)
	}
	px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
}

func (f *frame) color(r escape.Result) color.RGBA {
	if f.coloring == ColoringSmooth {
		return palette.Smooth(escape.Smooth(r), r.Escaped, f.anim, f.base)
	}
	return palette.Classic(r.Count, f.crunch, f.anim, f.base)
}

// shade renders one tile on the CPU.
func (f *frame) shade(t parallel.Tile) {
	switch f.precision {
	case PrecisionDoubleSingle:
		shadeTile(f, escape.DS{}, f.vp.ds, t)
	case PrecisionDouble:
		shadeTile(f, escape.F64{}, f.vp.f64, t)
	default:
		if f.coloring == ColoringClassic {
			shadeTileLanes(f, f.vp.f32, t)
		} else {
			shadeTile(f, escape.F32{}, f.vp.f32, t)
		}
	}
}

// shadeCounts colors one tile from precomputed escape counts.
func (f *frame) shadeCounts(counts []uint32, t parallel.Tile) {
	x0, y0, tw, th := t.Bounds()
	for row := y0; row < y0+th; row++ {
		for col := x0; col < x0+tw; col++ {
			n := int(counts[row*f.vp.width+col])
			f.store(col, row, palette.Classic(n, f.crunch, f.anim, f.base))
		}
	}
}

// shadeTile runs the scalar kernel for every pixel of t.
func shadeTile[T any, A escape.Arith[T]](f *frame, a A, ax axes[T], t parallel.Tile) {
	x0, y0, tw, th := t.Bounds()
	for row := y0; row < y0+th; row++ {
		y := escape.Coord(a, ax.y, ax.scale, f.vp.offY(row))
		for col := x0; col < x0+tw; col++ {
			x := escape.Coord(a, ax.x, ax.scale, f.vp.offX(col))
			r := escape.Point(a, x, y, ax.jx, ax.jy, f.julia, f.crunch)
			f.store(col, row, f.color(r))
		}
	}
}

// shadeTileLanes runs the 8-lane float kernel over t, one row segment of
// up to eight pixels at a time. Counts match the scalar float kernel.
func shadeTileLanes(f *frame, ax axes[float32], t parallel.Tile) {
	a := escape.F32{}
	x0, y0, tw, th := t.Bounds()
	jx, jy := wide.SplatF32(ax.jx), wide.SplatF32(ax.jy)

	for row := y0; row < y0+th; row++ {
		py := wide.SplatF32(escape.Coord(a, ax.y, ax.scale, f.vp.offY(row)))
		for col := x0; col < x0+tw; col += wide.Lanes {
			n := min(wide.Lanes, x0+tw-col)
			var px wide.F32x8
			for i := range n {
				px[i] = escape.Coord(a, ax.x, ax.scale, f.vp.offX(col+i))
			}

			var counts [wide.Lanes]int32
			if f.julia {
				counts = escape.IterateLanes(px, py, jx, jy, wide.FirstLanes(n), f.crunch)
			} else {
				counts = escape.IterateLanes(wide.F32x8{}, wide.F32x8{}, px, py, wide.FirstLanes(n), f.crunch)
			}
			for i := range n {
				f.store(col+i, row, palette.Classic(int(counts[i]), f.crunch, f.anim, f.base))
			}
		}
	}
}

// probe evaluates a single pixel with the selected back-end.
func (f *frame) probe(col, row int) escape.Result {
	switch f.precision {
	case PrecisionDoubleSingle:
		return probePixel(f, escape.DS{}, f.vp.ds, col, row)
	case PrecisionDouble:
		return probePixel(f, escape.F64{}, f.vp.f64, col, row)
	default:
		return probePixel(f, escape.F32{}, f.vp.f32, col, row)
	}
}

func probePixel[T any, A escape.Arith[T]](f *frame, a A, ax axes[T], col, row int) escape.Result {
	x := escape.Coord(a, ax.x, ax.scale, f.vp.offX(col))
	y := escape.Coord(a, ax.y, ax.scale, f.vp.offY(row))
	return escape.Point(a, x, y, ax.jx, ax.jy, f.julia, f.crunch)
}
