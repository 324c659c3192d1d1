package fractal

import (
	"fmt"
	"image/color"
	"math"
)

// Coloring selects how escape results become colors.
type Coloring int

const (
	// ColoringClassic multiplies the integer escape count into the base
	// color, producing hard-edged repeating bands.
	ColoringClassic Coloring = iota

	// ColoringSmooth uses the continuous escape value, so bands shade
	// into one another.
	ColoringSmooth
)

// String returns the coloring name.
func (c Coloring) String() string {
	switch c {
	case ColoringClassic:
		return "classic"
	case ColoringSmooth:
		return "smooth"
	default:
		return fmt.Sprintf("Coloring(%d)", int(c))
	}
}

// MaxCrunch is the largest accepted iteration budget.
const MaxCrunch = math.MaxInt32

// Params are the render parameters of one launch. A launch reads them but
// never modifies them.
type Params struct {
	// X and Y are the complex coordinate of the image center.
	X, Y float64

	// JuliaX and JuliaY are the Julia constant c. Ignored unless Julia.
	JuliaX, JuliaY float64

	// Scale is the distance in the complex plane between adjacent pixels.
	Scale float64

	// Crunch is the iteration budget. Points still bounded after Crunch
	// iterations are treated as members of the set.
	Crunch int

	// BaseColor is multiplied by the escape count to produce the palette.
	// Its alpha is ignored; output pixels are opaque.
	BaseColor color.RGBA

	// Frame is the accumulation pass index. Accumulate starts a new running
	// mean when Frame is 0 and blends with weight 1/(Frame+1) otherwise.
	Frame int

	// AnimationFrame shifts the palette; advancing it cycles the bands.
	AnimationFrame int

	// Julia selects Julia mode: the pixel is z0 and c is (JuliaX, JuliaY).
	// Otherwise the pixel is c and z0 is 0.
	Julia bool

	Precision Precision
	Coloring  Coloring
}

// DefaultParams returns the classic full view of the Mandelbrot set for a
// 512 pixel wide image.
func DefaultParams() Params {
	return Params{
		X:         -0.5,
		Y:         0,
		Scale:     3.2 / 512,
		Crunch:    512,
		BaseColor: color.RGBA{R: 3, G: 5, B: 7, A: 255},
		Precision: PrecisionFloat,
		Coloring:  ColoringClassic,
	}
}

// Validate reports parameters a launch cannot evaluate. An unknown
// Precision is not an error; it renders in float precision.
func (p Params) Validate() error {
	switch {
	case p.Crunch < 0 || p.Crunch > MaxCrunch:
		return fmt.Errorf("%w: iteration budget %d", ErrInvalidParams, p.Crunch)
	case math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) || p.Scale <= 0:
		return fmt.Errorf("%w: scale %v", ErrInvalidParams, p.Scale)
	case !finite(p.X) || !finite(p.Y):
		return fmt.Errorf("%w: origin (%v, %v)", ErrInvalidParams, p.X, p.Y)
	case p.Julia && (!finite(p.JuliaX) || !finite(p.JuliaY)):
		return fmt.Errorf("%w: julia constant (%v, %v)", ErrInvalidParams, p.JuliaX, p.JuliaY)
	case p.Coloring != ColoringClassic && p.Coloring != ColoringSmooth:
		return fmt.Errorf("%w: coloring %v", ErrInvalidParams, p.Coloring)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Zoom returns p with Scale divided by factor, keeping the image center.
func (p Params) Zoom(factor float64) Params {
	p.Scale /= factor
	return p
}

// Pan returns p with the center moved by (dx, dy) pixels.
func (p Params) Pan(dx, dy float64) Params {
	p.X += dx * p.Scale
	p.Y += dy * p.Scale
	return p
}

// PixelCoord returns the complex coordinate of pixel (col, row) in a
// w x h image, computed in float64.
func (p Params) PixelCoord(w, h, col, row int) (x, y float64) {
	return p.X + float64(col-w/2)*p.Scale, p.Y + float64(row-h/2)*p.Scale
}
