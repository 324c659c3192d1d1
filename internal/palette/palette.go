// Package palette converts escape results into pixels.
//
// All mappings are pure functions of their arguments: they read nothing but
// their parameters and return one color.RGBA, so any number of pixel
// workers can call them concurrently.
package palette

import (
	"image/color"
	"math"

	srgb "github.com/gogpu/fractal/internal/color"
)

// Black is the color of points that never escaped.
var Black = color.RGBA{A: 0xFF}

// Classic maps an integer escape count to a color by multiplying the count,
// shifted by the animation frame, with each channel of base. Products wrap
// modulo 256, which is what produces the characteristic repeating bands;
// changing animationFrame cycles them.
//
// A count equal to crunch means the point did not escape and maps to Black.
func Classic(count, crunch, animationFrame int, base color.RGBA) color.RGBA {
	if count >= crunch {
		return Black
	}
	m := count + animationFrame
	return color.RGBA{
		R: uint8(m * int(base.R)), //nolint:gosec // wrap-around is the palette
		G: uint8(m * int(base.G)), //nolint:gosec // wrap-around is the palette
		B: uint8(m * int(base.B)), //nolint:gosec // wrap-around is the palette
		A: 0xFF,
	}
}

// Smooth is the continuous counterpart of Classic. mu is a smooth escape
// value (see escape.Smooth); bands keep the Classic period but their
// interiors shade continuously instead of stepping per iteration.
func Smooth(mu float64, escaped bool, animationFrame int, base color.RGBA) color.RGBA {
	if !escaped {
		return Black
	}
	v := mu + float64(animationFrame)
	return color.RGBA{
		R: wrap(v * float64(base.R)),
		G: wrap(v * float64(base.G)),
		B: wrap(v * float64(base.B)),
		A: 0xFF,
	}
}

// wrap reduces x modulo 256 into a channel value.
func wrap(x float64) uint8 {
	r := math.Mod(x, 256)
	if r < 0 {
		r += 256
	}
	return uint8(r) //nolint:gosec // r is in [0, 256)
}

// Blend folds cur into prev as the running mean of frame+1 samples:
//
//	(prev*frame + cur + (frame+1)/2) / (frame+1)
//
// per channel, rounding to nearest. frame <= 0 starts a new sequence and
// returns cur.
func Blend(prev, cur color.RGBA, frame int) color.RGBA {
	if frame <= 0 {
		return cur
	}
	return color.RGBA{
		R: mean(prev.R, cur.R, frame),
		G: mean(prev.G, cur.G, frame),
		B: mean(prev.B, cur.B, frame),
		A: mean(prev.A, cur.A, frame),
	}
}

func mean(prev, cur uint8, frame int) uint8 {
	f1 := frame + 1
	return uint8((int(prev)*frame + int(cur) + f1/2) / f1) //nolint:gosec // a mean of bytes is a byte
}

// BlendLinear is Blend performed in linear light. Averaging sRGB-encoded
// bytes darkens edges between bright and dark bands; averaging linear
// intensities does not. Alpha is already linear and blends as in Blend.
func BlendLinear(prev, cur color.RGBA, frame int) color.RGBA {
	if frame <= 0 {
		return cur
	}
	w := 1 / float32(frame+1)
	ch := func(p, c uint8) uint8 {
		lp, lc := srgb.ToLinear(p), srgb.ToLinear(c)
		return srgb.FromLinear(lp + (lc-lp)*w)
	}
	return color.RGBA{
		R: ch(prev.R, cur.R),
		G: ch(prev.G, cur.G),
		B: ch(prev.B, cur.B),
		A: mean(prev.A, cur.A, frame),
	}
}
