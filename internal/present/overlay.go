package present

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const overlayPad = 4

var (
	overlayText    = color.RGBA{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF}
	overlayBacking = color.RGBA{A: 0xA0}
)

// DrawOverlay writes lines into the top-left corner of dst on a
// translucent black box. Lines that do not fit are clipped.
func DrawOverlay(dst draw.Image, lines []string) {
	if len(lines) == 0 {
		return
	}
	face := basicfont.Face7x13
	metrics := face.Metrics()
	lineH := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(overlayText),
		Face: face,
	}

	width := 0
	for _, l := range lines {
		width = max(width, drawer.MeasureString(l).Ceil())
	}

	b := dst.Bounds()
	box := image.Rect(b.Min.X, b.Min.Y, b.Min.X+width+2*overlayPad, b.Min.Y+len(lines)*lineH+2*overlayPad).Intersect(b)
	draw.Draw(dst, box, image.NewUniform(overlayBacking), image.Point{}, draw.Over)

	for i, l := range lines {
		drawer.Dot = fixed.P(b.Min.X+overlayPad, b.Min.Y+overlayPad+ascent+i*lineH)
		drawer.DrawString(l)
	}
}
