package fractal

import (
	"image/color"

	"github.com/gogpu/fractal/internal/palette"
)

// blendFunc folds a new sample into the accumulated pixel.
type blendFunc func(prev, cur color.RGBA, frame int) color.RGBA

// blender returns the accumulation blend for a launch, or nil when the
// launch overwrites its pixels: single-shot renders and the first pass of
// every accumulation sequence.
func (d *Device) blender(accumulate bool, frame int) blendFunc {
	if !accumulate || frame <= 0 {
		return nil
	}
	if d.linear {
		return palette.BlendLinear
	}
	return palette.Blend
}

// jitter returns the sub-pixel sample offset of accumulation pass frame.
//
// Pass 0 samples the pixel center. Later passes walk the (2, 3) Halton
// sequence, centered on the pixel, so N passes spread N low-discrepancy
// samples over the pixel area.
func jitter(accumulate bool, frame int) (jx, jy float64) {
	if !accumulate || frame <= 0 {
		return 0, 0
	}
	return halton(frame, 2) - 0.5, halton(frame, 3) - 0.5
}

// halton returns element i of the van der Corput sequence in the given base.
func halton(i, base int) float64 {
	var r float64
	f := 1.0
	for ; i > 0; i /= base {
		f /= float64(base)
		r += f * float64(i%base)
	}
	return r
}
