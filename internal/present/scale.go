package present

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Downsample reduces src to w x h. Catmull-Rom averages the supersampled
// pixels; when the sizes already match src is returned unchanged.
func Downsample(src *image.RGBA, w, h int) *image.RGBA {
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Upscale enlarges src to w x h with nearest-neighbour sampling, keeping
// hard pixel edges for preview frames rendered at reduced resolution.
func Upscale(src *image.RGBA, w, h int) *image.RGBA {
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
