package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/fractal/internal/dsfloat"
)

// WorkgroupSize is the edge length of a compute workgroup. One workgroup
// covers one 16x16 tile of the image.
const WorkgroupSize = 16

// paramsSize is the size of the WGSL Params uniform: four u32 followed by
// six vec2<f32>.
const paramsSize = 64

// Launch describes one kernel dispatch. The viewport is pre-split into
// double-single pairs; the float variant reads only the high words.
type Launch struct {
	Width, Height int
	Crunch        int
	Julia         bool
	Variant       Variant

	OriginX, OriginY dsfloat.Float
	Scale            dsfloat.Float
	JuliaX, JuliaY   dsfloat.Float

	// Sub-pixel jitter added to every pixel offset.
	JitterX, JitterY float32
}

// Workgroups returns the dispatch grid size: one workgroup per tile.
func (l Launch) Workgroups() (x, y uint32) {
	return uint32((l.Width + WorkgroupSize - 1) / WorkgroupSize), //nolint:gosec // validated positive
		uint32((l.Height + WorkgroupSize - 1) / WorkgroupSize) //nolint:gosec // validated positive
}

func (l Launch) validate() error {
	if l.Width <= 0 || l.Height <= 0 || l.Width > math.MaxInt/4/l.Height {
		return fmt.Errorf("gpu: invalid launch size %dx%d", l.Width, l.Height)
	}
	if l.Crunch < 0 || int64(l.Crunch) > math.MaxUint32 {
		return fmt.Errorf("gpu: iteration budget %d out of range", l.Crunch)
	}
	if l.Variant < 0 || l.Variant >= variantCount {
		return fmt.Errorf("gpu: unknown kernel variant %d", int(l.Variant))
	}
	return nil
}

// uniformBytes encodes l in the std140 layout of the WGSL Params struct.
func (l Launch) uniformBytes() []byte {
	buf := make([]byte, paramsSize)
	julia := uint32(0)
	if l.Julia {
		julia = 1
	}
	binary.LittleEndian.PutUint32(buf[0:], uint32(l.Width))  //nolint:gosec // validated
	binary.LittleEndian.PutUint32(buf[4:], uint32(l.Height)) //nolint:gosec // validated
	binary.LittleEndian.PutUint32(buf[8:], uint32(l.Crunch)) //nolint:gosec // validated
	binary.LittleEndian.PutUint32(buf[12:], julia)
	putDS(buf[16:], l.OriginX)
	putDS(buf[24:], l.OriginY)
	putDS(buf[32:], l.Scale)
	putDS(buf[40:], l.JuliaX)
	putDS(buf[48:], l.JuliaY)
	putDS(buf[56:], dsfloat.Float{Hi: l.JitterX, Lo: l.JitterY})
	return buf
}

func putDS(buf []byte, f dsfloat.Float) {
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(f.Hi))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(f.Lo))
}

// decodeCounts unpacks the kernel's u32 output into dst.
func decodeCounts(packed []byte, dst []uint32) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(packed[i*4:])
	}
}
