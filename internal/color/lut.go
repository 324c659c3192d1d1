// Package color converts between sRGB-encoded channel bytes and linear
// light using lookup tables.
//
// Accumulation in linear light decodes and re-encodes every channel of
// every pixel on every pass, so both directions are table lookups:
// 256 entries for decoding, 4096 for encoding (12 bits of linear
// intensity land on the right byte everywhere on the curve).
package color

import "math"

var (
	// toLinearLUT maps an sRGB byte to linear intensity in [0,1].
	toLinearLUT [256]float32

	// fromLinearLUT maps 12-bit linear intensity to an sRGB byte.
	fromLinearLUT [4096]uint8
)

func init() {
	for i := range toLinearLUT {
		toLinearLUT[i] = float32(Decode(float64(i) / 255))
	}
	for i := range fromLinearLUT {
		fromLinearLUT[i] = Quantize(Encode(float64(i) / 4095))
	}
}

// Decode is the sRGB electro-optical transfer function. s and the result
// are in [0,1].
func Decode(s float64) float64 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// Encode is the inverse of Decode.
func Encode(l float64) float64 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*math.Pow(l, 1/2.4) - 0.055
}

// Quantize rounds an encoded value in [0,1] to a byte, clamping outside.
func Quantize(s float64) uint8 {
	v := int(s*255 + 0.5)
	return uint8(min(max(v, 0), 255)) //nolint:gosec // clamped to [0,255]
}

// ToLinear decodes an sRGB channel byte.
//
//	ToLinear(128) // about 0.2159, not 0.5
func ToLinear(s uint8) float32 {
	return toLinearLUT[s]
}

// FromLinear encodes linear intensity to an sRGB channel byte. Input
// outside [0,1] is clamped; NaN encodes to 0.
//
//	FromLinear(0.5) // 188, not 128
func FromLinear(l float32) uint8 {
	if !(l > 0) {
		return 0
	}
	if l >= 1 {
		return 255
	}
	return fromLinearLUT[int(l*4095+0.5)]
}
