package wide

// Lanes is the number of lanes in an F32x8.
const Lanes = 8

// F32x8 represents 8 float32 values for SIMD-style operations.
// Designed for Go compiler auto-vectorization with fixed-size arrays.
type F32x8 [Lanes]float32

// Mask8 is a per-lane bit mask; bit i corresponds to lane i.
type Mask8 uint8

// AllLanes is the mask with every lane set.
const AllLanes Mask8 = 0xFF

// FirstLanes returns a mask with the lowest n lanes set.
// n is clamped to [0, 8].
func FirstLanes(n int) Mask8 {
	if n <= 0 {
		return 0
	}
	if n >= Lanes {
		return AllLanes
	}
	return Mask8(1)<<uint(n) - 1
}

// Has reports whether lane i is set.
func (m Mask8) Has(i int) bool {
	return m&(1<<uint(i)) != 0
}

// SplatF32 creates F32x8 with all elements set to n.
// This is useful for initializing constants or broadcasting a single value.
func SplatF32(n float32) F32x8 {
	var result F32x8
	for i := range result {
		result[i] = n
	}
	return result
}

// Add performs element-wise addition.
// Returns a new F32x8 with v[i] + other[i] for each element.
func (v F32x8) Add(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = float32(v[i] + other[i])
	}
	return result
}

// Sub performs element-wise subtraction.
// Returns a new F32x8 with v[i] - other[i] for each element.
func (v F32x8) Sub(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = float32(v[i] - other[i])
	}
	return result
}

// Mul performs element-wise multiplication.
// Returns a new F32x8 with v[i] * other[i] for each element.
func (v F32x8) Mul(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = float32(v[i] * other[i])
	}
	return result
}

// Greater returns the mask of lanes whose value is strictly greater than limit.
// NaN lanes are never set.
func (v F32x8) Greater(limit float32) Mask8 {
	var m Mask8
	for i := range v {
		if v[i] > limit {
			m |= 1 << uint(i)
		}
	}
	return m
}

// Zero sets the lanes selected by m to 0.
func (v F32x8) Zero(m Mask8) F32x8 {
	for i := range v {
		if m.Has(i) {
			v[i] = 0
		}
	}
	return v
}
