package fractal

import (
	"fmt"
	"strconv"
	"strings"
)

// Precision selects the numeric back-end of the iteration kernel.
type Precision int

const (
	// PrecisionFloat iterates in float32. Fastest; pixels become
	// indistinguishable once Scale drops below about 1e-7 of the coordinate.
	PrecisionFloat Precision = iota

	// PrecisionDoubleSingle iterates in double-single arithmetic: an
	// unevaluated float32 pair with about 46 bits of mantissa.
	PrecisionDoubleSingle

	// PrecisionDouble iterates in native float64.
	PrecisionDouble
)

// String returns the precision name.
func (p Precision) String() string {
	switch p {
	case PrecisionFloat:
		return "float"
	case PrecisionDoubleSingle:
		return "double-single"
	case PrecisionDouble:
		return "double"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// Valid reports whether p names a known back-end.
func (p Precision) Valid() bool {
	return p >= PrecisionFloat && p <= PrecisionDouble
}

// ParsePrecision parses a precision name. It accepts "float", "ds",
// "double-single", "double" and the numeric modes 0 to 2.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float", "f32", "single":
		return PrecisionFloat, nil
	case "ds", "double-single", "doublesingle":
		return PrecisionDoubleSingle, nil
	case "double", "f64":
		return PrecisionDouble, nil
	}
	if n, err := strconv.Atoi(s); err == nil && Precision(n).Valid() {
		return Precision(n), nil
	}
	return PrecisionFloat, fmt.Errorf("%w: unknown precision %q", ErrInvalidParams, s)
}
