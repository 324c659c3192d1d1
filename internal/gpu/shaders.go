package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

// Embedded WGSL kernel sources.

//go:embed shaders/escape_f32.wgsl
var escapeF32ShaderSource string

//go:embed shaders/escape_ds.wgsl
var escapeDSShaderSource string

// Variant selects the numeric back-end of a kernel.
type Variant int

const (
	// VariantFloat iterates in native f32.
	VariantFloat Variant = iota

	// VariantDoubleSingle iterates in emulated double-single (vec2<f32>).
	VariantDoubleSingle

	variantCount
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantFloat:
		return "float"
	case VariantDoubleSingle:
		return "double-single"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

func (v Variant) source() string {
	if v == VariantDoubleSingle {
		return escapeDSShaderSource
	}
	return escapeF32ShaderSource
}

func (v Variant) label() string {
	if v == VariantDoubleSingle {
		return "escape_ds"
	}
	return "escape_f32"
}

// ValidateKernels compiles every embedded kernel to SPIR-V with naga and
// reports the first failure. It needs no GPU and catches WGSL errors before
// a device ever sees the source.
func ValidateKernels() error {
	for v := range variantCount {
		if _, err := CompileKernel(v); err != nil {
			return err
		}
	}
	return nil
}

// CompileKernel translates the WGSL for v to SPIR-V.
func CompileKernel(v Variant) ([]byte, error) {
	if v < 0 || v >= variantCount {
		return nil, fmt.Errorf("gpu: unknown kernel variant %d", int(v))
	}
	spirv, err := naga.Compile(v.source())
	if err != nil {
		return nil, fmt.Errorf("gpu: compile %s kernel: %w", v, err)
	}
	return spirv, nil
}
