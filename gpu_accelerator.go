// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fractal

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/fractal/internal/dsfloat"
	"github.com/gogpu/fractal/internal/gpu"
)

// GPUAccelerator runs the iteration kernel as a WGSL compute shader.
//
// Float and double-single launches with classic coloring are supported.
// WGSL has no f64, so PrecisionDouble always renders on the CPU; smooth
// coloring needs |z| at escape, which the kernel does not return.
type GPUAccelerator struct {
	mu     sync.Mutex
	kernel *gpu.Kernel
}

var (
	_ Accelerator         = (*GPUAccelerator)(nil)
	_ DeviceProviderAware = (*GPUAccelerator)(nil)
)

// NewGPUAccelerator opens a Vulkan device of its own and builds the compute
// pipelines.
func NewGPUAccelerator() (*GPUAccelerator, error) {
	k, err := gpu.New()
	if err != nil {
		return nil, err
	}
	return &GPUAccelerator{kernel: k}, nil
}

// ValidateGPUKernels compiles the embedded WGSL kernels to SPIR-V. It needs
// no GPU.
func ValidateGPUKernels() error {
	return gpu.ValidateKernels()
}

// Name implements Accelerator.
func (a *GPUAccelerator) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.kernel == nil {
		return "wgsl-escape"
	}
	return a.kernel.Name() + "/" + a.kernel.AdapterName()
}

// CanAccelerate implements Accelerator.
func (a *GPUAccelerator) CanAccelerate(p Precision, c Coloring) bool {
	if c != ColoringClassic {
		return false
	}
	if p != PrecisionFloat && p != PrecisionDoubleSingle {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.kernel != nil && a.kernel.Ready()
}

// Counts implements Accelerator.
func (a *GPUAccelerator) Counts(l Launch) ([]uint32, error) {
	if !a.CanAccelerate(l.Params.Precision, l.Params.Coloring) {
		return nil, ErrFallbackToCPU
	}
	variant := gpu.VariantFloat
	if l.Params.Precision == PrecisionDoubleSingle {
		variant = gpu.VariantDoubleSingle
	}

	p := l.Params
	a.mu.Lock()
	k := a.kernel
	a.mu.Unlock()
	if k == nil {
		return nil, ErrFallbackToCPU
	}
	return k.Counts(gpu.Launch{
		Width:   l.Width,
		Height:  l.Height,
		Crunch:  p.Crunch,
		Julia:   p.Julia,
		Variant: variant,
		OriginX: dsfloat.Split(p.X),
		OriginY: dsfloat.Split(p.Y),
		Scale:   dsfloat.Split(p.Scale),
		JuliaX:  dsfloat.Split(p.JuliaX),
		JuliaY:  dsfloat.Split(p.JuliaY),
		JitterX: float32(l.JitterX),
		JitterY: float32(l.JitterY),
	})
}

// SetDeviceProvider rebuilds the kernel on a device shared by the host.
// The provider must implement HalDevice() any and HalQueue() any.
func (a *GPUAccelerator) SetDeviceProvider(provider any) error {
	k, err := gpu.NewShared(provider)
	if err != nil {
		return fmt.Errorf("fractal: shared GPU device: %w", err)
	}
	a.mu.Lock()
	old := a.kernel
	a.kernel = k
	a.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// SetLogger routes kernel diagnostics to l.
func (a *GPUAccelerator) SetLogger(l *slog.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.kernel != nil {
		a.kernel.SetLogger(l)
	}
}

// Close implements Accelerator.
func (a *GPUAccelerator) Close() {
	a.mu.Lock()
	k := a.kernel
	a.kernel = nil
	a.mu.Unlock()
	if k != nil {
		k.Close()
	}
}
