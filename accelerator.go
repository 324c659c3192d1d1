package fractal

import "errors"

// ErrFallbackToCPU indicates the accelerator cannot handle this launch.
// The Device transparently renders it on the CPU instead.
var ErrFallbackToCPU = errors.New("fractal: falling back to CPU rendering")

// Launch is one frame request handed to an Accelerator.
type Launch struct {
	Width, Height int

	// Params with Precision already resolved to a known back-end.
	Params Params

	// JitterX and JitterY are the sub-pixel offsets of this pass, in pixels.
	JitterX, JitterY float64
}

// Accelerator is an optional off-CPU back-end for the iteration kernel.
//
// An accelerator only counts iterations. The Device colors the counts and
// accumulates them exactly as on the CPU path, so an accelerated frame and
// a CPU frame use the same palette.
type Accelerator interface {
	// Name returns the accelerator name for logs.
	Name() string

	// CanAccelerate reports whether launches with the given precision and
	// coloring are supported. A fast check; no device work.
	CanAccelerate(p Precision, c Coloring) bool

	// Counts returns the escape count of every pixel in row-major order.
	// A count equal to the budget marks a point that did not escape.
	// Returns ErrFallbackToCPU if the launch cannot be accelerated.
	Counts(l Launch) ([]uint32, error)

	// Close releases accelerator resources.
	Close()
}

// DeviceProviderAware is an optional interface for accelerators that can
// share GPU resources with a host application.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}
