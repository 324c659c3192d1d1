package fractal

import "log/slog"

// DeviceOption configures a Device during creation.
//
// Example:
//
//	// CPU rendering on all cores
//	dev := fractal.NewDevice()
//
//	// Share the host's GPU device for the compute kernels
//	dev := fractal.NewDevice(fractal.WithDeviceHandle(app.DeviceHandle()))
type DeviceOption func(*deviceOptions)

// deviceOptions holds optional configuration for Device creation.
type deviceOptions struct {
	workers int
	handle  DeviceHandle
	accel   Accelerator
	linear  bool
	logger  *slog.Logger
}

// defaultOptions returns the default device options.
func defaultOptions() deviceOptions {
	return deviceOptions{
		workers: 0, // GOMAXPROCS
	}
}

// WithWorkers sets the number of CPU workers. Zero or negative selects
// GOMAXPROCS.
func WithWorkers(n int) DeviceOption {
	return func(o *deviceOptions) {
		o.workers = n
	}
}

// WithDeviceHandle passes the host application's GPU device. If the handle
// exposes the wgpu HAL, the Device renders float and double-single frames
// with the WGSL compute kernels.
func WithDeviceHandle(h DeviceHandle) DeviceOption {
	return func(o *deviceOptions) {
		o.handle = h
	}
}

// WithAccelerator installs an accelerator directly. It takes precedence
// over WithDeviceHandle. The Device does not close an accelerator it was
// given.
func WithAccelerator(a Accelerator) DeviceOption {
	return func(o *deviceOptions) {
		o.accel = a
	}
}

// WithLinearAccumulation makes Accumulate average in linear light instead
// of on sRGB-encoded bytes.
func WithLinearAccumulation() DeviceOption {
	return func(o *deviceOptions) {
		o.linear = true
	}
}

// WithLogger sets a logger for this Device only. Without it the Device
// logs through the package logger (see SetLogger).
func WithLogger(l *slog.Logger) DeviceOption {
	return func(o *deviceOptions) {
		o.logger = l
	}
}
