package fractal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/fractal/internal/escape"
	"github.com/gogpu/fractal/internal/parallel"
)

// Device is the rendering context: it owns the CPU worker pool, the
// logger and an optional accelerator.
//
// A Device is safe for concurrent use; launches may run in parallel and
// share the pool. Close waits for running launches to finish.
type Device struct {
	mu     sync.RWMutex
	closed bool

	pool      *parallel.WorkerPool
	accel     Accelerator
	ownsAccel bool
	handle    DeviceHandle
	linear    bool
	logger    *slog.Logger
}

// NewDevice creates a Device. Without options it renders on the CPU with
// GOMAXPROCS workers.
func NewDevice(opts ...DeviceOption) *Device {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := &Device{
		pool:   parallel.NewWorkerPool(o.workers),
		accel:  o.accel,
		handle: o.handle,
		linear: o.linear,
		logger: o.logger,
	}

	if d.accel == nil && o.handle != nil {
		d.attachSharedGPU(o.handle)
	}
	if d.accel != nil {
		propagateLogger(d.accel, d.log())
		d.log().Info("fractal: accelerator selected", "name", d.accel.Name())
	}
	return d
}

// attachSharedGPU builds the compute kernels on the host's device, if the
// handle exposes one.
func (d *Device) attachSharedGPU(h DeviceHandle) {
	if _, isNull := h.(NullDeviceHandle); isNull {
		return
	}
	a := &GPUAccelerator{}
	if err := a.SetDeviceProvider(h); err != nil {
		d.log().Debug("fractal: device handle has no usable GPU, rendering on CPU", "err", err)
		return
	}
	d.accel = a
	d.ownsAccel = true
}

// log returns the device logger, falling back to the package logger.
func (d *Device) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return Logger()
}

// Workers returns the number of CPU workers.
func (d *Device) Workers() int {
	return d.pool.Workers()
}

// Accelerator returns the active accelerator, or nil for CPU-only devices.
func (d *Device) Accelerator() Accelerator {
	return d.accel
}

// DeviceHandle returns the handle passed with WithDeviceHandle, or nil.
func (d *Device) DeviceHandle() DeviceHandle {
	return d.handle
}

// Render writes one frame into dst. Every pixel is overwritten; Frame is
// ignored and each pixel is sampled at its center.
func (d *Device) Render(dst *Pixmap, p Params) error {
	return d.RenderRGBA(dst.Data(), dst.Width(), dst.Height(), p, false)
}

// Accumulate renders one pass of temporal supersampling into dst.
//
// With p.Frame == 0 the pass overwrites dst and starts a new sequence.
// Pass n > 0 samples each pixel at the n-th Halton jitter offset and blends
// it in with weight 1/(n+1), so after n+1 passes each pixel holds the mean
// of its n+1 samples. dst must hold the previous pass of the same sequence.
//
// The pass index is Frame, not AnimationFrame. AnimationFrame only shifts
// the palette; a caller that advances it changes the image and should
// restart the sequence at Frame 0, as it would after a pan or zoom.
func (d *Device) Accumulate(dst *Pixmap, p Params) error {
	return d.RenderRGBA(dst.Data(), dst.Width(), dst.Height(), p, true)
}

// RenderRGBA renders into a caller-owned buffer of w*h RGBA pixels,
// row-major with no padding. accumulate selects Accumulate semantics.
//
// On error the contents of dst are unspecified.
func (d *Device) RenderRGBA(dst []uint8, w, h int, p Params, accumulate bool) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDeviceClosed
	}
	if err := checkTarget(dst, w, h); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	p.Precision = d.resolvePrecision(p.Precision)

	start := time.Now()
	jx, jy := jitter(accumulate, p.Frame)
	f := newFrame(dst, w, h, p, jx, jy, d.blender(accumulate, p.Frame))
	grid := parallel.NewTileGrid(w, h)

	backend := "cpu"
	shade := f.shade
	if counts := d.accelerate(w, h, p, jx, jy); counts != nil {
		backend = d.accel.Name()
		shade = func(t parallel.Tile) { f.shadeCounts(counts, t) }
	}
	if err := d.runTiles(grid, shade); err != nil {
		return err
	}

	if log := d.log(); log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("fractal: launch",
			"backend", backend,
			"precision", p.Precision,
			"coloring", p.Coloring,
			"size", fmt.Sprintf("%dx%d", w, h),
			"tiles", fmt.Sprintf("%dx%d", grid.TilesX(), grid.TilesY()),
			"workers", d.pool.Workers(),
			"frame", p.Frame,
			"elapsed", time.Since(start))
	}
	return nil
}

// runTiles executes fn for every tile of grid as one unit.
func (d *Device) runTiles(grid *parallel.TileGrid, fn func(parallel.Tile)) error {
	if err := d.pool.Run(grid.Work(fn)); err != nil {
		return fmt.Errorf("%w: %w", ErrLaunchFailed, err)
	}
	return nil
}

// accelerate runs the launch on the accelerator. It returns nil when the
// CPU path must run instead.
func (d *Device) accelerate(w, h int, p Params, jx, jy float64) []uint32 {
	if d.accel == nil || !d.accel.CanAccelerate(p.Precision, p.Coloring) {
		return nil
	}
	counts, err := d.accel.Counts(Launch{Width: w, Height: h, Params: p, JitterX: jx, JitterY: jy})
	switch {
	case errors.Is(err, ErrFallbackToCPU):
		return nil
	case err != nil:
		d.log().Warn("fractal: accelerator failed, rendering on CPU",
			"name", d.accel.Name(), "err", err)
		return nil
	case len(counts) != w*h:
		d.log().Warn("fractal: accelerator returned wrong pixel count, rendering on CPU",
			"name", d.accel.Name(), "got", len(counts), "want", w*h)
		return nil
	}
	return counts
}

// Probe evaluates the single pixel (col, row) of a w x h image with the
// selected precision and returns the raw escape result.
func (d *Device) Probe(w, h, col, row int, p Params) (escape.Result, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return escape.Result{}, ErrDeviceClosed
	}
	if err := checkDimensions(w, h); err != nil {
		return escape.Result{}, err
	}
	if col < 0 || col >= w || row < 0 || row >= h {
		return escape.Result{}, fmt.Errorf("%w: pixel (%d, %d) outside %dx%d", ErrInvalidDimensions, col, row, w, h)
	}
	if err := p.Validate(); err != nil {
		return escape.Result{}, err
	}
	p.Precision = d.resolvePrecision(p.Precision)
	f := newFrame(nil, w, h, p, 0, 0, nil)
	return f.probe(col, row), nil
}

// resolvePrecision maps an unknown precision to PrecisionFloat.
func (d *Device) resolvePrecision(p Precision) Precision {
	if p.Valid() {
		return p
	}
	d.log().Warn("fractal: unknown precision, rendering in float", "precision", int(p))
	return PrecisionFloat
}

// Close stops the worker pool and releases an accelerator the Device
// created. Close waits for running launches and is safe to call more than
// once.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.pool.Close()
	if d.ownsAccel && d.accel != nil {
		d.accel.Close()
	}
}

func checkDimensions(w, h int) error {
	if !validSize(w, h) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	return nil
}

func checkTarget(dst []uint8, w, h int) error {
	if err := checkDimensions(w, h); err != nil {
		return err
	}
	if want := w * h * 4; len(dst) != want {
		return fmt.Errorf("%w: %d bytes for %dx%d, want %d", ErrBufferSize, len(dst), w, h, want)
	}
	return nil
}

var (
	defaultDevicePtr  atomic.Pointer[Device]
	defaultDeviceOnce sync.Once
)

// defaultDevice returns the shared CPU device used by the package-level
// render functions, creating it on first use.
func defaultDevice() *Device {
	defaultDeviceOnce.Do(func() {
		defaultDevicePtr.Store(NewDevice())
	})
	return defaultDevicePtr.Load()
}

// Render renders one frame into dst on the shared default device.
func Render(dst *Pixmap, p Params) error {
	return defaultDevice().Render(dst, p)
}

// Accumulate renders one accumulation pass into dst on the shared default
// device. The pass index is p.Frame; see Device.Accumulate.
func Accumulate(dst *Pixmap, p Params) error {
	return defaultDevice().Accumulate(dst, p)
}
