package fractal

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gogpu/fractal/internal/palette"
)

// mockAccelerator returns count i%7 for pixel i.
type mockAccelerator struct {
	name  string
	can   bool
	err   error
	short bool

	calls  atomic.Int32
	closed atomic.Bool

	mu     sync.Mutex
	logger *slog.Logger
	last   Launch
}

func (m *mockAccelerator) Name() string { return m.name }

func (m *mockAccelerator) CanAccelerate(Precision, Coloring) bool { return m.can }

func (m *mockAccelerator) Counts(l Launch) ([]uint32, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.last = l
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	n := l.Width * l.Height
	if m.short {
		n--
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i % 7) //nolint:gosec // small
	}
	return out, nil
}

func (m *mockAccelerator) Close() { m.closed.Store(true) }

func (m *mockAccelerator) SetLogger(l *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = l
}

func TestDevice_AcceleratorCounts(t *testing.T) {
	mock := &mockAccelerator{name: "mock", can: true}
	dev := NewDevice(WithAccelerator(mock), WithWorkers(2))
	defer dev.Close()

	p := DefaultParams()
	p.AnimationFrame = 3
	pm := NewPixmap(37, 21)
	if err := dev.Render(pm, p); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if mock.calls.Load() != 1 {
		t.Fatalf("Counts called %d times, want 1", mock.calls.Load())
	}
	for y := range pm.Height() {
		for x := range pm.Width() {
			want := palette.Classic((y*pm.Width()+x)%7, p.Crunch, p.AnimationFrame, p.BaseColor)
			if got := pm.Pixel(x, y); got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestDevice_AcceleratorReceivesJitter(t *testing.T) {
	mock := &mockAccelerator{name: "mock", can: true}
	dev := NewDevice(WithAccelerator(mock))
	defer dev.Close()

	p := DefaultParams()
	p.Frame = 3
	if err := dev.Accumulate(NewPixmap(16, 16), p); err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}
	wantX, wantY := jitter(true, 3)
	if mock.last.JitterX != wantX || mock.last.JitterY != wantY {
		t.Errorf("launch jitter = (%v, %v), want (%v, %v)", mock.last.JitterX, mock.last.JitterY, wantX, wantY)
	}
	if mock.last.Width != 16 || mock.last.Height != 16 {
		t.Errorf("launch size = %dx%d, want 16x16", mock.last.Width, mock.last.Height)
	}
}

func TestDevice_AcceleratorFallback(t *testing.T) {
	tests := []struct {
		name    string
		mock    *mockAccelerator
		called  bool
		warning string
	}{
		{"cannot accelerate", &mockAccelerator{name: "m"}, false, ""},
		{"fallback sentinel", &mockAccelerator{name: "m", can: true, err: ErrFallbackToCPU}, true, ""},
		{"device error", &mockAccelerator{name: "m", can: true, err: errors.New("device lost")}, true, "accelerator failed"},
		{"short result", &mockAccelerator{name: "m", can: true, short: true}, true, "wrong pixel count"},
	}

	p := DefaultParams()
	cpu := NewPixmap(40, 24)
	ref := NewDevice(WithWorkers(2))
	defer ref.Close()
	if err := ref.Render(cpu, p); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
			dev := NewDevice(WithAccelerator(tt.mock), WithLogger(logger), WithWorkers(2))
			defer dev.Close()

			pm := NewPixmap(40, 24)
			if err := dev.Render(pm, p); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if called := tt.mock.calls.Load() > 0; called != tt.called {
				t.Errorf("Counts called = %v, want %v", called, tt.called)
			}
			if !bytes.Equal(pm.Data(), cpu.Data()) {
				t.Error("fallback render differs from the CPU render")
			}
			if tt.warning == "" {
				if buf.Len() != 0 {
					t.Errorf("unexpected warning: %s", buf.String())
				}
			} else if !strings.Contains(buf.String(), tt.warning) {
				t.Errorf("log = %q, want it to contain %q", buf.String(), tt.warning)
			}
		})
	}
}

func TestDevice_DoesNotCloseGivenAccelerator(t *testing.T) {
	mock := &mockAccelerator{name: "mock"}
	dev := NewDevice(WithAccelerator(mock))
	dev.Close()
	if mock.closed.Load() {
		t.Error("Close() closed an accelerator the device did not create")
	}
}

func TestDevice_NullDeviceHandle(t *testing.T) {
	dev := NewDevice(WithDeviceHandle(NullDeviceHandle{}))
	defer dev.Close()

	if dev.Accelerator() != nil {
		t.Errorf("Accelerator() = %v, want nil for NullDeviceHandle", dev.Accelerator())
	}
	if _, ok := dev.DeviceHandle().(NullDeviceHandle); !ok {
		t.Errorf("DeviceHandle() = %T, want NullDeviceHandle", dev.DeviceHandle())
	}
	if err := dev.Render(NewPixmap(8, 8), DefaultParams()); err != nil {
		t.Errorf("Render() error = %v", err)
	}
}

// =============================================================================
// GPUAccelerator without a device
// =============================================================================

func TestGPUAccelerator_Unattached(t *testing.T) {
	a := &GPUAccelerator{}
	if a.Name() != "wgsl-escape" {
		t.Errorf("Name() = %q, want %q", a.Name(), "wgsl-escape")
	}
	for _, pr := range []Precision{PrecisionFloat, PrecisionDoubleSingle, PrecisionDouble} {
		if a.CanAccelerate(pr, ColoringClassic) {
			t.Errorf("CanAccelerate(%v) = true without a kernel", pr)
		}
	}
	l := Launch{Width: 4, Height: 4, Params: DefaultParams()}
	if _, err := a.Counts(l); !errors.Is(err, ErrFallbackToCPU) {
		t.Errorf("Counts() error = %v, want ErrFallbackToCPU", err)
	}
	a.SetLogger(slog.Default())
	a.Close()
	a.Close()
}

func TestGPUAccelerator_RejectsProviderWithoutHAL(t *testing.T) {
	a := &GPUAccelerator{}
	if err := a.SetDeviceProvider(NullDeviceHandle{}); err == nil {
		t.Error("SetDeviceProvider(NullDeviceHandle{}) = nil, want error")
	}
	if a.CanAccelerate(PrecisionFloat, ColoringClassic) {
		t.Error("accelerator became ready after a rejected provider")
	}
}

func TestGPUAccelerator_NeverSmoothOrDouble(t *testing.T) {
	a := &GPUAccelerator{}
	if a.CanAccelerate(PrecisionFloat, ColoringSmooth) {
		t.Error("smooth coloring must render on the CPU")
	}
	if a.CanAccelerate(PrecisionDouble, ColoringClassic) {
		t.Error("double precision must render on the CPU")
	}
}

// =============================================================================
// GPUAccelerator on a real adapter
// =============================================================================

// The double-single kernel must reproduce the CPU counts at a zoom where
// float32 alone cannot resolve neighbouring pixels.
func TestGPUAccelerator_DoubleSingleMatchesCPU(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping GPU test in short mode")
	}
	a, err := NewGPUAccelerator()
	if err != nil {
		t.Skipf("no GPU adapter: %v", err)
	}
	defer a.Close()

	p := DefaultParams()
	p.X, p.Y = -0.743643887037151, 0.131825904205330
	p.Scale = 2e-10
	p.Crunch = 1000
	p.Precision = PrecisionDoubleSingle
	const w, h = 64, 48

	counts, err := a.Counts(Launch{Width: w, Height: h, Params: p})
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if len(counts) != w*h {
		t.Fatalf("len(Counts()) = %d, want %d", len(counts), w*h)
	}

	cpu := newTestDevice(t)
	mismatched := 0
	for row := range h {
		for col := range w {
			r, err := cpu.Probe(w, h, col, row, p)
			if err != nil {
				t.Fatal(err)
			}
			if int(counts[row*w+col]) != r.Count {
				mismatched++
			}
		}
	}
	// Pixels on an escape boundary may differ by one rounding step.
	if limit := w * h / 100; mismatched > limit {
		t.Errorf("%d of %d pixels differ from the CPU kernel, want at most %d", mismatched, w*h, limit)
	}
}

func TestValidateGPUKernels(t *testing.T) {
	if err := ValidateGPUKernels(); err != nil {
		if strings.Contains(err.Error(), "not yet implemented") {
			t.Skipf("naga backend: %v", err)
		}
		t.Fatalf("ValidateGPUKernels() = %v", err)
	}
}
