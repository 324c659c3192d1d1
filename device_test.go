package fractal

import (
	"bytes"
	"errors"
	"image/color"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/fractal/internal/escape"
	"github.com/gogpu/fractal/internal/palette"
	"github.com/gogpu/fractal/internal/parallel"
)

var allPrecisions = []Precision{PrecisionFloat, PrecisionDoubleSingle, PrecisionDouble}

// scenarioParams is the reference 512x512 view: one pixel is 1/256 and the
// image center sits at -0.5+0i inside the main cardioid.
func scenarioParams(pr Precision) Params {
	p := DefaultParams()
	p.X, p.Y = -0.5, 0
	p.Scale = 1.0 / 256
	p.Crunch = 256
	p.Precision = pr
	return p
}

func newTestDevice(t *testing.T, opts ...DeviceOption) *Device {
	t.Helper()
	dev := NewDevice(opts...)
	t.Cleanup(dev.Close)
	return dev
}

// =============================================================================
// Reference view
// =============================================================================

func TestProbe_CardioidCenterNeverEscapes(t *testing.T) {
	dev := newTestDevice(t)
	for _, pr := range allPrecisions {
		r, err := dev.Probe(512, 512, 256, 256, scenarioParams(pr))
		if err != nil {
			t.Fatalf("%v: Probe() error = %v", pr, err)
		}
		if r.Count != 256 || r.Escaped {
			t.Errorf("%v: center = {Count: %d, Escaped: %v}, want {256, false}", pr, r.Count, r.Escaped)
		}
	}
}

func TestProbe_CornerEscapesFast(t *testing.T) {
	dev := newTestDevice(t)
	var counts []int
	for _, pr := range allPrecisions {
		r, err := dev.Probe(512, 512, 0, 0, scenarioParams(pr))
		if err != nil {
			t.Fatalf("%v: Probe() error = %v", pr, err)
		}
		if !r.Escaped || r.Count >= 10 {
			t.Errorf("%v: corner = {Count: %d, Escaped: %v}, want an escape under 10", pr, r.Count, r.Escaped)
		}
		counts = append(counts, r.Count)
	}
	for i := 1; i < len(counts); i++ {
		if counts[i] != counts[0] {
			t.Errorf("corner counts differ across precisions: %v", counts)
		}
	}
}

func TestRender_ReferenceView(t *testing.T) {
	dev := newTestDevice(t)
	p := scenarioParams(PrecisionFloat)
	pm := NewPixmap(512, 512)
	if err := dev.Render(pm, p); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if got := pm.Pixel(256, 256); got != palette.Black {
		t.Errorf("center pixel = %v, want opaque black", got)
	}

	// (-1.5, -1) escapes on the second iteration.
	want := palette.Classic(2, p.Crunch, 0, p.BaseColor)
	if got := pm.Pixel(0, 0); got != want {
		t.Errorf("corner pixel = %v, want %v", got, want)
	}
}

func TestRender_OriginNeverEscapes(t *testing.T) {
	dev := newTestDevice(t)
	for _, pr := range allPrecisions {
		p := scenarioParams(pr)
		// Column 384 is 128 pixels right of -0.5, i.e. c = 0.
		r, err := dev.Probe(512, 512, 384, 256, p)
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if r.Count != p.Crunch || r.Escaped {
			t.Errorf("%v: c = 0 gave count %d, want %d", pr, r.Count, p.Crunch)
		}
	}
}

func TestRender_ZeroBudget(t *testing.T) {
	dev := newTestDevice(t)
	for _, pr := range allPrecisions {
		for _, c := range []Coloring{ColoringClassic, ColoringSmooth} {
			p := scenarioParams(pr)
			p.Crunch = 0
			p.Coloring = c

			pm := NewPixmap(48, 40)
			pm.Clear(color.RGBA{R: 9, G: 9, B: 9, A: 9})
			if err := dev.Render(pm, p); err != nil {
				t.Fatalf("%v/%v: Render() error = %v", pr, c, err)
			}
			for y := range pm.Height() {
				for x := range pm.Width() {
					if got := pm.Pixel(x, y); got != palette.Black {
						t.Fatalf("%v/%v: pixel (%d, %d) = %v, want black", pr, c, x, y, got)
					}
				}
			}

			r, err := dev.Probe(48, 40, 0, 0, p)
			if err != nil || r.Count != 0 {
				t.Errorf("%v: Probe() = (%+v, %v), want count 0", pr, r, err)
			}
		}
	}
}

func TestRender_Idempotent(t *testing.T) {
	dev := newTestDevice(t, WithWorkers(4))
	for _, pr := range allPrecisions {
		for _, c := range []Coloring{ColoringClassic, ColoringSmooth} {
			p := DefaultParams()
			p.Precision = pr
			p.Coloring = c
			p.Scale = 3.2 / 160

			a, b := NewPixmap(160, 120), NewPixmap(160, 120)
			b.Clear(color.RGBA{R: 1, G: 2, B: 3, A: 4})
			if err := dev.Render(a, p); err != nil {
				t.Fatal(err)
			}
			if err := dev.Render(b, p); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(a.Data(), b.Data()) {
				t.Errorf("%v/%v: two renders of the same params differ", pr, c)
			}
		}
	}
}

func TestRender_OpaqueOutput(t *testing.T) {
	dev := newTestDevice(t)
	p := DefaultParams()
	p.BaseColor.A = 0
	pm := NewPixmap(64, 64)
	if err := dev.Render(pm, p); err != nil {
		t.Fatal(err)
	}
	for i := 3; i < len(pm.Data()); i += 4 {
		if pm.Data()[i] != 255 {
			t.Fatalf("pixel %d alpha = %d, want 255", i/4, pm.Data()[i])
		}
	}
}

// The 8-lane float path must color every pixel exactly as the scalar
// float kernel counts it.
func TestRender_LanesMatchScalar(t *testing.T) {
	dev := newTestDevice(t)
	for _, julia := range []bool{false, true} {
		p := DefaultParams()
		p.Scale = 3.2 / 67
		p.Crunch = 100
		p.AnimationFrame = 5
		if julia {
			p.X, p.JuliaX, p.JuliaY, p.Julia = 0, -0.8, 0.156, true
		}

		const w, h = 67, 45 // partial lane groups and edge tiles
		pm := NewPixmap(w, h)
		if err := dev.Render(pm, p); err != nil {
			t.Fatal(err)
		}
		for y := range h {
			for x := range w {
				r, err := dev.Probe(w, h, x, y, p)
				if err != nil {
					t.Fatal(err)
				}
				want := palette.Classic(r.Count, p.Crunch, p.AnimationFrame, p.BaseColor)
				if got := pm.Pixel(x, y); got != want {
					t.Fatalf("julia=%v: pixel (%d, %d) = %v, want %v (count %d)", julia, x, y, got, want, r.Count)
				}
			}
		}
	}
}

func TestRender_SmoothMatchesClassicInterior(t *testing.T) {
	dev := newTestDevice(t)
	p := scenarioParams(PrecisionDouble)
	p.Coloring = ColoringSmooth
	pm := NewPixmap(512, 512)
	if err := dev.Render(pm, p); err != nil {
		t.Fatal(err)
	}
	if got := pm.Pixel(256, 256); got != palette.Black {
		t.Errorf("smooth interior pixel = %v, want black", got)
	}
}

// At a scale float32 resolves, the three precisions agree on almost every
// pixel.
func TestRender_PrecisionsAgree(t *testing.T) {
	dev := newTestDevice(t)
	const w, h = 96, 64

	var ref []int
	for _, pr := range allPrecisions {
		p := DefaultParams()
		p.Precision = pr
		p.Scale = 3.2 / w
		p.Crunch = 64

		var counts []int
		for y := range h {
			for x := range w {
				r, err := dev.Probe(w, h, x, y, p)
				if err != nil {
					t.Fatal(err)
				}
				counts = append(counts, r.Count)
			}
		}
		if ref == nil {
			ref = counts
			continue
		}
		diff := 0
		for i := range counts {
			if counts[i] != ref[i] {
				diff++
			}
		}
		if diff > len(counts)/50 {
			t.Errorf("%v: %d of %d pixels differ from float", pr, diff, len(counts))
		}
	}
}

// At a deep zoom float32 collapses neighbouring pixels onto one
// coordinate while double-single keeps them apart.
func TestViewport_DeepZoomResolution(t *testing.T) {
	p := DefaultParams()
	p.X, p.Y = -0.743643887037151, 0.131825904205330
	p.Scale = 1e-10

	p.Precision = PrecisionFloat
	vp := newViewport(32, 1, p, 0, 0)
	f := escape.F32{}
	first := escape.Coord(f, vp.f32.x, vp.f32.scale, vp.offX(0))
	for col := 1; col < 32; col++ {
		if x := escape.Coord(f, vp.f32.x, vp.f32.scale, vp.offX(col)); x != first {
			t.Fatalf("float column %d = %v, want collapsed onto %v", col, x, first)
		}
	}

	p.Precision = PrecisionDoubleSingle
	vp = newViewport(32, 1, p, 0, 0)
	ds := escape.DS{}
	prev := ds.Float64(escape.Coord(ds, vp.ds.x, vp.ds.scale, vp.offX(0)))
	for col := 1; col < 32; col++ {
		x := ds.Float64(escape.Coord(ds, vp.ds.x, vp.ds.scale, vp.offX(col)))
		if x <= prev {
			t.Fatalf("double-single column %d = %v, not right of %v", col, x, prev)
		}
		if step := x - prev; math.Abs(step-p.Scale) > p.Scale*1e-2 {
			t.Errorf("double-single step at column %d = %g, want %g", col, step, p.Scale)
		}
		prev = x
	}
}

func TestRender_JuliaMode(t *testing.T) {
	dev := newTestDevice(t)
	p := DefaultParams()
	p.X, p.Y, p.Scale = 0, 0, 3.0/64
	p.Julia, p.JuliaX, p.JuliaY = true, 0, 0
	p.Crunch = 50

	// With c = 0 the Julia set is the unit disk: the center is bounded and
	// the corner (|z0| about 2.1) escapes immediately.
	for _, pr := range allPrecisions {
		p.Precision = pr
		if r, _ := dev.Probe(64, 64, 32, 32, p); r.Count != p.Crunch {
			t.Errorf("%v: center count = %d, want %d", pr, r.Count, p.Crunch)
		}
		if r, _ := dev.Probe(64, 64, 0, 0, p); !r.Escaped || r.Count > 2 {
			t.Errorf("%v: corner = %+v, want an immediate escape", pr, r)
		}
	}
}

// =============================================================================
// Errors
// =============================================================================

func TestRenderRGBA_Errors(t *testing.T) {
	dev := newTestDevice(t)
	valid := DefaultParams()

	nanScale := valid
	nanScale.Scale = math.NaN()
	negCrunch := valid
	negCrunch.Crunch = -1
	badColoring := valid
	badColoring.Coloring = Coloring(7)
	badJulia := valid
	badJulia.Julia, badJulia.JuliaX = true, math.Inf(1)

	tests := []struct {
		name string
		dst  []uint8
		w, h int
		p    Params
		want error
	}{
		{"zero width", nil, 0, 10, valid, ErrInvalidDimensions},
		{"negative height", nil, 10, -1, valid, ErrInvalidDimensions},
		{"byte length overflows", nil, math.MaxInt / 2, 1, valid, ErrInvalidDimensions},
		{"area overflows", nil, math.MaxInt / 1024, math.MaxInt / 1024, valid, ErrInvalidDimensions},
		{"short buffer", make([]uint8, 10*10*4-1), 10, 10, valid, ErrBufferSize},
		{"long buffer", make([]uint8, 10*10*4+4), 10, 10, valid, ErrBufferSize},
		{"nan scale", make([]uint8, 400), 10, 10, nanScale, ErrInvalidParams},
		{"negative budget", make([]uint8, 400), 10, 10, negCrunch, ErrInvalidParams},
		{"unknown coloring", make([]uint8, 400), 10, 10, badColoring, ErrInvalidParams},
		{"infinite julia constant", make([]uint8, 400), 10, 10, badJulia, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dev.RenderRGBA(tt.dst, tt.w, tt.h, tt.p, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("RenderRGBA() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProbe_Errors(t *testing.T) {
	dev := newTestDevice(t)
	p := DefaultParams()
	for _, c := range [][4]int{{0, 10, 0, 0}, {10, 10, 10, 0}, {10, 10, 0, -1}, {math.MaxInt / 2, 1, 0, 0}} {
		if _, err := dev.Probe(c[0], c[1], c[2], c[3], p); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("Probe(%v) error = %v, want ErrInvalidDimensions", c, err)
		}
	}
	p.Scale = 0
	if _, err := dev.Probe(10, 10, 0, 0, p); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Probe() with zero scale error = %v, want ErrInvalidParams", err)
	}
}

func TestDevice_Closed(t *testing.T) {
	dev := NewDevice()
	dev.Close()
	dev.Close() // idempotent

	if err := dev.Render(NewPixmap(4, 4), DefaultParams()); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("Render() after Close error = %v, want ErrDeviceClosed", err)
	}
	if _, err := dev.Probe(4, 4, 0, 0, DefaultParams()); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("Probe() after Close error = %v, want ErrDeviceClosed", err)
	}
}

func TestDevice_UnknownPrecisionRendersFloat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	dev := newTestDevice(t, WithLogger(logger))

	p := DefaultParams()
	want := NewPixmap(64, 48)
	if err := dev.Render(want, p); err != nil {
		t.Fatal(err)
	}

	p.Precision = Precision(9)
	got := NewPixmap(64, 48)
	if err := dev.Render(got, p); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.Equal(got.Data(), want.Data()) {
		t.Error("unknown precision did not render as float")
	}
	if !strings.Contains(buf.String(), "unknown precision") {
		t.Errorf("expected a precision warning, got: %s", buf.String())
	}
}

func TestDevice_TilePanicFailsLaunch(t *testing.T) {
	dev := newTestDevice(t, WithWorkers(4))
	grid := parallel.NewTileGrid(64, 64)

	err := dev.runTiles(grid, func(tile parallel.Tile) {
		if tile.X == 2 && tile.Y == 1 {
			panic("bad tile")
		}
	})
	if !errors.Is(err, ErrLaunchFailed) || !errors.Is(err, parallel.ErrWorkPanicked) {
		t.Fatalf("runTiles() error = %v, want ErrLaunchFailed wrapping ErrWorkPanicked", err)
	}

	// The device stays usable.
	if err := dev.Render(NewPixmap(32, 32), DefaultParams()); err != nil {
		t.Errorf("Render() after failed launch error = %v", err)
	}
}

// =============================================================================
// Concurrency and package-level API
// =============================================================================

func TestDevice_ConcurrentRenders(t *testing.T) {
	dev := newTestDevice(t, WithWorkers(4))
	p := DefaultParams()
	p.Scale = 3.2 / 80

	want := NewPixmap(80, 60)
	if err := dev.Render(want, p); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pm := NewPixmap(80, 60)
			if err := dev.Render(pm, p); err != nil {
				t.Errorf("Render() error = %v", err)
				return
			}
			if !bytes.Equal(pm.Data(), want.Data()) {
				t.Error("concurrent render differs")
			}
		}()
	}
	wg.Wait()
}

func TestDevice_Workers(t *testing.T) {
	if got := newTestDevice(t, WithWorkers(3)).Workers(); got != 3 {
		t.Errorf("Workers() = %d, want 3", got)
	}
	if got := newTestDevice(t).Workers(); got < 1 {
		t.Errorf("Workers() = %d, want >= 1", got)
	}
}

func TestPackageRender(t *testing.T) {
	p := DefaultParams()
	a, b := NewPixmap(50, 30), NewPixmap(50, 30)
	if err := Render(a, p); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	dev := newTestDevice(t)
	if err := dev.Render(b, p); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Data(), b.Data()) {
		t.Error("package Render differs from Device.Render")
	}

	if err := Accumulate(a, p); err != nil {
		t.Errorf("Accumulate() error = %v", err)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkRender(b *testing.B) {
	dev := NewDevice()
	defer dev.Close()
	pm := NewPixmap(512, 512)

	for _, pr := range allPrecisions {
		p := scenarioParams(pr)
		b.Run(pr.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = dev.Render(pm, p)
			}
		})
	}
}
