// Command fractal renders a Mandelbrot or Julia view to a PNG file.
//
// Usage:
//
//	fractal -x -0.743643887 -y 0.131825904 -scale 1e-9 -crunch 2000 -precision ds -frames 16
//
// With -frames N the image is accumulated over N jittered passes. With
// -ss K it is rendered K times larger in each direction and reduced.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/present"
)

type options struct {
	width, height int
	x, y, scale   float64
	crunch        int
	precision     string
	julia         bool
	jx, jy        float64
	smooth        bool
	anim          int
	frames        int
	supersample   int
	linear        bool
	gpu           bool
	workers       int
	overlay       bool
	output        string
	probe         string
	verbose       bool
	checkShaders  bool
}

func main() {
	var o options
	flag.IntVar(&o.width, "width", 800, "image width")
	flag.IntVar(&o.height, "height", 600, "image height")
	flag.Float64Var(&o.x, "x", -0.5, "real part of the image center")
	flag.Float64Var(&o.y, "y", 0, "imaginary part of the image center")
	flag.Float64Var(&o.scale, "scale", 0, "complex distance between pixels (0 fits the whole set)")
	flag.IntVar(&o.crunch, "crunch", 512, "iteration budget")
	flag.StringVar(&o.precision, "precision", "float", "float, ds or double")
	flag.BoolVar(&o.julia, "julia", false, "render the Julia set of (jx, jy)")
	flag.Float64Var(&o.jx, "jx", -0.8, "real part of the Julia constant")
	flag.Float64Var(&o.jy, "jy", 0.156, "imaginary part of the Julia constant")
	flag.BoolVar(&o.smooth, "smooth", false, "continuous coloring")
	flag.IntVar(&o.anim, "anim", 0, "palette animation frame")
	flag.IntVar(&o.frames, "frames", 1, "accumulation passes")
	flag.IntVar(&o.supersample, "ss", 1, "supersampling factor per axis")
	flag.BoolVar(&o.linear, "linear", false, "accumulate in linear light")
	flag.BoolVar(&o.gpu, "gpu", false, "run the WGSL kernels on a Vulkan device")
	flag.IntVar(&o.workers, "workers", 0, "CPU workers (0 = GOMAXPROCS)")
	flag.BoolVar(&o.overlay, "hud", false, "draw render statistics into the image")
	flag.StringVar(&o.output, "output", "fractal.png", "output file")
	flag.StringVar(&o.probe, "probe", "", "print the escape result of pixel col,row and exit")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.BoolVar(&o.checkShaders, "check-shaders", false, "compile the WGSL kernels and exit")
	flag.Parse()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	fractal.SetLogger(logger)

	if err := run(o, logger); err != nil {
		logger.Error("fractal failed", "err", err)
		os.Exit(1)
	}
}

func run(o options, logger *slog.Logger) error {
	if o.checkShaders {
		if err := fractal.ValidateGPUKernels(); err != nil {
			return err
		}
		logger.Info("WGSL kernels compiled")
		return nil
	}

	p, err := o.params()
	if err != nil {
		return err
	}

	devOpts := []fractal.DeviceOption{fractal.WithWorkers(o.workers)}
	if o.linear {
		devOpts = append(devOpts, fractal.WithLinearAccumulation())
	}
	if o.gpu {
		a, err := fractal.NewGPUAccelerator()
		if err != nil {
			logger.Warn("GPU unavailable, rendering on CPU", "err", err)
		} else {
			defer a.Close()
			devOpts = append(devOpts, fractal.WithAccelerator(a))
		}
	}
	dev := fractal.NewDevice(devOpts...)
	defer dev.Close()

	if o.probe != "" {
		return probe(dev, o, p)
	}

	ss := max(o.supersample, 1)
	rp := p
	rp.Scale /= float64(ss)
	pm := fractal.NewPixmap(o.width*ss, o.height*ss)

	start := time.Now()
	passes := max(o.frames, 1)
	for frame := range passes {
		rp.Frame = frame
		if passes == 1 {
			err = dev.Render(pm, rp)
		} else {
			err = dev.Accumulate(pm, rp)
		}
		if err != nil {
			return fmt.Errorf("pass %d: %w", frame, err)
		}
	}
	elapsed := time.Since(start)

	img := present.Downsample(pm.ToImage(), o.width, o.height)

	stats := present.Stats{
		Width: o.width * ss, Height: o.height * ss,
		X: p.X, Y: p.Y, Scale: p.Scale, Crunch: p.Crunch,
		Precision: p.Precision.String(), Coloring: p.Coloring.String(),
		Backend: backend(dev, p),
		Julia:   p.Julia, JuliaX: p.JuliaX, JuliaY: p.JuliaY,
		Passes: passes, Elapsed: elapsed,
	}
	if o.overlay {
		present.DrawOverlay(img, stats.Lines())
	}

	if err := fractal.FromImage(img).SavePNG(o.output); err != nil {
		return err
	}
	logger.Info("saved", "file", o.output, "stats", strings.Join(stats.Lines(), " | "))
	return nil
}

func (o options) params() (fractal.Params, error) {
	if o.width <= 0 || o.height <= 0 {
		return fractal.Params{}, fmt.Errorf("%w: %dx%d", fractal.ErrInvalidDimensions, o.width, o.height)
	}
	prec, err := fractal.ParsePrecision(o.precision)
	if err != nil {
		return fractal.Params{}, err
	}

	p := fractal.DefaultParams()
	p.X, p.Y = o.x, o.y
	p.Scale = o.scale
	if p.Scale == 0 {
		p.Scale = 3.2 / float64(min(o.width, o.height))
	}
	p.Crunch = o.crunch
	p.Precision = prec
	p.Julia, p.JuliaX, p.JuliaY = o.julia, o.jx, o.jy
	p.AnimationFrame = o.anim
	if o.smooth {
		p.Coloring = fractal.ColoringSmooth
	}
	return p, p.Validate()
}

func probe(dev *fractal.Device, o options, p fractal.Params) error {
	col, row, ok := strings.Cut(o.probe, ",")
	if !ok {
		return errors.New("probe wants col,row")
	}
	c, err := strconv.Atoi(strings.TrimSpace(col))
	if err != nil {
		return fmt.Errorf("probe column: %w", err)
	}
	r, err := strconv.Atoi(strings.TrimSpace(row))
	if err != nil {
		return fmt.Errorf("probe row: %w", err)
	}

	res, err := dev.Probe(o.width, o.height, c, r, p)
	if err != nil {
		return err
	}
	x, y := p.PixelCoord(o.width, o.height, c, r)
	fmt.Printf("pixel (%d, %d) = %.17g%+.17gi: count %d escaped %v\n", c, r, x, y, res.Count, res.Escaped)
	return nil
}

func backend(dev *fractal.Device, p fractal.Params) string {
	if a := dev.Accelerator(); a != nil && a.CanAccelerate(p.Precision, p.Coloring) {
		return a.Name()
	}
	return "cpu"
}
