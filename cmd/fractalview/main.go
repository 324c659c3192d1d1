// Command fractalview is an interactive fractal explorer.
//
// Controls:
//
//	drag / arrows   pan
//	wheel / +,-     zoom at the cursor
//	P               cycle precision (float, double-single, double)
//	S               toggle smooth coloring
//	J               Julia set of the point under the cursor, again to return
//	[ ]             halve / double the iteration budget
//	A               animate the palette
//	H               toggle the statistics overlay
//	Backspace       previous view
//	R               reset the view
//
// A still view keeps accumulating jittered passes until it is converged.
// Views left behind are cached, so going back shows them at once.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/view"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	var (
		width     = flag.Int("width", 960, "window width")
		height    = flag.Int("height", 640, "window height")
		precision = flag.String("precision", "float", "float, ds or double")
		crunch    = flag.Int("crunch", 512, "iteration budget")
		passes    = flag.Int("passes", view.DefaultMaxPasses, "accumulation passes of a still view")
		useGPU    = flag.Bool("gpu", false, "run the WGSL kernels on a Vulkan device")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	fractal.SetLogger(logger)

	prec, err := fractal.ParsePrecision(*precision)
	if err != nil {
		logger.Error("bad precision", "err", err)
		os.Exit(2)
	}

	var opts []fractal.DeviceOption
	if *useGPU {
		a, err := fractal.NewGPUAccelerator()
		if err != nil {
			logger.Warn("GPU unavailable, rendering on CPU", "err", err)
		} else {
			defer a.Close()
			opts = append(opts, fractal.WithAccelerator(a))
		}
	}
	dev := fractal.NewDevice(opts...)
	defer dev.Close()

	p := fractal.DefaultParams()
	p.Scale = 3.2 / float64(min(*width, *height))
	p.Crunch = *crunch
	p.Precision = prec

	v := view.New(dev, *width, *height, p)
	v.SetMaxPasses(*passes)

	g := &game{view: v, home: p, overlay: true, logger: logger}
	ebiten.SetWindowTitle("fractal " + fractal.Version)
	ebiten.SetWindowSize(*width, *height)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil {
		logger.Error("fractalview failed", "err", err)
		os.Exit(1)
	}
}
