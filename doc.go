// Package fractal renders escape-time fractals (the Mandelbrot set and
// Julia sets) into RGBA pixel buffers.
//
// # Quick Start
//
//	import "github.com/gogpu/fractal"
//
//	pm := fractal.NewPixmap(512, 512)
//	if err := fractal.Render(pm, fractal.DefaultParams()); err != nil {
//	    log.Fatal(err)
//	}
//	pm.SavePNG("mandelbrot.png")
//
// # Precision
//
// Every pixel runs the same recurrence z <- z^2 + c with one of three
// numeric back-ends, chosen per render through Params.Precision:
//
//   - PrecisionFloat: float32, evaluated eight pixels at a time
//   - PrecisionDoubleSingle: a float32 pair carrying about 46 bits of
//     mantissa, for zooms past float32 but portable to GPUs without f64
//   - PrecisionDouble: native float64
//
// # Devices
//
// A Device owns the worker pool, the logger and an optional GPU compute
// accelerator. The image is split into 16x16 tiles and each tile is one
// work item; a launch either completes for every tile or fails as a unit.
//
//	dev := fractal.NewDevice(fractal.WithWorkers(8))
//	defer dev.Close()
//
//	p := fractal.DefaultParams()
//	for p.Frame = 0; p.Frame < 16; p.Frame++ {
//	    dev.Accumulate(pm, p) // temporal supersampling
//	}
//
// # Coordinate System
//
// Params.X and Params.Y give the complex coordinate of the image center.
// Columns increase the real part and rows increase the imaginary part, each
// step adding Params.Scale.
package fractal

// Version is the current version of the library.
const Version = "0.1.0"
