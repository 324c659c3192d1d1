package present

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats describes a finished render for the overlay and the log.
type Stats struct {
	Width, Height int
	X, Y, Scale   float64
	Crunch        int
	Precision     string
	Coloring      string
	Backend       string
	Julia         bool
	JuliaX        float64
	JuliaY        float64
	Passes        int
	Elapsed       time.Duration

	// Cached frames held for Back navigation and their total size.
	Cached      int
	CachedBytes int
}

var printer = message.NewPrinter(language.English)

// Pixels returns the number of pixel samples evaluated across all passes.
func (s Stats) Pixels() int {
	return s.Width * s.Height * max(s.Passes, 1)
}

// Throughput returns pixel samples per second, or 0 for an unmeasured run.
func (s Stats) Throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Pixels()) / s.Elapsed.Seconds()
}

// Lines formats s for DrawOverlay, with English digit grouping.
func (s Stats) Lines() []string {
	mode := "mandelbrot"
	if s.Julia {
		mode = fmt.Sprintf("julia c=%.6g%+.6gi", s.JuliaX, s.JuliaY)
	}
	lines := []string{
		fmt.Sprintf("%s  %dx%d  %s/%s", mode, s.Width, s.Height, s.Precision, s.Coloring),
		fmt.Sprintf("center %.15g %+.15gi", s.X, s.Y),
		fmt.Sprintf("scale %.6e  ", s.Scale) + printer.Sprintf("crunch %d", s.Crunch),
	}
	if s.Elapsed > 0 {
		lines = append(lines, printer.Sprintf("%s  %d passes  %v  %.0f px/s",
			s.Backend, max(s.Passes, 1), s.Elapsed.Round(time.Millisecond), s.Throughput()))
	}
	if s.Cached > 0 {
		lines = append(lines, printer.Sprintf("cache %d frames  %d KiB", s.Cached, s.CachedBytes>>10))
	}
	return lines
}
