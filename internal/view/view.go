// Package view holds the state of an interactive fractal session: the
// current parameters, the accumulation buffer and the navigation
// operations. It has no windowing code; cmd/fractalview drives it from
// ebiten input.
package view

import (
	"fmt"
	"time"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/framecache"
	"github.com/gogpu/fractal/internal/present"
)

// DefaultMaxPasses bounds progressive accumulation of a still view.
const DefaultMaxPasses = 32

// DefaultCacheBytes is the frame cache budget used by New.
const DefaultCacheBytes = 256 << 20

// maxHistory bounds the number of views Back can return to.
const maxHistory = 64

// View is one interactive session. It is not safe for concurrent use.
type View struct {
	dev  *fractal.Device
	pm   *fractal.Pixmap
	p    fractal.Params
	home fractal.Params

	pass      int
	maxPasses int
	elapsed   time.Duration

	history []fractal.Params
	frames  *framecache.Cache[fractal.Params]
}

// New creates a View of w x h pixels rendering p on dev.
func New(dev *fractal.Device, w, h int, p fractal.Params) *View {
	return &View{
		dev:       dev,
		pm:        fractal.NewPixmap(w, h),
		p:         p,
		home:      p,
		maxPasses: DefaultMaxPasses,
		frames:    framecache.New[fractal.Params](DefaultCacheBytes),
	}
}

// SetCacheBytes replaces the frame cache with one of the given budget.
// Zero disables caching.
func (v *View) SetCacheBytes(n int) {
	v.frames = framecache.New[fractal.Params](n)
}

// Params returns the current parameters.
func (v *View) Params() fractal.Params { return v.p }

// Pixmap returns the accumulation buffer.
func (v *View) Pixmap() *fractal.Pixmap { return v.pm }

// Pass returns the number of passes accumulated since the last change.
func (v *View) Pass() int { return v.pass }

// SetMaxPasses sets the accumulation limit. Values below 1 render a
// single pass.
func (v *View) SetMaxPasses(n int) {
	v.maxPasses = max(n, 1)
}

// Done reports whether the view has accumulated every pass.
func (v *View) Done() bool { return v.pass >= v.maxPasses }

// Step renders the next accumulation pass. It returns false when the view
// is already complete.
func (v *View) Step() (bool, error) {
	if v.Done() {
		return false, nil
	}
	p := v.p
	p.Frame = v.pass
	start := time.Now()
	if err := v.dev.Accumulate(v.pm, p); err != nil {
		return false, fmt.Errorf("view: pass %d: %w", v.pass, err)
	}
	v.elapsed += time.Since(start)
	v.pass++
	return true, nil
}

// set switches to p, remembering the current view for Back.
func (v *View) set(p fractal.Params) {
	if p == v.p {
		return
	}
	v.history = append(v.history, v.p)
	if len(v.history) > maxHistory {
		v.history = v.history[1:]
	}
	v.jump(p)
}

// jump switches to p. Accumulated passes of the current view are kept in
// the frame cache, and a cached frame of p resumes where it stopped. A
// resumed frame leaves the cache until the view moves away again.
func (v *View) jump(p fractal.Params) {
	if v.pass > 0 {
		v.frames.Put(v.p, v.pm.Data(), v.pass)
	}
	v.p = p
	v.pass = 0
	v.elapsed = 0
	if pix, passes, ok := v.frames.Get(p); ok && len(pix) == len(v.pm.Data()) {
		copy(v.pm.Data(), pix)
		v.pass = passes
		v.frames.Delete(p)
	}
}

// Back returns to the previous view. It reports false when there is none.
func (v *View) Back() bool {
	if len(v.history) == 0 {
		return false
	}
	last := v.history[len(v.history)-1]
	v.history = v.history[:len(v.history)-1]
	v.jump(last)
	return true
}

// Pan moves the view by (dx, dy) pixels.
func (v *View) Pan(dx, dy float64) {
	v.set(v.p.Pan(dx, dy))
}

// ZoomAt zooms by factor keeping the point under pixel (col, row) fixed.
// Factors above 1 zoom in.
func (v *View) ZoomAt(factor float64, col, row int) {
	if factor <= 0 {
		return
	}
	px, py := v.p.PixelCoord(v.pm.Width(), v.pm.Height(), col, row)
	p := v.p.Zoom(factor)
	p.X = px + (v.p.X-px)/factor
	p.Y = py + (v.p.Y-py)/factor
	v.set(p)
}

// CyclePrecision switches to the next precision.
func (v *View) CyclePrecision() {
	p := v.p
	p.Precision = (p.Precision + 1) % (fractal.PrecisionDouble + 1)
	v.set(p)
}

// ToggleSmooth switches between classic and smooth coloring.
func (v *View) ToggleSmooth() {
	p := v.p
	if p.Coloring == fractal.ColoringSmooth {
		p.Coloring = fractal.ColoringClassic
	} else {
		p.Coloring = fractal.ColoringSmooth
	}
	v.set(p)
}

// ToggleJulia switches between the Mandelbrot set and the Julia set of
// the point under pixel (col, row). Entering Julia mode recenters on the
// origin; leaving it restores the Mandelbrot view.
func (v *View) ToggleJulia(col, row int) {
	p := v.p
	if p.Julia {
		p = v.home
		p.Precision, p.Coloring, p.Crunch = v.p.Precision, v.p.Coloring, v.p.Crunch
		v.set(p)
		return
	}
	v.home = p
	p.JuliaX, p.JuliaY = p.PixelCoord(v.pm.Width(), v.pm.Height(), col, row)
	p.Julia = true
	p.X, p.Y = 0, 0
	p.Scale = 3.2 / float64(min(v.pm.Width(), v.pm.Height()))
	v.set(p)
}

// AdjustCrunch multiplies the iteration budget by factor, clamped to
// [1, fractal.MaxCrunch].
func (v *View) AdjustCrunch(factor float64) {
	p := v.p
	n := float64(p.Crunch) * factor
	switch {
	case n < 1:
		p.Crunch = 1
	case n > fractal.MaxCrunch:
		p.Crunch = fractal.MaxCrunch
	default:
		p.Crunch = int(n)
	}
	if p.Crunch != v.p.Crunch {
		v.set(p)
	}
}

// Animate advances the palette by one frame. The accumulated image is
// recolored from scratch.
func (v *View) Animate() {
	p := v.p
	p.AnimationFrame++
	v.set(p)
}

// Reset starts over at p: history and cached frames are dropped and
// accumulation restarts.
func (v *View) Reset(p fractal.Params) {
	v.home = p
	v.history = v.history[:0]
	v.frames.Clear()
	v.p = p
	v.pass = 0
	v.elapsed = 0
}

// Stats describes the current view for the overlay.
func (v *View) Stats() present.Stats {
	backend := "cpu"
	if a := v.dev.Accelerator(); a != nil && a.CanAccelerate(v.p.Precision, v.p.Coloring) {
		backend = a.Name()
	}
	return present.Stats{
		Width: v.pm.Width(), Height: v.pm.Height(),
		X: v.p.X, Y: v.p.Y, Scale: v.p.Scale, Crunch: v.p.Crunch,
		Precision: v.p.Precision.String(), Coloring: v.p.Coloring.String(),
		Backend: backend,
		Julia:   v.p.Julia, JuliaX: v.p.JuliaX, JuliaY: v.p.JuliaY,
		Passes: v.pass, Elapsed: v.elapsed,
		Cached: v.frames.Len(), CachedBytes: v.frames.Bytes(),
	}
}
