package main

import (
	"image"
	"log/slog"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/present"
	"github.com/gogpu/fractal/internal/view"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	panStep    = 32.0
	zoomStep   = 1.25
	wheelScale = 1.1
)

type game struct {
	view    *view.View
	home    fractal.Params
	overlay bool
	logger  *slog.Logger

	frame *ebiten.Image
	img   *image.RGBA
	dirty bool

	dragging     bool
	dragX, dragY int
}

func (g *game) Update() error {
	g.handleInput()

	stepped, err := g.view.Step()
	if err != nil {
		return err
	}
	if stepped {
		g.dirty = true
		if g.view.Done() {
			g.logger.Debug("view converged", "passes", g.view.Pass())
		}
	}
	return nil
}

func (g *game) handleInput() {
	v := g.view
	cx, cy := ebiten.CursorPosition()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.dragging, g.dragX, g.dragY = true, cx, cy
	}
	if g.dragging {
		if dx, dy := cx-g.dragX, cy-g.dragY; dx != 0 || dy != 0 {
			v.Pan(float64(-dx), float64(-dy))
			g.dragX, g.dragY = cx, cy
		}
		if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
			g.dragging = false
		}
	}

	if _, wy := ebiten.Wheel(); wy > 0 {
		v.ZoomAt(wheelScale, cx, cy)
	} else if wy < 0 {
		v.ZoomAt(1/wheelScale, cx, cy)
	}

	switch {
	case ebiten.IsKeyPressed(ebiten.KeyArrowLeft):
		v.Pan(-panStep, 0)
	case ebiten.IsKeyPressed(ebiten.KeyArrowRight):
		v.Pan(panStep, 0)
	case ebiten.IsKeyPressed(ebiten.KeyArrowUp):
		v.Pan(0, -panStep)
	case ebiten.IsKeyPressed(ebiten.KeyArrowDown):
		v.Pan(0, panStep)
	}

	w, h := v.Pixmap().Width(), v.Pixmap().Height()
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		switch k {
		case ebiten.KeyEqual, ebiten.KeyNumpadAdd:
			v.ZoomAt(zoomStep, w/2, h/2)
		case ebiten.KeyMinus, ebiten.KeyNumpadSubtract:
			v.ZoomAt(1/zoomStep, w/2, h/2)
		case ebiten.KeyP:
			v.CyclePrecision()
			g.logger.Info("precision", "mode", v.Params().Precision)
		case ebiten.KeyS:
			v.ToggleSmooth()
		case ebiten.KeyJ:
			v.ToggleJulia(cx, cy)
		case ebiten.KeyBracketLeft:
			v.AdjustCrunch(0.5)
		case ebiten.KeyBracketRight:
			v.AdjustCrunch(2)
		case ebiten.KeyA:
			v.Animate()
		case ebiten.KeyH:
			g.overlay = !g.overlay
			g.dirty = true
		case ebiten.KeyBackspace:
			v.Back()
		case ebiten.KeyR:
			v.Reset(g.home)
		}
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	pm := g.view.Pixmap()
	if g.frame == nil {
		g.frame = ebiten.NewImage(pm.Width(), pm.Height())
		g.img = image.NewRGBA(image.Rect(0, 0, pm.Width(), pm.Height()))
		g.dirty = true
	}
	if g.dirty {
		copy(g.img.Pix, pm.Data())
		if g.overlay {
			present.DrawOverlay(g.img, g.view.Stats().Lines())
		}
		g.frame.WritePixels(g.img.Pix)
		g.dirty = false
	}
	screen.DrawImage(g.frame, nil)
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.view.Pixmap().Width(), g.view.Pixmap().Height()
}
