//go:build ebiten

package ui

import (
	"image/color"

	"goi/internal/core"
	"goi/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type invasionMaskProvider interface {
	InvasionMask() []float32
}

var invasionTint = color.RGBA{R: 255, G: 250, B: 220}

// Overlay draws optional visuals on top of the simulation. Key 1 toggles a
// tint over cells forced by the latest invasion.
type Overlay struct {
	sim   core.Sim
	scale int

	showInvasions bool
	painter       *render.GridPainter
}

// NewOverlay constructs an overlay for sim drawn at scale.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	size := sim.Size()
	return &Overlay{
		sim:           sim,
		scale:         scale,
		showInvasions: true,
		painter:       render.NewGridPainter(size.W, size.H),
	}
}

// Update handles the overlay toggles.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showInvasions = !o.showInvasions
	}
}

// Draw renders enabled layers onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if !o.showInvasions {
		return
	}
	if provider, ok := o.sim.(invasionMaskProvider); ok {
		o.painter.BlitMask(screen, provider.InvasionMask(), invasionTint, o.scale)
	}
}
