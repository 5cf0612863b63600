//go:build ebiten

package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"goi/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type parameterProvider interface {
	Parameters() core.ParameterSnapshot
}

type paletteProvider interface {
	Palette() []color.RGBA
}

// HUD renders live counters and adjustable parameters in a panel to the right
// of the simulation view.
type HUD struct {
	sim        core.Sim
	width      int
	panel      *ebiten.Image
	lastHeight int
	title      string

	stats    []core.Stat
	controls []controlState
	buttons  []buttonPair
	offsetX  int

	pixel *ebiten.Image
}

type buttonPair struct {
	top         int
	minus, plus image.Rectangle
}

var (
	textColor  = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	mutedColor = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	panelColor = color.RGBA{R: 16, G: 16, B: 20, A: 255}
)

// NewHUD constructs a HUD for sim with the given panel width.
func NewHUD(sim core.Sim, width int) *HUD {
	h := &HUD{sim: sim, width: max(width, 0), title: buildTitle(sim)}
	if h.width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	h.controls = newControlStates(sim)
	return h
}

// Update refreshes stats and parameters and handles clicks on the panel.
func (h *HUD) Update(offsetX int) {
	if h == nil {
		return
	}
	h.offsetX = offsetX
	if provider, ok := h.sim.(core.StatsProvider); ok {
		h.stats = provider.Stats()
	}
	if provider, ok := h.sim.(parameterProvider); ok {
		snapshot := provider.Parameters()
		for i := range h.controls {
			h.controls[i].refresh(snapshot)
		}
	}
	h.layout()
	h.handleInput()
}

// Draw paints the panel at offsetX.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if height <= 0 {
		return
	}
	if h.panel == nil || h.lastHeight != height {
		h.panel = ebiten.NewImage(h.width, height)
		h.lastHeight = height
	}
	h.panel.Fill(panelColor)
	h.drawStats()
	h.drawControls()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func buildTitle(sim core.Sim) string {
	if sim == nil || sim.Name() == "" {
		return "Controls"
	}
	name := sim.Name()
	return strings.ToUpper(name[:1]) + name[1:]
}

func (h *HUD) layout() {
	top := controlsTopFor(len(h.stats))
	if len(h.buttons) != len(h.controls) {
		h.buttons = make([]buttonPair, len(h.controls))
	}
	for i := range h.controls {
		rowTop := top + i*lineHeight
		y := rowTop + (lineHeight-buttonSize)/2
		plus := image.Rect(h.width-panelPadding-buttonSize, y, h.width-panelPadding, y+buttonSize)
		minus := image.Rect(plus.Min.X-buttonGap-buttonSize, y, plus.Min.X-buttonGap, y+buttonSize)
		h.buttons[i] = buttonPair{top: rowTop, minus: minus, plus: plus}
	}
}

func (h *HUD) handleInput() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	if mx < h.offsetX {
		return
	}
	p := image.Pt(mx-h.offsetX, my)
	for i := range h.controls {
		switch {
		case p.In(h.buttons[i].minus):
			h.controls[i].adjust(h.sim, -1)
			return
		case p.In(h.buttons[i].plus):
			h.controls[i].adjust(h.sim, 1)
			return
		}
	}
}

func (h *HUD) drawStats() {
	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	text.Draw(h.panel, h.title, face, panelPadding, y, color.RGBA{R: 200, G: 200, B: 210, A: 255})

	var palette []color.RGBA
	if provider, ok := h.sim.(paletteProvider); ok {
		palette = provider.Palette()
	}
	for i, stat := range h.stats {
		y = panelPadding + headerBaseline + (i+1)*statSpacing
		x := panelPadding
		var faction int
		if _, err := fmt.Sscanf(stat.Label, "Faction %d", &faction); err == nil && faction < len(palette) {
			h.fillRect(image.Rect(x, y-9, x+9, y), palette[faction])
			x += 14
		}
		text.Draw(h.panel, stat.Label, face, x, y, mutedColor)
		bounds := text.BoundString(face, stat.Value)
		text.Draw(h.panel, stat.Value, face, h.width-panelPadding-bounds.Dx(), y, textColor)
	}
}

func (h *HUD) drawControls() {
	face := basicfont.Face7x13
	if len(h.controls) == 0 {
		return
	}
	for i := range h.controls {
		state := &h.controls[i]
		btn := h.buttons[i]
		labelY := btn.top + labelBaseline
		text.Draw(h.panel, state.control.Label, face, panelPadding, labelY, textColor)

		valueColor := textColor
		if !state.hasValue {
			valueColor = mutedColor
		}
		bounds := text.BoundString(face, state.value)
		text.Draw(h.panel, state.value, face, btn.minus.Min.X-buttonGap-bounds.Dx(), labelY, valueColor)

		h.drawButton(btn.minus, "-", state.canAdjust(h.sim, -1))
		h.drawButton(btn.plus, "+", state.canAdjust(h.sim, 1))
	}
}

func (h *HUD) fillRect(rect image.Rectangle, col color.RGBA) {
	if h.pixel == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(rect.Dx()), float64(rect.Dy()))
	op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	op.ColorScale.ScaleWithColor(col)
	h.panel.DrawImage(h.pixel, op)
}

func (h *HUD) drawButton(rect image.Rectangle, label string, enabled bool) {
	bg := color.RGBA{R: 54, G: 56, B: 64, A: 255}
	fg := color.RGBA{R: 230, G: 230, B: 240, A: 255}
	if !enabled {
		bg = color.RGBA{R: 32, G: 34, B: 40, A: 255}
		fg = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	}
	h.fillRect(rect, bg)

	face := basicfont.Face7x13
	bounds := text.BoundString(face, label)
	x := rect.Min.X + (rect.Dx()-bounds.Dx())/2
	y := rect.Min.Y + (rect.Dy()-bounds.Dy())/2 + bounds.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}

func controlsTopFor(stats int) int {
	return panelPadding + headerBaseline + (stats+1)*statSpacing + 8
}

const (
	panelPadding   = 12
	lineHeight     = 36
	buttonSize     = 24
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 24
	statSpacing    = 16
)
