package factions

import (
	"image/color"

	"goi/internal/core"
)

var factionPalette = [core.MaxFactions]color.RGBA{
	{R: 12, G: 12, B: 16, A: 255},
	{R: 230, G: 64, B: 64, A: 255},
	{R: 64, G: 140, B: 235, A: 255},
	{R: 90, G: 200, B: 90, A: 255},
	{R: 240, G: 200, B: 60, A: 255},
	{R: 180, G: 90, B: 220, A: 255},
	{R: 60, G: 210, B: 210, A: 255},
	{R: 245, G: 140, B: 40, A: 255},
	{R: 235, G: 235, B: 235, A: 255},
	{R: 150, G: 110, B: 70, A: 255},
}

// Palette exposes the color used for each faction id; index 0 is dead ground.
func (w *World) Palette() []color.RGBA {
	return FactionPalette()
}

// FactionPalette returns a copy of the faction colors indexed by faction id.
func FactionPalette() []color.RGBA {
	out := make([]color.RGBA, len(factionPalette))
	copy(out, factionPalette[:])
	return out
}
